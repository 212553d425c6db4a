package auth

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile reloads the session whenever another process rewrites the
// credential file behind kv. It blocks until ctx is done.
func WatchFile(ctx context.Context, s *Session, kv *FileKV) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := os.MkdirAll(kv.dir, 0700); err != nil {
		return err
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := w.Add(kv.dir); err != nil {
		return err
	}
	target := filepath.Clean(kv.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Restore(ctx); err != nil {
				s.logger.Warn("failed to reload credentials", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("credential watcher error", "error", err)
		}
	}
}
