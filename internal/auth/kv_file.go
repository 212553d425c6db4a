package auth

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

// CredentialsFileName is the plaintext fallback file inside the state dir.
const CredentialsFileName = "credentials.json"

// fileLockTimeout bounds how long a write waits for another process.
// Past it the write proceeds unlocked rather than hanging the CLI.
const fileLockTimeout = 100 * time.Millisecond

// FileKV stores values as a JSON object in a single 0600 file.
type FileKV struct {
	dir string
}

// NewFileKV returns a file backend rooted at dir.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

// Path returns the credentials file path.
func (f *FileKV) Path() string {
	return filepath.Join(f.dir, CredentialsFileName)
}

func (f *FileKV) lockPath() string {
	return filepath.Join(f.dir, ".credentials.lock")
}

// Get reads key.
func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	all, err := f.loadAll()
	if err != nil {
		return "", false, err
	}
	v, ok := all[key]
	return v, ok, nil
}

// Set writes key.
func (f *FileKV) Set(ctx context.Context, key, value string) error {
	return f.update(ctx, func(all map[string]string) {
		all[key] = value
	})
}

// Delete removes key.
func (f *FileKV) Delete(ctx context.Context, key string) error {
	return f.update(ctx, func(all map[string]string) {
		delete(all, key)
	})
}

func (f *FileKV) update(ctx context.Context, fn func(map[string]string)) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	fl := flock.New(f.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, fileLockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(lockCtx, 10*time.Millisecond)
	if err != nil && lockCtx.Err() == nil {
		return err
	}
	if locked {
		defer func() { _ = fl.Unlock() }()
	}

	all, err := f.loadAll()
	if err != nil {
		return err
	}
	fn(all)
	return f.saveAll(all)
}

func (f *FileKV) loadAll() (map[string]string, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	all := make(map[string]string)
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (f *FileKV) saveAll(all map[string]string) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write with randomized temp file name
	tmpFile, err := os.CreateTemp(f.dir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	// Windows: rename fails when destination exists.
	destPath := f.Path()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}
