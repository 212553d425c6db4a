// Package resilience shares request gating state between okto processes:
// a circuit breaker that fails fast after repeated transport failures and a
// token bucket that honours server back-off. State lives in one JSON file
// guarded by a file lock.
package resilience

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

// StateFileName is the state file inside the store directory.
const StateFileName = "resilience.json"

// LockTimeout bounds how long a caller waits for the state lock. Past it the
// operation proceeds unlocked so a stuck process never hangs the CLI.
const LockTimeout = 100 * time.Millisecond

// Store reads and writes State under an exclusive file lock.
type Store struct {
	dir string
}

// NewStore creates a store in dir. An empty dir uses the user cache directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &Store{dir: dir}
}

func defaultStateDir() string {
	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		return filepath.Join(cacheDir, "okto")
	}
	return filepath.Join(os.TempDir(), "okto")
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the state file path.
func (s *Store) Path() string { return filepath.Join(s.dir, StateFileName) }

func (s *Store) lock() (*flock.Flock, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(s.dir, ".resilience.lock"))

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return fl, nil
}

func unlock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

// Load returns the current state, or a fresh one when the file is missing or corrupt.
func (s *Store) Load() (*State, error) {
	fl, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock(fl)
	return s.read()
}

// Update runs fn on the current state and writes the result, holding the
// lock for the whole read-modify-write.
func (s *Store) Update(fn func(*State) error) error {
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock(fl)

	state, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.write(state)
}

// Clear removes the state file.
func (s *Store) Clear() error {
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock(fl)

	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) read() (*State, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return NewState(), nil
	}
	return &state, nil
}

func (s *Store) write(state *State) error {
	state.Version = StateVersion
	state.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Unique temp name: writers may overlap when the lock timed out.
	tmp := fmt.Sprintf("%s.%d.%d.tmp", s.Path(), os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		_ = os.Remove(s.Path())
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
