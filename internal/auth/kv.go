package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/sdk"
)

const serviceName = "okto"

// KeyringKV stores values in the system keychain.
type KeyringKV struct {
	service string
}

// NewKeyringKV returns a keychain backend under the okto service name.
func NewKeyringKV() *KeyringKV {
	return &KeyringKV{service: serviceName}
}

// Get reads key from the keychain.
func (k *KeyringKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes key to the keychain.
func (k *KeyringKV) Set(ctx context.Context, key, value string) error {
	return keyring.Set(k.service, key, value)
}

// Delete removes key from the keychain.
func (k *KeyringKV) Delete(ctx context.Context, key string) error {
	err := keyring.Delete(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// MemoryKV keeps values in process memory. Nothing survives a restart.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV returns an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get reads key.
func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set writes key.
func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// OpenKV builds the backend named by cfg.Store. "auto" probes the keychain
// and falls back to a plaintext file with a warning on stderr.
func OpenKV(ctx context.Context, cfg *config.Config) (sdk.KV, error) {
	switch cfg.Store {
	case config.StoreKeyring:
		return NewKeyringKV(), nil
	case config.StoreFile:
		return NewFileKV(cfg.StateDir), nil
	case config.StoreMemory:
		return NewMemoryKV(), nil
	case config.StoreRedis:
		return NewRedisKVFromURL(cfg.RedisURL)
	case config.StoreAuto, "":
		if keyringAvailable() {
			return NewKeyringKV(), nil
		}
		fk := NewFileKV(cfg.StateDir)
		fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n", fk.Path())
		return fk, nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.Store)
	}
}

func keyringAvailable() bool {
	testKey := "okto::test"
	if err := keyring.Set(serviceName, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
	return true
}

// BackendName describes a KV for status output.
func BackendName(kv sdk.KV) string {
	switch v := kv.(type) {
	case *KeyringKV:
		return "keyring"
	case *FileKV:
		return "file:" + filepath.Clean(v.Path())
	case *MemoryKV:
		return "memory"
	case *RedisKV:
		return "redis"
	default:
		return fmt.Sprintf("%T", kv)
	}
}
