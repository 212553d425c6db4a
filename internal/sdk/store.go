package sdk

import "context"

// KV is the key-value persistence the credential store writes through.
// Implementations can use the system keychain, a file, Redis or memory.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// StoreError indicates a key-value storage error.
type StoreError struct {
	Operation string // "load", "save", "delete"
	Key       string
	Backend   string
	Message   string
	Cause     error
}

func (e *StoreError) Error() string {
	msg := "failed to " + e.Operation
	if e.Backend != "" {
		msg += " in " + e.Backend
	}
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
