package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oktotech/okto-go/internal/sdk"
)

// AuthDetailsKey is the single storage key holding the serialized Credential.
const AuthDetailsKey = "AUTH_DETAILS"

// ErrInvalidCredential marks a stored record that does not decode.
var ErrInvalidCredential = errors.New("invalid credentials")

// CredentialStore persists the current Credential as JSON in a KV backend.
// It holds no state of its own.
type CredentialStore struct {
	kv sdk.KV
}

// NewCredentialStore wraps kv.
func NewCredentialStore(kv sdk.KV) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Backend describes where credentials live.
func (s *CredentialStore) Backend() string {
	return BackendName(s.kv)
}

// Load returns the persisted Credential, or nil when none is stored.
func (s *CredentialStore) Load(ctx context.Context) (*Credential, error) {
	raw, ok, err := s.kv.Get(ctx, AuthDetailsKey)
	if err != nil {
		return nil, &sdk.StoreError{Operation: "load", Key: AuthDetailsKey, Backend: s.Backend(), Cause: err}
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, &sdk.StoreError{Operation: "load", Key: AuthDetailsKey, Backend: s.Backend(), Message: "invalid credentials", Cause: fmt.Errorf("%w: %w", ErrInvalidCredential, err)}
	}
	return &cred, nil
}

// Save persists cred. Incomplete credentials are refused.
func (s *CredentialStore) Save(ctx context.Context, cred *Credential) error {
	if !cred.Complete() {
		return &sdk.StoreError{Operation: "save", Key: AuthDetailsKey, Backend: s.Backend(), Message: "refusing to persist incomplete credential"}
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return &sdk.StoreError{Operation: "save", Key: AuthDetailsKey, Backend: s.Backend(), Cause: err}
	}
	if err := s.kv.Set(ctx, AuthDetailsKey, string(data)); err != nil {
		return &sdk.StoreError{Operation: "save", Key: AuthDetailsKey, Backend: s.Backend(), Cause: err}
	}
	return nil
}

// Delete removes the persisted Credential. Deleting nothing succeeds.
func (s *CredentialStore) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, AuthDetailsKey); err != nil {
		return &sdk.StoreError{Operation: "delete", Key: AuthDetailsKey, Backend: s.Backend(), Cause: err}
	}
	return nil
}
