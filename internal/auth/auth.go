// Package auth owns the Okto session: login, refresh, logout and the
// persisted credential triple.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oktotech/okto-go/internal/sdk"
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// Authentication endpoints, relative to the environment base URL.
const (
	PathAuthenticate    = "/api/v1/authenticate"
	PathJWTAuthenticate = "/api/v1/jwt-authenticate"
	PathRefreshToken    = "/api/v1/refresh_token"
)

// Session holds the in-memory Credential and is the only writer of it.
// Logged in is derived from credential presence, never stored separately.
type Session struct {
	store      *CredentialStore
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	logger     *slog.Logger
	onRefresh  func(time.Duration, error)

	// persistMu is held across a credential swap and the matching store
	// write, so the stored record always ends up matching s.cred.
	// Lock order: persistMu, then mu.
	persistMu sync.Mutex
	mu        sync.RWMutex
	cred      *Credential

	// refreshMu serializes refresh network calls; flights coalesces callers
	// that observed the same stale token.
	refreshMu sync.Mutex
	flights   singleflight.Group

	obsMu     sync.Mutex
	observers map[uint64]func(SessionEvent)
	nextObs   uint64
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the client used for authentication calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.httpClient = c }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header on authentication calls.
func WithUserAgent(ua string) Option {
	return func(s *Session) { s.userAgent = ua }
}

// WithRefreshHook is called after every refresh network call.
func WithRefreshHook(fn func(time.Duration, error)) Option {
	return func(s *Session) { s.onRefresh = fn }
}

// NewSession creates a logged-out session. Call Restore to pick up a
// previously persisted credential.
func NewSession(baseURL, apiKey string, store *CredentialStore, opts ...Option) *Session {
	s := &Session{
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     slog.New(slog.DiscardHandler),
		observers:  make(map[uint64]func(SessionEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a copy of the held credential, or nil when logged out.
func (s *Session) Current() *Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil
	}
	c := *s.cred
	return &c
}

// IsLoggedIn reports whether a credential is held.
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

// Token returns the current access token, or "" when logged out.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return "", nil
	}
	return s.cred.AuthToken, nil
}

// Login exchanges a Google id token for a credential.
func (s *Session) Login(ctx context.Context, idToken string) (*Credential, error) {
	if idToken == "" {
		return nil, sdkerrors.ErrUsage("id token is required")
	}
	return s.authenticate(ctx, PathAuthenticate, map[string]string{"id_token": idToken})
}

// LoginWithUserID exchanges a partner user id and JWT for a credential.
func (s *Session) LoginWithUserID(ctx context.Context, userID, jwtToken string) (*Credential, error) {
	if userID == "" || jwtToken == "" {
		return nil, sdkerrors.ErrUsage("user id and jwt token are required")
	}
	return s.authenticate(ctx, PathJWTAuthenticate, map[string]string{
		"user_id":    userID,
		"auth_token": jwtToken,
	})
}

// Adopt installs a credential obtained outside the session, such as the
// auth_success message from the hosted onboarding flow.
func (s *Session) Adopt(ctx context.Context, cred *Credential) error {
	if !cred.Complete() {
		return sdkerrors.ErrLogin(fmt.Errorf("incomplete credential"))
	}
	c := *cred
	s.install(ctx, &c, nil, EventLoggedIn, "adopt")
	return nil
}

func (s *Session) authenticate(ctx context.Context, path string, payload any) (*Credential, error) {
	resp, err := s.post(ctx, path, payload, nil)
	if err != nil {
		return nil, sdkerrors.ErrLogin(err)
	}
	if !resp.OK() {
		return nil, sdkerrors.ErrLogin(sdkerrors.ErrServer(resp.Status))
	}
	cred := resp.Data
	if !cred.Complete() {
		return nil, sdkerrors.ErrLogin(fmt.Errorf("server returned an incomplete credential"))
	}

	s.install(ctx, &cred, nil, EventLoggedIn, "login")
	s.logger.Info("logged in", "endpoint", path)
	out := cred
	return &out, nil
}

// Refresh renews the held credential. It returns nil, nil when logged out.
// On failure the session is cleared and a refresh error returned.
func (s *Session) Refresh(ctx context.Context) (*Credential, error) {
	s.mu.RLock()
	cur := s.cred
	s.mu.RUnlock()
	if cur == nil {
		return nil, nil
	}
	return s.refreshShared(ctx, cur.AuthToken)
}

// RefreshStale renews the session after the server rejected the access token
// `used`. Callers holding the same stale token share one refresh; a caller
// whose token was already replaced gets the new one without a network call.
func (s *Session) RefreshStale(ctx context.Context, used string) (string, error) {
	cred, err := s.refreshShared(ctx, used)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", nil
	}
	return cred.AuthToken, nil
}

func (s *Session) refreshShared(ctx context.Context, used string) (*Credential, error) {
	// The shared refresh outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(used, func() (any, error) {
		return s.doRefresh(shared, used)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		cred, _ := r.Val.(*Credential)
		if cred == nil {
			return nil, nil
		}
		c := *cred
		return &c, nil
	}
}

func (s *Session) doRefresh(ctx context.Context, used string) (*Credential, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	snap := s.cred
	s.mu.RUnlock()
	if snap == nil {
		return nil, nil
	}
	if snap.AuthToken != used {
		return snap, nil
	}

	start := time.Now()
	cred, err := s.requestRefresh(ctx, snap)
	if s.onRefresh != nil {
		s.onRefresh(time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("refresh failed, logging out", "error", err)
		s.clear(ctx, snap, "refresh_failed")
		return nil, sdkerrors.ErrRefresh(err)
	}

	if !s.install(ctx, cred, snap, EventRefreshed, "refresh") {
		// Logged out or replaced while the refresh was in flight.
		return s.Current(), nil
	}
	s.logger.Info("session refreshed")
	return cred, nil
}

func (s *Session) requestRefresh(ctx context.Context, cur *Credential) (*Credential, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+cur.AuthToken)
	headers.Set("x-refresh-authorization", "Bearer "+cur.RefreshToken)
	headers.Set("x-device-token", cur.DeviceToken)

	resp, err := s.post(ctx, PathRefreshToken, struct{}{}, headers)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, sdkerrors.ErrServer(resp.Status)
	}
	cred := resp.Data
	if !cred.Complete() {
		return nil, fmt.Errorf("server returned an incomplete credential")
	}
	return &cred, nil
}

// Logout clears the held and persisted credential. It is idempotent.
func (s *Session) Logout(ctx context.Context) error {
	s.persistMu.Lock()
	s.mu.Lock()
	prev := s.cred
	s.cred = nil
	s.mu.Unlock()

	err := s.store.Delete(ctx)
	s.persistMu.Unlock()

	if prev != nil {
		s.logger.Info("logged out")
		s.notify(SessionEvent{Kind: EventLoggedOut, Reason: "logout", At: time.Now()})
	}
	return err
}

// Restore loads the persisted credential into memory. Incomplete or
// undecodable records are discarded. It also serves as a reload when another
// process rewrote the store.
func (s *Session) Restore(ctx context.Context) error {
	s.persistMu.Lock()
	cred, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, ErrInvalidCredential):
		s.logger.Warn("discarding unreadable stored credential", "error", err)
		_ = s.store.Delete(ctx)
		cred = nil
	case err != nil:
		s.persistMu.Unlock()
		return err
	case cred != nil && !cred.Complete():
		s.logger.Warn("discarding incomplete stored credential")
		_ = s.store.Delete(ctx)
		cred = nil
	}

	s.mu.Lock()
	prev := s.cred
	if prev.Equal(cred) {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return nil
	}
	s.cred = cred
	s.mu.Unlock()
	s.persistMu.Unlock()

	ev := SessionEvent{Reason: "store", At: time.Now()}
	switch {
	case prev == nil:
		ev.Kind = EventLoggedIn
	case cred == nil:
		ev.Kind = EventLoggedOut
	default:
		ev.Kind = EventRefreshed
	}
	s.notify(ev)
	return nil
}

// install replaces the held credential and persists it. When expect is
// non-nil the swap only happens if the held credential is still expect.
// A persistence failure is logged; the in-memory session stays valid.
func (s *Session) install(ctx context.Context, cred, expect *Credential, kind EventKind, reason string) bool {
	s.persistMu.Lock()
	s.mu.Lock()
	if expect != nil && s.cred != expect {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return false
	}
	s.cred = cred
	s.mu.Unlock()

	if err := s.store.Save(ctx, cred); err != nil {
		s.logger.Warn("failed to persist credential", "error", err)
	}
	s.persistMu.Unlock()
	s.notify(SessionEvent{Kind: kind, Reason: reason, At: time.Now()})
	return true
}

// clear drops the held credential if it is still snap.
func (s *Session) clear(ctx context.Context, snap *Credential, reason string) {
	s.persistMu.Lock()
	s.mu.Lock()
	if s.cred != snap {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return
	}
	s.cred = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx); err != nil {
		s.logger.Warn("failed to delete stored credential", "error", err)
	}
	s.persistMu.Unlock()
	s.notify(SessionEvent{Kind: EventLoggedOut, Reason: reason, At: time.Now()})
}

func (s *Session) post(ctx context.Context, path string, payload any, headers http.Header) (*sdk.Envelope[Credential], error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, sdkerrors.ErrNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if len(snippet) > 0 {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		}
		return nil, sdkerrors.ErrTransport(resp.StatusCode, msg)
	}

	var env sdk.Envelope[Credential]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, sdkerrors.ErrDecode(err)
	}
	return &env, nil
}
