// Package sdk provides core SDK interfaces shared by the session and the request gateway.
package sdk

import "context"

// TokenSource provides access tokens for API authentication.
type TokenSource interface {
	// Token returns the current access token, or "" when logged out.
	Token(ctx context.Context) (string, error)

	// RefreshStale renews the session after the server rejected the token
	// `used`. If the held token already differs from `used`, it is returned
	// without another refresh. An empty result means the session is gone.
	RefreshStale(ctx context.Context, used string) (string, error)
}

// StaticTokenSource provides a fixed token. Useful for testing.
type StaticTokenSource struct {
	AccessToken string
}

// Token returns the static token.
func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	return s.AccessToken, nil
}

// RefreshStale returns "" so the caller reports the request as unauthenticated.
func (s *StaticTokenSource) RefreshStale(ctx context.Context, used string) (string, error) {
	return "", nil
}
