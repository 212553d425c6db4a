package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the token triple issued by the authentication endpoints.
// It is replaced wholesale on login and refresh, never mutated in place.
type Credential struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_auth_token"`
	DeviceToken  string `json:"device_token"`
}

// Complete reports whether all three tokens are present.
func (c *Credential) Complete() bool {
	return c != nil && c.AuthToken != "" && c.RefreshToken != "" && c.DeviceToken != ""
}

// Equal compares two credentials field by field. Two nil credentials are equal.
func (c *Credential) Equal(o *Credential) bool {
	if c == nil || o == nil {
		return c == o
	}
	return *c == *o
}

// ExpiresAt returns the access token's exp claim when the token is a JWT.
// The signature is not verified; the value is for display only.
func (c *Credential) ExpiresAt() (time.Time, bool) {
	if c == nil || c.AuthToken == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(c.AuthToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Redacted returns a copy safe for display: each token is cut to a short prefix.
func (c *Credential) Redacted() Credential {
	if c == nil {
		return Credential{}
	}
	return Credential{
		AuthToken:    redact(c.AuthToken),
		RefreshToken: redact(c.RefreshToken),
		DeviceToken:  redact(c.DeviceToken),
	}
}

func redact(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:6] + "…"
}
