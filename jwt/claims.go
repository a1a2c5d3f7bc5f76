package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set carried by every session token.
//
// Registered claims map to the wire keys sub, iss, iat, exp and jti. Email
// is a denormalized copy of the principal email.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim.
func (c *Claims) TokenID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// IssuedAtTime returns the iat claim and whether it was present.
func (c *Claims) IssuedAtTime() (time.Time, bool) {
	if c == nil || c.IssuedAt == nil {
		return time.Time{}, false
	}
	return c.IssuedAt.Time, true
}

// ExpiresAtTime returns the exp claim and whether it was present.
func (c *Claims) ExpiresAtTime() (time.Time, bool) {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}
