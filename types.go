package authsession

import (
	"context"
	"time"

	"github.com/teamer-dev/authsession/jwt"
)

// Claims is the verified claim set of a session token.
type Claims = jwt.Claims

// VerifyMode selects which expiry formula Verify applies.
type VerifyMode int

const (
	// ModeNormal checks the exp claim.
	ModeNormal VerifyMode = iota
	// ModeRefresh checks iat plus the refreshable duration.
	ModeRefresh
)

func (m VerifyMode) String() string {
	if m == ModeRefresh {
		return "refresh"
	}
	return "normal"
}

// Principal is the authenticated subject a token is bound to.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// PrincipalStore resolves principals for login and refresh.
//
// Authenticate returns an error for any credential mismatch. Implementations
// should not reveal whether the identifier exists.
type PrincipalStore interface {
	Authenticate(ctx context.Context, identifier, password string) (Principal, error)
	GetPrincipalByID(ctx context.Context, id string) (Principal, error)
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	Token     string    `json:"token"`
	Principal Principal `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IntrospectResult reports whether a token is currently valid.
type IntrospectResult struct {
	Valid bool `json:"valid"`
}

// Clock supplies the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
