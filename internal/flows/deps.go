package flows

import (
	"context"
	"time"
)

// RevocationStore is the subset of revocation.ConditionalStore the flows use.
type RevocationStore interface {
	Contains(ctx context.Context, jti string) (bool, error)
	PutIfAbsent(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

// Deps groups flow dependency sets. The engine builds this once at
// construction and passes the matching set to each flow.
type Deps struct {
	Verify  VerifyDeps
	Login   LoginDeps
	Logout  LogoutDeps
	Refresh RefreshDeps
}
