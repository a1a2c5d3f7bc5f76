package revocation

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBackendUnavailable wraps every storage failure.
	ErrBackendUnavailable = errors.New("revocation backend unavailable")
	// ErrInvalidRecord reports an empty jti.
	ErrInvalidRecord = errors.New("invalid revocation record")
)

// Record is a single revocation marker.
type Record struct {
	JTI       string
	ExpiresAt time.Time
}

// Store is the durable set of revoked token identifiers.
type Store interface {
	// Put records jti as revoked until expiresAt. Writing a jti that is
	// already present succeeds without changing the stored record.
	Put(ctx context.Context, jti string, expiresAt time.Time) error
	// Contains reports whether jti has been revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}

// ConditionalStore is a Store that can tell whether a write created the
// record. Callers use it to let exactly one of several concurrent
// revocations of the same token win.
type ConditionalStore interface {
	Store
	PutIfAbsent(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

// Pruner deletes records whose expiry is before now and reports how many
// were removed.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// Conditional returns s as a ConditionalStore. Stores without native
// support fall back to Contains followed by Put, which only resolves
// concurrent writers when a single process owns the store.
func Conditional(s Store) ConditionalStore {
	if cs, ok := s.(ConditionalStore); ok {
		return cs
	}
	return putOnly{s}
}

// IsFallback reports whether cs is the non-atomic adapter returned by
// Conditional for a plain Store.
func IsFallback(cs ConditionalStore) bool {
	_, ok := cs.(putOnly)
	return ok
}

type putOnly struct {
	Store
}

func (p putOnly) PutIfAbsent(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	exists, err := p.Contains(ctx, jti)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := p.Put(ctx, jti, expiresAt); err != nil {
		return false, err
	}
	return true, nil
}
