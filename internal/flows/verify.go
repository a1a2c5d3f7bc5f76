package flows

import (
	"context"
	"errors"
	"time"

	"github.com/teamer-dev/authsession/jwt"
)

// VerifyMode selects the expiry formula.
type VerifyMode int

const (
	// VerifyNormal checks the embedded exp claim.
	VerifyNormal VerifyMode = iota
	// VerifyRefresh checks iat plus the refreshable duration.
	VerifyRefresh
)

func (m VerifyMode) String() string {
	if m == VerifyRefresh {
		return "refresh"
	}
	return "normal"
}

// VerifyFailureKind classifies verification failures.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureEmpty
	VerifyFailureMalformed
	VerifyFailureSignature
	VerifyFailureExpired
	VerifyFailureRevoked
	VerifyFailureStore
)

var errMissingClaim = errors.New("missing required claim")

// VerifyDeps captures verification dependencies.
type VerifyDeps struct {
	Decode              func(string) (*jwt.Parsed, error)
	VerifySignature     func(*jwt.Parsed) bool
	Now                 func() time.Time
	RefreshableDuration time.Duration
	Revocations         RevocationStore
}

// VerifyResult carries the verified claims or the failure metadata.
type VerifyResult struct {
	Failure         VerifyFailureKind
	Err             error
	Claims          *jwt.Claims
	EffectiveExpiry time.Time
}

// OK reports whether verification succeeded.
func (r VerifyResult) OK() bool {
	return r.Failure == VerifyFailureNone
}

// RunVerify checks structure, signature, time window and revocation, in
// that order, stopping at the first failure.
func RunVerify(ctx context.Context, token string, mode VerifyMode, deps VerifyDeps) VerifyResult {
	if token == "" {
		return VerifyResult{Failure: VerifyFailureEmpty}
	}

	parsed, err := deps.Decode(token)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureMalformed, Err: err}
	}
	if !deps.VerifySignature(parsed) {
		return VerifyResult{Failure: VerifyFailureSignature, Err: jwt.ErrSignatureInvalid}
	}

	claims := parsed.Claims
	expiry, ok := EffectiveExpiry(claims, mode, deps.RefreshableDuration)
	if !ok || claims.TokenID() == "" || claims.Subject == "" {
		return VerifyResult{Failure: VerifyFailureMalformed, Err: errMissingClaim, Claims: claims}
	}
	if !deps.Now().Before(expiry) {
		return VerifyResult{Failure: VerifyFailureExpired, Claims: claims, EffectiveExpiry: expiry}
	}

	revoked, err := deps.Revocations.Contains(ctx, claims.TokenID())
	if err != nil {
		return VerifyResult{Failure: VerifyFailureStore, Err: err, Claims: claims, EffectiveExpiry: expiry}
	}
	if revoked {
		return VerifyResult{Failure: VerifyFailureRevoked, Claims: claims, EffectiveExpiry: expiry}
	}

	return VerifyResult{Claims: claims, EffectiveExpiry: expiry}
}

// EffectiveExpiry returns the expiry used for mode. NORMAL uses exp; REFRESH
// uses iat plus refreshable and ignores exp.
func EffectiveExpiry(claims *jwt.Claims, mode VerifyMode, refreshable time.Duration) (time.Time, bool) {
	if mode == VerifyRefresh {
		iat, ok := claims.IssuedAtTime()
		if !ok {
			return time.Time{}, false
		}
		return iat.Add(refreshable), true
	}
	return claims.ExpiresAtTime()
}

// RetainUntil is how long a revocation record for claims must be kept: the
// later of the two windows in which the token could still verify.
func RetainUntil(claims *jwt.Claims, refreshable time.Duration) time.Time {
	normal, _ := EffectiveExpiry(claims, VerifyNormal, refreshable)
	refresh, _ := EffectiveExpiry(claims, VerifyRefresh, refreshable)
	if refresh.After(normal) {
		return refresh
	}
	return normal
}
