package flows

import (
	"context"
)

// LogoutFailureKind classifies logout failures.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureVerify
	LogoutFailureAlreadyRevoked
	LogoutFailureStore
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Verify      VerifyDeps
	Revocations RevocationStore
}

// LogoutResult carries the revoked token id or failure metadata.
type LogoutResult struct {
	Failure LogoutFailureKind
	Verify  VerifyResult
	Err     error
}

// RunLogout verifies token in NORMAL mode and then revokes its jti.
//
// A concurrent logout of the same token that loses the write reports
// LogoutFailureAlreadyRevoked, so a token is logged out by exactly one call.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) LogoutResult {
	verified := RunVerify(ctx, token, VerifyNormal, deps.Verify)
	if !verified.OK() {
		return LogoutResult{Failure: LogoutFailureVerify, Verify: verified, Err: verified.Err}
	}

	claims := verified.Claims
	created, err := deps.Revocations.PutIfAbsent(ctx, claims.TokenID(), RetainUntil(claims, deps.Verify.RefreshableDuration))
	if err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Verify: verified, Err: err}
	}
	if !created {
		return LogoutResult{Failure: LogoutFailureAlreadyRevoked, Verify: verified}
	}

	return LogoutResult{Verify: verified}
}
