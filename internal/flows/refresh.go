package flows

import (
	"context"

	"github.com/teamer-dev/authsession/jwt"
)

// RefreshFailureKind classifies refresh flow failures.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureVerify
	RefreshFailureReuse
	RefreshFailureRevoke
	RefreshFailurePrincipal
	RefreshFailureIssue
)

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Verify      VerifyDeps
	Revocations RevocationStore

	// ResolvePrincipal looks the principal up by the signed subject id.
	ResolvePrincipal func(ctx context.Context, id string) (email string, err error)
	Issue            func(subject, email string) (string, *jwt.Claims, error)
}

// RefreshResult carries the replacement token or failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	Verify      VerifyResult
	PrincipalID string
	Email       string
	Token       string
	Claims      *jwt.Claims
}

// RunRefresh verifies token in REFRESH mode, revokes it, then issues a
// replacement for the same subject.
//
// The old jti is durably revoked before the principal lookup and issuance.
// If either of those fails the old token stays revoked.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) RefreshResult {
	verified := RunVerify(ctx, token, VerifyRefresh, deps.Verify)
	if !verified.OK() {
		return RefreshResult{Failure: RefreshFailureVerify, Verify: verified, Err: verified.Err}
	}

	old := verified.Claims
	subject := old.Subject

	created, err := deps.Revocations.PutIfAbsent(ctx, old.TokenID(), RetainUntil(old, deps.Verify.RefreshableDuration))
	if err != nil {
		return RefreshResult{Failure: RefreshFailureRevoke, Err: err, Verify: verified, PrincipalID: subject}
	}
	if !created {
		return RefreshResult{Failure: RefreshFailureReuse, Verify: verified, PrincipalID: subject}
	}

	email, err := deps.ResolvePrincipal(ctx, subject)
	if err != nil {
		return RefreshResult{Failure: RefreshFailurePrincipal, Err: err, Verify: verified, PrincipalID: subject}
	}

	next, claims, err := deps.Issue(subject, email)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Verify: verified, PrincipalID: subject}
	}

	return RefreshResult{
		Verify:      verified,
		PrincipalID: subject,
		Email:       email,
		Token:       next,
		Claims:      claims,
	}
}
