package authsession

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated is the single externally visible verification failure.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is wrapped into ErrUnauthenticated on failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the login attempt budget is spent.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrRevocationFailed reports a revocation store write failure during
	// logout or refresh.
	ErrRevocationFailed = errors.New("revocation failed")
	// ErrPrincipalNotFound is returned by principal stores for unknown ids.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrTokenIssue reports a signing failure.
	ErrTokenIssue = errors.New("token issue failed")
)

// TokenErrorKind classifies why a token was rejected.
type TokenErrorKind int

const (
	TokenEmpty TokenErrorKind = iota + 1
	TokenMalformed
	TokenSignatureInvalid
	TokenExpired
	TokenRevoked
	TokenStoreUnavailable
	TokenReused
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenEmpty:
		return "empty"
	case TokenMalformed:
		return "malformed"
	case TokenSignatureInvalid:
		return "signature_invalid"
	case TokenExpired:
		return "expired"
	case TokenRevoked:
		return "revoked"
	case TokenStoreUnavailable:
		return "store_unavailable"
	case TokenReused:
		return "reused"
	default:
		return "unknown"
	}
}

// TokenError carries the internal rejection reason. It always matches
// ErrUnauthenticated under errors.Is, so callers that only need the
// public outcome never see the kind.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	var b strings.Builder
	b.WriteString("unauthenticated: ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

func (e *TokenError) Is(target error) bool {
	return target == ErrUnauthenticated
}

func tokenError(kind TokenErrorKind, err error) error {
	return &TokenError{Kind: kind, Err: err}
}

// TokenErrorKindOf returns the rejection kind carried by err, or zero.
func TokenErrorKindOf(err error) TokenErrorKind {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
