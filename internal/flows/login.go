package flows

import (
	"context"

	"github.com/teamer-dev/authsession/jwt"
)

// LoginFailureKind classifies login failures.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureCredentials
	LoginFailureIssue
)

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	ClientIP func(context.Context) string

	// Rate limit hooks are optional; nil disables throttling.
	CheckLoginRate     func(ctx context.Context, identifier, ip string) error
	IncrementLoginRate func(ctx context.Context, identifier, ip string) error
	ResetLoginRate     func(ctx context.Context, identifier, ip string) error

	Authenticate func(ctx context.Context, identifier, password string) (id, email string, err error)
	Issue        func(subject, email string) (string, *jwt.Claims, error)
	Warn         func(msg string, err error)
}

// LoginResult carries the issued token or failure metadata.
type LoginResult struct {
	Failure     LoginFailureKind
	Err         error
	PrincipalID string
	Email       string
	Token       string
	Claims      *jwt.Claims
}

// RunLogin checks credentials through the principal store and issues a token.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) LoginResult {
	ip := ""
	if deps.ClientIP != nil {
		ip = deps.ClientIP(ctx)
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, identifier, ip); err != nil {
			return LoginResult{Failure: LoginFailureRateLimited, Err: err}
		}
	}

	if identifier == "" || password == "" {
		return loginCredentialFailure(ctx, identifier, ip, nil, deps)
	}

	id, email, err := deps.Authenticate(ctx, identifier, password)
	if err != nil || id == "" {
		return loginCredentialFailure(ctx, identifier, ip, err, deps)
	}

	token, claims, err := deps.Issue(id, email)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, PrincipalID: id}
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, identifier, ip); err != nil && deps.Warn != nil {
			deps.Warn("login rate counter reset failed", err)
		}
	}

	return LoginResult{
		PrincipalID: id,
		Email:       email,
		Token:       token,
		Claims:      claims,
	}
}

func loginCredentialFailure(ctx context.Context, identifier, ip string, cause error, deps LoginDeps) LoginResult {
	if deps.IncrementLoginRate != nil {
		if err := deps.IncrementLoginRate(ctx, identifier, ip); err != nil {
			return LoginResult{Failure: LoginFailureRateLimited, Err: err}
		}
	}
	return LoginResult{Failure: LoginFailureCredentials, Err: cause}
}
