package authsession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/teamer-dev/authsession/internal/audit"
	"github.com/teamer-dev/authsession/internal/flows"
	"github.com/teamer-dev/authsession/internal/logging"
	"github.com/teamer-dev/authsession/internal/rate"
	"github.com/teamer-dev/authsession/jwt"
	"github.com/teamer-dev/authsession/revocation"
)

// Engine runs the session lifecycle. It is immutable after Build and safe
// for concurrent use.
type Engine struct {
	config     Config
	codec      *jwt.Codec
	issuer     *jwt.Issuer
	store      revocation.ConditionalStore
	storeName  string
	principals PrincipalStore
	limiter    *rate.Limiter
	audit      *audit.Dispatcher
	metrics    *Metrics
	logger     zerolog.Logger
	clock      Clock
	owned      []io.Closer

	deps flows.Deps
}

func (e *Engine) initFlowDeps() {
	verify := flows.VerifyDeps{
		Decode:              e.codec.Decode,
		VerifySignature:     e.codec.VerifySignature,
		Now:                 e.clock.Now,
		RefreshableDuration: e.config.Token.RefreshableDuration,
		Revocations:         e.store,
	}
	issue := func(subject, email string) (string, *jwt.Claims, error) {
		return e.issuer.Issue(subject, email, e.config.Token.ValidDuration)
	}

	login := flows.LoginDeps{
		ClientIP: clientIPFromContext,
		Authenticate: func(ctx context.Context, identifier, password string) (string, string, error) {
			p, err := e.principals.Authenticate(ctx, identifier, password)
			if err != nil {
				return "", "", err
			}
			return p.ID, p.Email, nil
		},
		Issue: issue,
		Warn: func(msg string, err error) {
			e.logger.Warn().Err(err).Str("op", "login").Msg(msg)
		},
	}
	if e.limiter != nil {
		login.CheckLoginRate = e.limiter.CheckLogin
		login.IncrementLoginRate = e.limiter.IncrementLogin
		login.ResetLoginRate = e.limiter.ResetLogin
	}

	e.deps = flows.Deps{
		Verify: verify,
		Login:  login,
		Logout: flows.LogoutDeps{
			Verify:      verify,
			Revocations: e.store,
		},
		Refresh: flows.RefreshDeps{
			Verify:      verify,
			Revocations: e.store,
			ResolvePrincipal: func(ctx context.Context, id string) (string, error) {
				p, err := e.principals.GetPrincipalByID(ctx, id)
				if err != nil {
					return "", err
				}
				if p.ID != id {
					return "", ErrPrincipalNotFound
				}
				return p.Email, nil
			},
			Issue: issue,
		},
	}
}

// Close stops the audit dispatcher and releases stores the Engine created.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	for _, c := range e.owned {
		_ = c.Close()
	}
}

// Login checks credentials and issues a token.
//
// Bad credentials, unknown identifiers and principal store failures all
// return an error matching ErrUnauthenticated. A spent attempt budget
// returns ErrLoginRateLimited.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if e == nil || e.principals == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, identifier, password, e.deps.Login)

	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureRateLimited:
		if errors.Is(res.Err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitRateLimit(ctx, "login")
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, nil)
			return nil, ErrLoginRateLimited
		}
		e.warn(ctx, "login", "rate limiter unavailable", res.Err)
		e.metricInc(MetricLoginFailure)
		err := fmt.Errorf("%w: %w", ErrUnauthenticated, res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, nil)
		return nil, err
	case flows.LoginFailureCredentials:
		if res.Err != nil && !errors.Is(res.Err, ErrInvalidCredentials) && !errors.Is(res.Err, ErrPrincipalNotFound) {
			e.warn(ctx, "login", "principal lookup failed", res.Err)
		}
		e.metricInc(MetricLoginFailure)
		err := fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidCredentials)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, nil)
		return nil, err
	default:
		e.logger.Error().Err(res.Err).Str("op", "login").Msg("token issue failed")
		e.metricInc(MetricLoginFailure)
		err := fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.PrincipalID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.PrincipalID, res.Claims.TokenID(), nil, nil)

	return &LoginResult{
		Token:     res.Token,
		Principal: Principal{ID: res.PrincipalID, Email: res.Email},
		ExpiresAt: res.Claims.ExpiresAt.Time,
	}, nil
}

// Verify checks token in NORMAL mode and returns its claims.
func (e *Engine) Verify(ctx context.Context, token string) (*Claims, error) {
	return e.VerifyToken(ctx, token, ModeNormal)
}

// VerifyToken checks token under the given expiry mode. Every failure
// matches ErrUnauthenticated; TokenErrorKindOf exposes the reason.
func (e *Engine) VerifyToken(ctx context.Context, token string, mode VerifyMode) (*Claims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := flows.RunVerify(ctx, token, flowMode(mode), e.deps.Verify)
	e.metrics.Observe(MetricVerifyLatency, time.Since(start))

	if !res.OK() {
		e.metricInc(MetricVerifyFailure)
		e.recordVerifyFailure(ctx, "verify", res)
		return nil, verifyError(res)
	}

	e.metricInc(MetricVerifySuccess)
	return res.Claims, nil
}

// Logout revokes token. The token must verify in NORMAL mode, so a second
// logout of the same token fails with ErrUnauthenticated.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, token, e.deps.Logout)

	var principalID, tokenID string
	if res.Verify.Claims != nil {
		principalID = res.Verify.Claims.Subject
		tokenID = res.Verify.Claims.TokenID()
	}

	var err error
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogoutSuccess)
		e.emitAudit(ctx, auditEventLogoutSuccess, true, principalID, tokenID, nil, nil)
		return nil
	case flows.LogoutFailureVerify:
		e.recordVerifyFailure(ctx, "logout", res.Verify)
		err = verifyError(res.Verify)
	case flows.LogoutFailureAlreadyRevoked:
		e.metricInc(MetricVerifyRejectedRevoked)
		err = tokenError(TokenRevoked, nil)
	default:
		e.metricInc(MetricRevocationStoreError)
		e.warn(ctx, "logout", "revocation write failed", res.Err)
		err = fmt.Errorf("%w: %v", ErrRevocationFailed, res.Err)
	}

	e.metricInc(MetricLogoutFailure)
	e.emitAudit(ctx, auditEventLogoutFailure, false, principalID, tokenID, err, nil)
	return err
}

// Refresh rotates token. It verifies in REFRESH mode, revokes the old jti
// and only then resolves the principal by subject id and issues a new
// token. If anything after the revocation fails, the old token stays
// revoked.
func (e *Engine) Refresh(ctx context.Context, token string) (*LoginResult, error) {
	if e == nil || e.principals == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, token, e.deps.Refresh)

	var oldID string
	if res.Verify.Claims != nil {
		oldID = res.Verify.Claims.TokenID()
	}

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.PrincipalID, res.Claims.TokenID(), nil, func() map[string]string {
			return map[string]string{"previous_token_id": oldID}
		})
		return &LoginResult{
			Token:     res.Token,
			Principal: Principal{ID: res.PrincipalID, Email: res.Email},
			ExpiresAt: res.Claims.ExpiresAt.Time,
		}, nil
	case flows.RefreshFailureVerify:
		e.recordVerifyFailure(ctx, "refresh", res.Verify)
		err = verifyError(res.Verify)
	case flows.RefreshFailureReuse:
		e.metricInc(MetricRefreshReuseDetected)
		err = tokenError(TokenReused, nil)
		e.emitAudit(ctx, auditEventRefreshReuse, false, res.PrincipalID, oldID, err, nil)
	case flows.RefreshFailureRevoke:
		e.metricInc(MetricRevocationStoreError)
		e.warn(ctx, "refresh", "revocation write failed", res.Err)
		err = fmt.Errorf("%w: %v", ErrRevocationFailed, res.Err)
	case flows.RefreshFailurePrincipal:
		if !errors.Is(res.Err, ErrPrincipalNotFound) {
			e.warn(ctx, "refresh", "principal lookup failed", res.Err)
		}
		err = fmt.Errorf("%w: %w", ErrUnauthenticated, res.Err)
	default:
		e.logger.Error().Err(res.Err).Str("op", "refresh").Msg("token issue failed")
		err = fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
	}

	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshFailure, false, res.PrincipalID, oldID, err, nil)
	return nil, err
}

// Introspect reports whether token verifies in NORMAL mode. It never
// returns an error and never panics.
func (e *Engine) Introspect(ctx context.Context, token string) IntrospectResult {
	if e == nil {
		return IntrospectResult{}
	}

	valid := flows.RunIntrospect(ctx, token, e.deps.Verify)
	if valid {
		e.metricInc(MetricIntrospectValid)
	} else {
		e.metricInc(MetricIntrospectInvalid)
	}
	return IntrospectResult{Valid: valid}
}

// MetricsSnapshot copies the current counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(ctx context.Context, op, msg string, err error) {
	logging.WithTrace(ctx, e.logger.Warn()).Err(err).Str("op", op).Msg(msg)
}

func (e *Engine) recordVerifyFailure(ctx context.Context, op string, res flows.VerifyResult) {
	switch res.Failure {
	case flows.VerifyFailureEmpty, flows.VerifyFailureMalformed:
		e.metricInc(MetricVerifyRejectedMalformed)
	case flows.VerifyFailureSignature:
		e.metricInc(MetricVerifyRejectedSignature)
	case flows.VerifyFailureExpired:
		e.metricInc(MetricVerifyRejectedExpired)
	case flows.VerifyFailureRevoked:
		e.metricInc(MetricVerifyRejectedRevoked)
	case flows.VerifyFailureStore:
		e.metricInc(MetricRevocationStoreError)
		e.warn(ctx, op, "revocation lookup failed", res.Err)
	}
}

func verifyError(res flows.VerifyResult) error {
	var kind TokenErrorKind
	switch res.Failure {
	case flows.VerifyFailureEmpty:
		kind = TokenEmpty
	case flows.VerifyFailureMalformed:
		kind = TokenMalformed
	case flows.VerifyFailureSignature:
		kind = TokenSignatureInvalid
	case flows.VerifyFailureExpired:
		kind = TokenExpired
	case flows.VerifyFailureRevoked:
		kind = TokenRevoked
	default:
		kind = TokenStoreUnavailable
	}
	return tokenError(kind, res.Err)
}

func flowMode(m VerifyMode) flows.VerifyMode {
	if m == ModeRefresh {
		return flows.VerifyRefresh
	}
	return flows.VerifyNormal
}
