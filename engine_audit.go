package authsession

import (
	"context"
	"errors"

	"github.com/teamer-dev/authsession/internal/audit"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventLogoutSuccess      = "logout_success"
	auditEventLogoutFailure      = "logout_failure"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshFailure     = "refresh_failure"
	auditEventRefreshReuse       = "refresh_reuse_detected"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// AuditErrorCode is the stable error label written to audit events.
type AuditErrorCode string

const (
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrEmpty              AuditErrorCode = "empty_token"
	auditErrMalformed          AuditErrorCode = "malformed_token"
	auditErrSignature          AuditErrorCode = "signature_invalid"
	auditErrExpired            AuditErrorCode = "expired"
	auditErrRevoked            AuditErrorCode = "revoked"
	auditErrReused             AuditErrorCode = "refresh_reuse"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrPrincipalNotFound  AuditErrorCode = "principal_not_found"
	auditErrIssue              AuditErrorCode = "issue_failed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	tokenID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		Timestamp:   e.clock.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		TokenID:     tokenID,
		IP:          clientIPFromContext(ctx),
		UserAgent:   userAgentFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch TokenErrorKindOf(err) {
	case TokenEmpty:
		return auditErrEmpty
	case TokenMalformed:
		return auditErrMalformed
	case TokenSignatureInvalid:
		return auditErrSignature
	case TokenExpired:
		return auditErrExpired
	case TokenRevoked:
		return auditErrRevoked
	case TokenReused:
		return auditErrReused
	case TokenStoreUnavailable:
		return auditErrUnavailable
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrRevocationFailed):
		return auditErrUnavailable
	case errors.Is(err, ErrPrincipalNotFound):
		return auditErrPrincipalNotFound
	case errors.Is(err, ErrTokenIssue):
		return auditErrIssue
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	default:
		return auditErrInternal
	}
}
