package authsession

import (
	"time"

	"github.com/teamer-dev/authsession/jwt"
	"github.com/teamer-dev/authsession/revocation"
)

// SecurityReport summarizes the effective security posture of an Engine.
// It never includes key material.
type SecurityReport struct {
	SigningAlgorithm    string
	SecretLength        int
	Issuer              string
	ValidDuration       time.Duration
	RefreshableDuration time.Duration
	RevocationStore     string
	AtomicRevocation    bool
	RateLimitingActive  bool
	AuditEnabled        bool
	MetricsEnabled      bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SigningAlgorithm:    jwt.Algorithm,
		SecretLength:        len(e.config.Token.SigningSecret),
		Issuer:              e.config.Token.Issuer,
		ValidDuration:       e.config.Token.ValidDuration,
		RefreshableDuration: e.config.Token.RefreshableDuration,
		RevocationStore:     e.storeName,
		AtomicRevocation:    !revocation.IsFallback(e.store),
		RateLimitingActive:  e.limiter != nil,
		AuditEnabled:        e.audit != nil,
		MetricsEnabled:      e.metrics.Enabled(),
	}
}
