package internaldefs

import (
	"github.com/teamer-dev/authsession"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authsession.MetricLoginSuccess, Name: "authsession_login_success_total", Help: "Successful logins."},
	{ID: authsession.MetricLoginFailure, Name: "authsession_login_failure_total", Help: "Failed logins."},
	{ID: authsession.MetricLoginRateLimited, Name: "authsession_login_rate_limited_total", Help: "Logins rejected by the rate limiter."},
	{ID: authsession.MetricLogoutSuccess, Name: "authsession_logout_success_total", Help: "Tokens revoked by logout."},
	{ID: authsession.MetricLogoutFailure, Name: "authsession_logout_failure_total", Help: "Rejected logout attempts."},
	{ID: authsession.MetricRefreshSuccess, Name: "authsession_refresh_success_total", Help: "Tokens rotated by refresh."},
	{ID: authsession.MetricRefreshFailure, Name: "authsession_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: authsession.MetricRefreshReuseDetected, Name: "authsession_refresh_reuse_detected_total", Help: "Refresh attempts that lost the revocation write."},
	{ID: authsession.MetricVerifySuccess, Name: "authsession_verify_success_total", Help: "Successful NORMAL mode verifications."},
	{ID: authsession.MetricVerifyFailure, Name: "authsession_verify_failure_total", Help: "Failed NORMAL mode verifications."},
	{ID: authsession.MetricVerifyRejectedMalformed, Name: "authsession_verify_rejected_malformed_total", Help: "Tokens rejected as empty or malformed."},
	{ID: authsession.MetricVerifyRejectedSignature, Name: "authsession_verify_rejected_signature_total", Help: "Tokens rejected for a bad signature."},
	{ID: authsession.MetricVerifyRejectedExpired, Name: "authsession_verify_rejected_expired_total", Help: "Tokens rejected as expired."},
	{ID: authsession.MetricVerifyRejectedRevoked, Name: "authsession_verify_rejected_revoked_total", Help: "Tokens rejected as revoked."},
	{ID: authsession.MetricRevocationStoreError, Name: "authsession_revocation_store_error_total", Help: "Revocation store failures."},
	{ID: authsession.MetricIntrospectValid, Name: "authsession_introspect_valid_total", Help: "Introspections reporting a valid token."},
	{ID: authsession.MetricIntrospectInvalid, Name: "authsession_introspect_invalid_total", Help: "Introspections reporting an invalid token."},
	{ID: authsession.MetricRateLimitHit, Name: "authsession_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

var HistogramDefs = []HistogramDef{
	{ID: authsession.MetricVerifyLatency, Name: "authsession_verify_latency_seconds", Help: "Verify latency histogram."},
}

var HistogramBounds = []string{
	"0.001",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_001",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"inf",
}

// NormalizeBuckets copies up to eight raw buckets into a fixed array.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
