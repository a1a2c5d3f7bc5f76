package authsession

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigNeedsSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without signing secret")
	}
	cfg.Token.SigningSecret = testSecret
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Token.ValidDuration != time.Hour || cfg.Token.RefreshableDuration != 10*time.Hour {
		t.Fatalf("unexpected default lifetimes %v / %v", cfg.Token.ValidDuration, cfg.Token.RefreshableDuration)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.Token.SigningSecret = []byte("short") }},
		{"zero valid duration", func(c *Config) { c.Token.ValidDuration = 0 }},
		{"refreshable below valid", func(c *Config) { c.Token.RefreshableDuration = c.Token.ValidDuration - time.Second }},
		{"empty issuer", func(c *Config) { c.Token.Issuer = " " }},
		{"unknown backend", func(c *Config) { c.Revocation.Backend = "etcd" }},
		{"mongo without uri", func(c *Config) { c.Revocation.Backend = BackendMongo; c.Revocation.MongoURI = "" }},
		{"bad sweep schedule", func(c *Config) { c.Revocation.SweepSchedule = "every now and then" }},
		{"rate limit without budget", func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.MaxLoginAttempts = 0 }},
		{"audit without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsEqualDurations(t *testing.T) {
	cfg := testConfig()
	cfg.Token.RefreshableDuration = cfg.Token.ValidDuration
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBuildCopiesSecret(t *testing.T) {
	cfg := testConfig()
	secret := append([]byte(nil), testSecret...)
	cfg.Token.SigningSecret = secret

	te := newTestEngine(t, func(b *Builder) { b.WithConfig(cfg) })
	token := te.login(t).Token

	for i := range secret {
		secret[i] = 'x'
	}
	if _, err := te.Verify(t.Context(), token); err != nil {
		t.Fatalf("engine must not observe caller mutation: %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authsession.yaml")
	secret := strings.Repeat("y", MinSecretLength)
	body := `
token:
  signing_secret: "` + secret + `"
  issuer: teamer
  valid_duration: 15m
  refreshable_duration: 168h
revocation:
  backend: sqlite
  sqlite_path: /var/lib/authsession/revocations.db
  sweep_schedule: "@every 30m"
rate_limit:
  enabled: true
  max_login_attempts: 7
  login_cooldown: 5m
audit:
  enabled: true
  buffer_size: 64
log:
  level: debug
  pretty: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvSigningSecret, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if string(cfg.Token.SigningSecret) != secret || cfg.Token.Issuer != "teamer" {
		t.Fatalf("token section not loaded: issuer=%q", cfg.Token.Issuer)
	}
	if cfg.Token.ValidDuration != 15*time.Minute || cfg.Token.RefreshableDuration != 168*time.Hour {
		t.Fatalf("durations = %v / %v", cfg.Token.ValidDuration, cfg.Token.RefreshableDuration)
	}
	if cfg.Revocation.Backend != BackendSQLite || cfg.Revocation.SweepSchedule != "@every 30m" {
		t.Fatalf("revocation = %+v", cfg.Revocation)
	}
	if cfg.Revocation.RedisPrefix != "as" {
		t.Fatalf("unset keys must keep defaults, redis prefix = %q", cfg.Revocation.RedisPrefix)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.MaxLoginAttempts != 7 || !cfg.RateLimit.IPThrottle {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigEnvOverridesSecret(t *testing.T) {
	secret := strings.Repeat("e", MinSecretLength)
	t.Setenv(EnvSigningSecret, secret)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if string(cfg.Token.SigningSecret) != secret {
		t.Fatal("env secret not applied")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("token: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSecretDoesNotFormat(t *testing.T) {
	s := Secret(testSecret)
	if got := s.String(); got != "[redacted]" {
		t.Fatalf("String() = %q", got)
	}
}

func TestSecurityReport(t *testing.T) {
	te := newTestEngine(t)
	r := te.SecurityReport()

	if r.SigningAlgorithm != "HS512" || r.SecretLength != len(testSecret) {
		t.Fatalf("unexpected report %+v", r)
	}
	if !r.AtomicRevocation || r.RateLimitingActive {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.RefreshableDuration != testRefreshable {
		t.Fatalf("refreshable = %v", r.RefreshableDuration)
	}
}
