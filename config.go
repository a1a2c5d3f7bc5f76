package authsession

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teamer-dev/authsession/jwt"
	"gopkg.in/yaml.v3"
)

// MinSecretLength is the shortest HS512 signing secret Validate accepts.
const MinSecretLength = 64

// Revocation backends understood by the server binary.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Environment variables consulted by LoadConfig.
const (
	EnvSigningSecret = "AUTHSESSION_SIGNING_SECRET"
	EnvConfigPath    = "AUTHSESSION_CONFIG"
)

// Config is the immutable engine configuration. Build copies it, so later
// changes by the caller have no effect on a running Engine.
type Config struct {
	Token      TokenConfig      `yaml:"token"`
	Revocation RevocationConfig `yaml:"revocation"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// TokenConfig holds the signing secret and the two lifetimes.
type TokenConfig struct {
	SigningSecret       Secret        `yaml:"signing_secret"`
	Issuer              string        `yaml:"issuer"`
	ValidDuration       time.Duration `yaml:"valid_duration"`
	RefreshableDuration time.Duration `yaml:"refreshable_duration"`
}

// Secret holds key material. It formats as a fixed placeholder so it never
// reaches logs through fmt.
type Secret []byte

func (s Secret) String() string {
	if len(s) == 0 {
		return ""
	}
	return "[redacted]"
}

func (s *Secret) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = Secret(raw)
	return nil
}

// RevocationConfig selects and tunes the revocation backend.
type RevocationConfig struct {
	Backend       string `yaml:"backend"`
	RedisPrefix   string `yaml:"redis_prefix"`
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	// SweepSchedule is a cron spec for pruning expired records. Empty
	// disables the sweeper.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// RateLimitConfig controls the Redis login limiter. It needs WithRedis.
type RateLimitConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LoginCooldown    time.Duration `yaml:"login_cooldown"`
	IPThrottle       bool          `yaml:"ip_throttle"`
}

type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"latency_histograms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the defaults: one hour tokens refreshable for ten
// hours, in-memory revocation, hourly sweep. The signing secret is empty
// and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:              jwt.DefaultIssuer,
			ValidDuration:       time.Hour,
			RefreshableDuration: 10 * time.Hour,
		},
		Revocation: RevocationConfig{
			Backend:       BackendMemory,
			RedisPrefix:   "as",
			SQLitePath:    "authsession.db",
			MongoDatabase: "authsession",
			SweepSchedule: "@every 1h",
		},
		RateLimit: RateLimitConfig{
			MaxLoginAttempts: 5,
			LoginCooldown:    15 * time.Minute,
			IPThrottle:       true,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningSecret = cloneBytes(cfg.Token.SigningSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if len(c.Token.SigningSecret) == 0 {
		return errors.New("Token SigningSecret is required")
	}
	if len(c.Token.SigningSecret) < MinSecretLength {
		return fmt.Errorf("Token SigningSecret must be at least %d bytes", MinSecretLength)
	}
	if c.Token.ValidDuration <= 0 {
		return errors.New("Token ValidDuration must be > 0")
	}
	if c.Token.RefreshableDuration < c.Token.ValidDuration {
		return errors.New("Token RefreshableDuration must be >= ValidDuration")
	}
	if strings.TrimSpace(c.Token.Issuer) == "" {
		return errors.New("Token Issuer must not be empty")
	}

	switch c.Revocation.Backend {
	case BackendMemory, BackendRedis:
	case BackendSQLite:
		if c.Revocation.SQLitePath == "" {
			return errors.New("Revocation SQLitePath is required for the sqlite backend")
		}
	case BackendMongo:
		if c.Revocation.MongoURI == "" || c.Revocation.MongoDatabase == "" {
			return errors.New("Revocation MongoURI and MongoDatabase are required for the mongo backend")
		}
	default:
		return fmt.Errorf("Revocation Backend %q is not supported", c.Revocation.Backend)
	}
	if c.Revocation.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.Revocation.SweepSchedule); err != nil {
			return fmt.Errorf("Revocation SweepSchedule is invalid: %w", err)
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldown <= 0 {
			return errors.New("RateLimit LoginCooldown must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig and
// applies environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if secret := os.Getenv(EnvSigningSecret); secret != "" {
		cfg.Token.SigningSecret = Secret(secret)
	}

	return cfg, nil
}
