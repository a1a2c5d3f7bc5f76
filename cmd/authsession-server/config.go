package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvRedisAddr overrides redis.addr.
const EnvRedisAddr = "AUTHSESSION_REDIS_ADDR"

// serverConfig is the part of the configuration file only the binary reads.
// The engine settings in the same file are loaded by authsession.LoadConfig.
type serverConfig struct {
	HTTP       httpConfig       `yaml:"http"`
	Redis      redisConfig      `yaml:"redis"`
	Principals principalsConfig `yaml:"principals"`
}

type httpConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type redisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type principalsConfig struct {
	SQLitePath string     `yaml:"sqlite_path"`
	Seed       []seedUser `yaml:"seed"`
}

type seedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		HTTP: httpConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
	}
}

func loadServerConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return serverConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return serverConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		cfg.Redis.Addr = addr
	}

	return cfg, cfg.validate()
}

func (c serverConfig) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http.shutdown_timeout must be > 0")
	}
	for i, u := range c.Principals.Seed {
		if (u.Email == "" && u.Name == "") || u.Password == "" {
			return fmt.Errorf("principals.seed[%d] needs a password and an email or name", i)
		}
	}
	return nil
}
