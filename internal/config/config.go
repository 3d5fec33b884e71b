// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres|memory
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

func (c RedisConfig) Enabled() bool { return c.URL != "" }

type AuthConfig struct {
	HMACSecret string `yaml:"hmac_secret"`
	Issuer     string `yaml:"issuer"`
}

type LedgerConfig struct {
	Currency        string `yaml:"currency"`
	Timezone        string `yaml:"timezone"`
	RecordFailures  *bool  `yaml:"record_failures"`
	HistoryLimit    int    `yaml:"history_limit"`
	MaxHistoryLimit int    `yaml:"max_history_limit"`
}

// RecordsFailures reports whether FAILED attempts on identified plans are
// written to the ledger. Defaults to true.
func (c LedgerConfig) RecordsFailures() bool {
	return c.RecordFailures == nil || *c.RecordFailures
}

// Location resolves Timezone; callers get UTC for an empty value.
func (c LedgerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type RateLimitConfig struct {
	Attempts int           `yaml:"attempts"` // PIN attempts per provider per window
	Window   time.Duration `yaml:"window"`
}

type HealthConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

type NotifyConfig struct {
	TelegramToken string  `yaml:"telegram_token"`
	Language      string  `yaml:"language"` // ar|en
	Workers       int     `yaml:"workers"`
	QueueSize     int     `yaml:"queue_size"`
	PerSecond     float64 `yaml:"per_second"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Health    HealthConfig    `yaml:"health"`
	Notify    NotifyConfig    `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

// FromFlags parses -config and -dev and loads the file they point at.
func FromFlags() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return LoadConfig(configPath, dev)
}

// LoadConfig reads the YAML file at path, applies .env and environment
// overrides, fills defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.Database.URL, "DATABASE_URL")
	override(&cfg.Redis.URL, "REDIS_URL")
	override(&cfg.Auth.HMACSecret, "AUTH_HMAC_SECRET")
	override(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN")
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	cfg.HTTP.ReadTimeout = orDuration(cfg.HTTP.ReadTimeout, 10*time.Second)
	cfg.HTTP.WriteTimeout = orDuration(cfg.HTTP.WriteTimeout, 15*time.Second)
	cfg.HTTP.RequestTimeout = orDuration(cfg.HTTP.RequestTimeout, 10*time.Second)
	cfg.HTTP.ShutdownTimeout = orDuration(cfg.HTTP.ShutdownTimeout, 15*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = orDuration(cfg.Redis.TTL, time.Hour)

	if cfg.Ledger.Currency == "" {
		cfg.Ledger.Currency = "EGP"
	}
	cfg.Ledger.Currency = strings.ToUpper(cfg.Ledger.Currency)
	if cfg.Ledger.HistoryLimit <= 0 {
		cfg.Ledger.HistoryLimit = 20
	}
	if cfg.Ledger.MaxHistoryLimit <= 0 {
		cfg.Ledger.MaxHistoryLimit = 100
	}

	if cfg.RateLimit.Attempts <= 0 {
		cfg.RateLimit.Attempts = 30
	}
	cfg.RateLimit.Window = orDuration(cfg.RateLimit.Window, time.Minute)

	cfg.Health.TTL = orDuration(cfg.Health.TTL, 10*time.Second)
	cfg.Health.CheckTimeout = orDuration(cfg.Health.CheckTimeout, 2*time.Second)

	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 100
	}
	if cfg.Notify.Language == "" {
		cfg.Notify.Language = "ar"
	}
	if cfg.Notify.PerSecond <= 0 {
		cfg.Notify.PerSecond = 25
	}
}

// Minimal validation
func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}
	if cfg.Auth.HMACSecret == "" {
		return errors.New("auth.hmac_secret is required")
	}
	if len(cfg.Ledger.Currency) != 3 {
		return fmt.Errorf("ledger.currency %q must be an ISO-4217 code", cfg.Ledger.Currency)
	}
	if _, err := cfg.Ledger.Location(); err != nil {
		return fmt.Errorf("ledger.timezone: %w", err)
	}
	if cfg.Ledger.MaxHistoryLimit < cfg.Ledger.HistoryLimit {
		return errors.New("ledger.max_history_limit must not be below ledger.history_limit")
	}
	return nil
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
