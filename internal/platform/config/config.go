// Package config loads portalgate settings from the environment with an
// optional YAML overlay for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Server   Server         `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `yaml:"addr"`
	// HandleSigningKey is the root secret every namespace handle key is derived from.
	HandleSigningKey string `yaml:"handle_signing_key"`
	Issuer           string `yaml:"issuer"`
	SecureCookies    bool   `yaml:"secure_cookies"`
}

// BackendConfig points at the hosted identity backend.
type BackendConfig struct {
	URL       string        `yaml:"url"`
	PublicKey string        `yaml:"public_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SessionConfig holds the session lifetime policy.
type SessionConfig struct {
	InactivityTimeout  time.Duration `yaml:"inactivity_timeout"`
	AbsoluteTimeout    time.Duration `yaml:"absolute_timeout"`
	AccessCheckTimeout time.Duration `yaml:"access_check_timeout"`
	RefreshMargin      time.Duration `yaml:"refresh_margin"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	SweepConcurrency   int           `yaml:"sweep_concurrency"`
	// RecheckInterval is how often an open live-tab channel re-validates.
	RecheckInterval    time.Duration `yaml:"recheck_interval"`
}

// RedisConfig configures the durable namespace stores. An empty URL keeps
// every namespace in memory.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig configures the metadata and profile stores. An empty DSN
// selects the in-memory stores.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	Migrate      bool   `yaml:"migrate"`
}

// KafkaConfig enables the forced-logout event stream when Brokers is set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:   ":8080",
			Issuer: "portalgate",
		},
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			InactivityTimeout:  30 * time.Minute,
			AbsoluteTimeout:    24 * time.Hour,
			AccessCheckTimeout: 5 * time.Second,
			RefreshMargin:      60 * time.Second,
			SweepInterval:      60 * time.Second,
			SweepConcurrency:   8,
			RecheckInterval:    30 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Kafka: KafkaConfig{
			Topic: "portalgate.forced-logout",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// FromEnv builds a Config from defaults and environment variables.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads an optional YAML file over the defaults, then applies the
// environment on top. Environment values always win.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "PORTALGATE_ADDR")
	setString(&cfg.Server.HandleSigningKey, "HANDLE_SIGNING_KEY")
	setString(&cfg.Server.Issuer, "HANDLE_ISSUER")
	setString(&cfg.Backend.URL, "BACKEND_URL")
	setString(&cfg.Backend.PublicKey, "BACKEND_PUBLIC_KEY")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	var errs []error
	errs = append(errs,
		setBool(&cfg.Server.SecureCookies, "SECURE_COOKIES"),
		setBool(&cfg.Postgres.Migrate, "DATABASE_MIGRATE"),
		setDuration(&cfg.Session.InactivityTimeout, "SESSION_INACTIVITY_TIMEOUT"),
		setDuration(&cfg.Session.AbsoluteTimeout, "SESSION_ABSOLUTE_TIMEOUT"),
		setDuration(&cfg.Session.AccessCheckTimeout, "ACCESS_CHECK_TIMEOUT"),
		setDuration(&cfg.Session.RefreshMargin, "SESSION_REFRESH_MARGIN"),
		setDuration(&cfg.Session.SweepInterval, "SESSION_SWEEP_INTERVAL"),
		setInt(&cfg.Session.SweepConcurrency, "SESSION_SWEEP_CONCURRENCY"),
		setDuration(&cfg.Session.RecheckInterval, "SESSION_RECHECK_INTERVAL"),
	)
	return errors.Join(errs...)
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.Backend.PublicKey == "" {
		errs = append(errs, errors.New("BACKEND_PUBLIC_KEY is required"))
	}
	if len(c.Server.HandleSigningKey) < 32 {
		errs = append(errs, errors.New("HANDLE_SIGNING_KEY must be at least 32 bytes"))
	}
	if c.Session.InactivityTimeout <= 0 {
		errs = append(errs, errors.New("session inactivity timeout must be positive"))
	}
	if c.Session.AbsoluteTimeout <= 0 {
		errs = append(errs, errors.New("session absolute timeout must be positive"))
	}
	if c.Session.AccessCheckTimeout <= 0 {
		errs = append(errs, errors.New("access check timeout must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep interval must be positive"))
	}
	if c.Session.SweepConcurrency < 1 {
		errs = append(errs, errors.New("sweep concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
