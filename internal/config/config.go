// Package config loads the back-office configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/yosseffehabb/illusion-studios/pkg/config"
)

// Store backend names accepted by RECORD_STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Config holds all configuration for the back-office service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"BACKOFFICE_HTTP_PORT" envDefault:"8010"`

	// Record store backend: postgres or rest.
	StoreBackend string `env:"RECORD_STORE_BACKEND" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"BACKOFFICE_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// REST record store
	RESTBaseURL     string `env:"RECORD_STORE_URL" envDefault:"http://localhost:3000"`
	RESTTimeoutSecs int    `env:"RECORD_STORE_TIMEOUT_SECONDS" envDefault:"10"`

	// Redis (operator sessions)
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"12"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Cache
	CacheTTLSecs int `env:"CACHE_TTL_SECONDS" envDefault:"0"`

	// HTTP hardening
	CORSOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS   int      `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load backoffice config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreBackend != BackendPostgres && c.StoreBackend != BackendREST {
		return fmt.Errorf("invalid record store backend: %q", c.StoreBackend)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("invalid session TTL: %d hours", c.SessionTTLHours)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// RESTTimeout returns the REST record store request timeout.
func (c *Config) RESTTimeout() time.Duration {
	return time.Duration(c.RESTTimeoutSecs) * time.Second
}

// SessionTTL returns the operator session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// CacheTTL returns the cached view staleness bound. Zero means entries never
// expire by age and are only replaced by invalidation.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}
