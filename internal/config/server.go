// Package config defines the environment-driven configuration of the binaries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rezkam/taskly/internal/env"
)

// ErrInvalidLogLevel is returned when TASKLY_LOG_LEVEL is not a slog level name.
var ErrInvalidLogLevel = errors.New("invalid TASKLY_LOG_LEVEL")

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Storage         StorageConfig
	HTTP            HTTPConfig
	Auth            AuthConfig
	Cache           CacheConfig
	Tasks           TasksConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"TASKLY_SHUTDOWN_TIMEOUT"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"TASKLY_HTTP_HOST"`
	Port              string        `env:"TASKLY_HTTP_PORT"`
	ReadTimeout       time.Duration `env:"TASKLY_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"TASKLY_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"TASKLY_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"TASKLY_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"TASKLY_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"TASKLY_HTTP_MAX_BODY_BYTES"`
}

// AuthConfig holds authenticator and token verifier configuration.
// An empty JWTSecret disables bearer tokens; API keys keep working.
type AuthConfig struct {
	OperationTimeout time.Duration `env:"TASKLY_AUTH_OPERATION_TIMEOUT"`
	UpdateQueueSize  int           `env:"TASKLY_AUTH_UPDATE_QUEUE_SIZE"`
	JWTSecret        string        `env:"TASKLY_JWT_SECRET"`
	JWTIssuer        string        `env:"TASKLY_JWT_ISSUER"`
	JWTAudience      string        `env:"TASKLY_JWT_AUDIENCE"`
}

// CacheConfig holds the optional Redis read-through cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr     string        `env:"TASKLY_REDIS_ADDR"`
	RedisPassword string        `env:"TASKLY_REDIS_PASSWORD"`
	RedisDB       int           `env:"TASKLY_REDIS_DB"`
	TTL           time.Duration `env:"TASKLY_CACHE_TTL"`
}

// Enabled reports whether a Redis address is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// TasksConfig holds task service configuration.
type TasksConfig struct {
	DefaultPageSize int            `env:"TASKLY_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int            `env:"TASKLY_MAX_PAGE_SIZE"`
	Timezone        *time.Location `env:"TASKLY_TIMEZONE"` // nil means UTC
}

// Validate checks the page size bounds when both are set.
func (c *TasksConfig) Validate() error {
	if c.DefaultPageSize > 0 && c.MaxPageSize > 0 && c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("TASKLY_MAX_PAGE_SIZE (%d) must be >= TASKLY_DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	return nil
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"TASKLY_OTEL_ENABLED"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	LogLevel    string `env:"TASKLY_LOG_LEVEL"` // debug, info, warn or error; empty means info
}

// Validate rejects unknown log levels.
func (c *ObservabilityConfig) Validate() error {
	_, err := c.Level()
	return err
}

// Level parses LogLevel.
func (c *ObservabilityConfig) Level() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}

// CLIConfig holds configuration for the taskctl admin tool.
type CLIConfig struct {
	Storage StorageConfig
	Auth    AuthConfig
}

// LoadCLIConfig loads and validates taskctl configuration from environment.
func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load taskctl config: %w", err)
	}

	return cfg, nil
}
