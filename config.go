package yayawebhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/dawitel/yaya-webhook/store"
)

const (
	// Default values
	DefaultTolerance          = 300 * time.Second
	DefaultMaxRequestBodySize = 1 << 20 // 1MB
	DefaultServerAddress      = ":8000"
	DefaultWebhookPath        = "/webhook/yaya/"

	// Circuit breaker defaults
	DefaultCircuitBreakerMaxRequests = 5
	DefaultCircuitBreakerInterval    = 60 * time.Second
	DefaultCircuitBreakerTimeout     = 30 * time.Second
	DefaultCircuitBreakerThreshold   = 0.7

	// HTTP server defaults
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Redis defaults
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 5
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	// MySQL defaults
	DefaultMySQLHost            = "127.0.0.1"
	DefaultMySQLPort            = "3306"
	DefaultMySQLMaxOpenConns    = 20
	DefaultMySQLMaxIdleConns    = 5
	DefaultMySQLConnMaxLifetime = time.Hour
)

// Config represents the main configuration for the webhook receiver
type Config struct {
	SignatureSecret string
	Tolerance       time.Duration

	Store StoreConfig

	CircuitBreaker CircuitBreakerConfig

	HTTP HTTPConfig

	Logging LoggingConfig
}

// StoreConfig configures transaction persistence
type StoreConfig struct {
	Type  string // "memory", "redis" or "mysql"
	Redis store.RedisConfig
	MySQL store.MySQLConfig
}

// CircuitBreakerConfig configures the circuit breaker around the store
type CircuitBreakerConfig struct {
	Enabled     bool
	MaxRequests int
	Interval    time.Duration
	Timeout     time.Duration
	Threshold   float64 // Failure ratio threshold (0.0-1.0)
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Address            string
	Path               string
	MaxRequestBodySize int64
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// DefaultStoreConfig returns the memory store configuration with the Redis
// and MySQL pool defaults filled in
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type: store.TypeMemory,
		Redis: store.RedisConfig{
			PoolSize:     DefaultRedisPoolSize,
			MinIdleConns: DefaultRedisMinIdleConns,
			DialTimeout:  DefaultRedisDialTimeout,
			ReadTimeout:  DefaultRedisReadTimeout,
			WriteTimeout: DefaultRedisWriteTimeout,
		},
		MySQL: store.MySQLConfig{
			Host:            DefaultMySQLHost,
			Port:            DefaultMySQLPort,
			MaxOpenConns:    DefaultMySQLMaxOpenConns,
			MaxIdleConns:    DefaultMySQLMaxIdleConns,
			ConnMaxLifetime: DefaultMySQLConnMaxLifetime,
		},
	}
}

// ConfigBuilder provides a fluent interface for building Config
type ConfigBuilder struct {
	config *Config
}

// NewConfig creates a new ConfigBuilder with defaults
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{
		config: &Config{
			Tolerance: DefaultTolerance,
			Store:     DefaultStoreConfig(),
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxRequests: DefaultCircuitBreakerMaxRequests,
				Interval:    DefaultCircuitBreakerInterval,
				Timeout:     DefaultCircuitBreakerTimeout,
				Threshold:   DefaultCircuitBreakerThreshold,
			},
			HTTP: HTTPConfig{
				Address:            DefaultServerAddress,
				Path:               DefaultWebhookPath,
				MaxRequestBodySize: DefaultMaxRequestBodySize,
				ReadTimeout:        DefaultReadTimeout,
				WriteTimeout:       DefaultWriteTimeout,
				ShutdownTimeout:    DefaultShutdownTimeout,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		},
	}
}

// WithSignatureSecret sets the shared signing secret
func (b *ConfigBuilder) WithSignatureSecret(secret string) *ConfigBuilder {
	b.config.SignatureSecret = secret
	return b
}

// WithTolerance sets the allowed clock difference for signed timestamps
func (b *ConfigBuilder) WithTolerance(tolerance time.Duration) *ConfigBuilder {
	b.config.Tolerance = tolerance
	return b
}

// WithStore replaces the whole store configuration. Start from
// DefaultStoreConfig to keep the pool defaults.
func (b *ConfigBuilder) WithStore(s StoreConfig) *ConfigBuilder {
	b.config.Store = s
	return b
}

// WithCircuitBreaker sets the circuit breaker configuration
func (b *ConfigBuilder) WithCircuitBreaker(cb CircuitBreakerConfig) *ConfigBuilder {
	b.config.CircuitBreaker = cb
	return b
}

// WithHTTP sets the HTTP server configuration
func (b *ConfigBuilder) WithHTTP(hc HTTPConfig) *ConfigBuilder {
	b.config.HTTP = hc
	return b
}

// WithLogging sets the logging configuration
func (b *ConfigBuilder) WithLogging(logging LoggingConfig) *ConfigBuilder {
	b.config.Logging = logging
	return b
}

// Build validates and returns the Config
func (b *ConfigBuilder) Build() (*Config, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SignatureSecret == "" {
		return errors.New("SignatureSecret is required")
	}

	if c.Tolerance < time.Second {
		return errors.New("tolerance must be at least one second")
	}

	switch c.Store.Type {
	case store.TypeMemory:
	case store.TypeRedis:
		if c.Store.Redis.Address == "" {
			return errors.New("Redis address is required when using Redis store")
		}
	case store.TypeMySQL:
		if c.Store.MySQL.Name == "" {
			return errors.New("database name is required when using MySQL store")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be 'memory', 'redis' or 'mysql')", c.Store.Type)
	}

	if c.CircuitBreaker.Threshold < 0 || c.CircuitBreaker.Threshold > 1 {
		return errors.New("circuit breaker threshold must be between 0 and 1")
	}

	if c.HTTP.MaxRequestBodySize <= 0 {
		return errors.New("max request body size must be greater than 0")
	}

	return nil
}
