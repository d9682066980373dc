package yayawebhook

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are tried in order by LoadConfigFromEnv
var DefaultEnvFiles = []string{
	".env",       // Current directory
	"../../.env", // From cmd/yayawebhook to project root
}

type envSource map[string]string

// get checks the loaded .env values first, then the OS environment
func (e envSource) get(key, def string) string {
	if val, ok := e[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func (e envSource) intValue(key string, def int) (int, error) {
	raw := e.get(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func (e envSource) floatValue(key string, def float64) (float64, error) {
	raw := e.get(key, "")
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func (e envSource) durationValue(key string, def time.Duration) (time.Duration, error) {
	raw := e.get(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func (e envSource) boolValue(key string, def bool) (bool, error) {
	raw := e.get(key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

// readDefaultEnvFiles loads the first readable default .env file. Having
// none is fine; the OS environment is used instead.
func readDefaultEnvFiles() envSource {
	for _, envFile := range DefaultEnvFiles {
		values, err := godotenv.Read(envFile)
		if err == nil {
			return values
		}
	}
	return envSource{}
}

// LoadConfigFromEnv builds a Config from .env files and the process
// environment. Files passed explicitly must all exist and parse, with later
// files overriding earlier ones. Without files the first readable entry of
// DefaultEnvFiles is used, if any.
func LoadConfigFromEnv(files ...string) (*Config, error) {
	var env envSource
	if len(files) == 0 {
		env = readDefaultEnvFiles()
	} else {
		values, err := godotenv.Read(files...)
		if err != nil {
			return nil, fmt.Errorf("failed to read env files: %w", err)
		}
		env = values
	}

	builder := NewConfig()
	cfg := builder.config

	cfg.SignatureSecret = env.get("WEBHOOK_SECRET", "")

	toleranceSeconds, err := env.intValue("WEBHOOK_TOLERANCE", int(DefaultTolerance/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.Tolerance = time.Duration(toleranceSeconds) * time.Second

	maxBody, err := env.intValue("WEBHOOK_MAX_BODY_SIZE", DefaultMaxRequestBodySize)
	if err != nil {
		return nil, err
	}
	cfg.HTTP.MaxRequestBodySize = int64(maxBody)
	cfg.HTTP.Address = env.get("SERVER_ADDR", DefaultServerAddress)
	cfg.HTTP.Path = env.get("WEBHOOK_PATH", DefaultWebhookPath)

	cfg.Store.Type = env.get("STORE_TYPE", cfg.Store.Type)

	cfg.Store.Redis.Address = env.get("REDIS_ADDR", "")
	cfg.Store.Redis.Password = env.get("REDIS_PASSWORD", "")
	if cfg.Store.Redis.DB, err = env.intValue("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Store.Redis.EnableTLS, err = env.boolValue("REDIS_TLS", false); err != nil {
		return nil, err
	}

	cfg.Store.MySQL.User = env.get("DB_USER", "")
	cfg.Store.MySQL.Password = env.get("DB_PASSWORD", "")
	cfg.Store.MySQL.Host = env.get("DB_HOST", DefaultMySQLHost)
	cfg.Store.MySQL.Port = env.get("DB_PORT", DefaultMySQLPort)
	cfg.Store.MySQL.Name = env.get("DB_NAME", "")

	if cfg.CircuitBreaker.Enabled, err = env.boolValue("CB_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.CircuitBreaker.MaxRequests, err = env.intValue("CB_MAX_REQUESTS", DefaultCircuitBreakerMaxRequests); err != nil {
		return nil, err
	}
	if cfg.CircuitBreaker.Interval, err = env.durationValue("CB_INTERVAL", DefaultCircuitBreakerInterval); err != nil {
		return nil, err
	}
	if cfg.CircuitBreaker.Timeout, err = env.durationValue("CB_TIMEOUT", DefaultCircuitBreakerTimeout); err != nil {
		return nil, err
	}
	if cfg.CircuitBreaker.Threshold, err = env.floatValue("CB_THRESHOLD", DefaultCircuitBreakerThreshold); err != nil {
		return nil, err
	}

	cfg.Logging.Level = env.get("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = env.get("LOG_FORMAT", cfg.Logging.Format)

	return builder.Build()
}
