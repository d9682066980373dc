package store

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeMySQL  = "mysql"
)

// StoreConfig represents the store configuration
type StoreConfig struct {
	Type   string // "memory", "redis" or "mysql"
	Redis  RedisConfig
	MySQL  MySQLConfig
	Logger zerolog.Logger
}

// NewStore creates a store instance based on the configuration
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(), nil

	case TypeRedis:
		return NewRedisStore(cfg.Redis, cfg.Logger)

	case TypeMySQL:
		return NewGormStore(cfg.MySQL)

	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
