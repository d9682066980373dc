package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const defaultRedisPrefix = "yaya_webhook:"

// RedisStore is a Redis-based store implementation. SETNX on the provider
// id key is the uniqueness constraint, shared by every replica that talks
// to the same Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Address       string
	Password      string
	DB            int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	EnableTLS     bool
	TLSSkipVerify bool
	TLSConfig     *tls.Config
	KeyPrefix     string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(config RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	if config.EnableTLS {
		if config.TLSConfig != nil {
			opts.TLSConfig = config.TLSConfig
		} else {
			opts.TLSConfig = &tls.Config{
				InsecureSkipVerify: config.TLSSkipVerify,
			}
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, config.KeyPrefix, logger), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, prefix string, logger zerolog.Logger) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *RedisStore) txKey(providerID string) string {
	return s.prefix + "tx:" + providerID
}

func (s *RedisStore) statusKey(status Status) string {
	return s.prefix + "status:" + string(status)
}

// Exists checks if a transaction has been stored
func (s *RedisStore) Exists(ctx context.Context, providerID string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.txKey(providerID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check Redis key: %w", err)
	}
	return exists > 0, nil
}

// Create stores a transaction if its provider id key does not exist yet
func (s *RedisStore) Create(ctx context.Context, tx *Transaction) error {
	id, err := s.client.Incr(ctx, s.prefix+"seq").Result()
	if err != nil {
		return fmt.Errorf("failed to allocate transaction id: %w", err)
	}

	record := *tx
	record.ID = uint(id)
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.txKey(tx.ProviderID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}
	if !created {
		return ErrDuplicateKey
	}

	tx.ID = record.ID
	tx.ReceivedAt = record.ReceivedAt

	// The record is stored once SETNX wins. Indexes are best effort.
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.prefix+"by_timestamp", &redis.Z{
			Score:  float64(record.EventTimestamp),
			Member: record.ProviderID,
		})
		pipe.SAdd(ctx, s.statusKey(record.Status), record.ProviderID)
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("provider_id", record.ProviderID).
			Msg("Failed to update Redis transaction indexes")
	}

	return nil
}

// Get loads a stored transaction
func (s *RedisStore) Get(ctx context.Context, providerID string) (*Transaction, error) {
	data, err := s.client.Get(ctx, s.txKey(providerID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis key: %w", err)
	}

	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

// Close closes the store and releases resources
func (s *RedisStore) Close() error {
	return s.client.Close()
}
