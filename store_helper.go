package yayawebhook

import (
	"fmt"

	"github.com/dawitel/yaya-webhook/store"
	"github.com/rs/zerolog"
)

// newStore creates a store instance from the configuration, wrapped in a
// circuit breaker when enabled
func newStore(cfg *Config, logger zerolog.Logger) (store.Store, error) {
	txStore, err := store.NewStore(store.StoreConfig{
		Type:   cfg.Store.Type,
		Redis:  cfg.Store.Redis,
		MySQL:  cfg.Store.MySQL,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return wrapStore(txStore, cfg, logger), nil
}

func wrapStore(txStore store.Store, cfg *Config, logger zerolog.Logger) store.Store {
	if !cfg.CircuitBreaker.Enabled {
		return txStore
	}

	return store.NewBreakerStore(
		txStore,
		fmt.Sprintf("transaction-store-%s", cfg.Store.Type),
		store.CircuitBreakerConfig{
			MaxRequests: cfg.CircuitBreaker.MaxRequests,
			Interval:    cfg.CircuitBreaker.Interval,
			Timeout:     cfg.CircuitBreaker.Timeout,
			Threshold:   cfg.CircuitBreaker.Threshold,
		},
		logger,
	)
}
