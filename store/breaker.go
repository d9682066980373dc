package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig configures the store circuit breaker
type CircuitBreakerConfig struct {
	MaxRequests int
	Interval    time.Duration
	Timeout     time.Duration
	Threshold   float64 // Failure ratio threshold (0.0-1.0)
}

// BreakerStore guards a Store with a circuit breaker so a failing backend
// is rejected fast instead of holding every request until its deadline.
type BreakerStore struct {
	next           Store
	circuitBreaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps next with a circuit breaker
func NewBreakerStore(next Store, name string, cfg CircuitBreakerConfig, logger zerolog.Logger) *BreakerStore {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.MaxRequests),
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MaxRequests) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Threshold
		},
		// A duplicate key is the constraint doing its job, not a backend fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDuplicateKey)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Store circuit breaker state changed")
		},
	})

	return &BreakerStore{
		next:           next,
		circuitBreaker: circuitBreaker,
	}
}

// State returns the current breaker state
func (s *BreakerStore) State() gobreaker.State {
	return s.circuitBreaker.State()
}

// Exists checks if a transaction has been stored
func (s *BreakerStore) Exists(ctx context.Context, providerID string) (bool, error) {
	result, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		return s.next.Exists(ctx, providerID)
	})
	if err != nil {
		return false, translateBreakerError(err)
	}
	return result.(bool), nil
}

// Create stores a transaction
func (s *BreakerStore) Create(ctx context.Context, tx *Transaction) error {
	_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, s.next.Create(ctx, tx)
	})
	return translateBreakerError(err)
}

// Close closes the wrapped store
func (s *BreakerStore) Close() error {
	return s.next.Close()
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
