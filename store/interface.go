package store

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateKey is returned by Create when a transaction with the same
	// provider id is already stored.
	ErrDuplicateKey = errors.New("duplicate provider id")

	// ErrStoreUnavailable is returned when the circuit breaker rejects a call.
	ErrStoreUnavailable = errors.New("transaction store unavailable")
)

// Store persists accepted webhook transactions
type Store interface {
	// Exists reports whether a transaction with the given provider id is stored
	Exists(ctx context.Context, providerID string) (bool, error)

	// Create stores tx, assigning its ID and ReceivedAt. The uniqueness of
	// ProviderID is enforced by the storage layer itself; a lost race
	// returns ErrDuplicateKey.
	Create(ctx context.Context, tx *Transaction) error

	// Close closes the store and releases resources
	Close() error
}
