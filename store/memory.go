package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory store implementation. Uniqueness is only
// guaranteed within a single process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Transaction
	nextID  uint
	closed  bool
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Transaction),
	}
}

// Exists checks if a transaction has been stored
func (s *MemoryStore) Exists(ctx context.Context, providerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreUnavailable
	}

	_, exists := s.entries[providerID]
	return exists, nil
}

// Create stores a transaction if its provider id is not yet present
func (s *MemoryStore) Create(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreUnavailable
	}

	if _, exists := s.entries[tx.ProviderID]; exists {
		return ErrDuplicateKey
	}

	s.nextID++
	tx.ID = s.nextID
	if tx.ReceivedAt.IsZero() {
		tx.ReceivedAt = time.Now().UTC()
	}

	stored := *tx
	s.entries[tx.ProviderID] = &stored

	return nil
}

// Get returns a copy of the stored transaction for providerID
func (s *MemoryStore) Get(providerID string) (Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.entries[providerID]
	if !ok {
		return Transaction{}, false
	}
	return *tx, true
}

// Len returns the number of stored transactions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close closes the store and releases resources
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.entries = nil

	return nil
}
