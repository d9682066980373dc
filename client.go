package yayawebhook

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/dawitel/yaya-webhook/store"
	"github.com/rs/zerolog"
)

// Client wires configuration, store, verifier and handler together
type Client struct {
	cfg           *Config
	logger        zerolog.Logger
	store         store.Store
	verifier      *Verifier
	handler       *Handler
	onTransaction TransactionHandler
	verifierOpts  []VerifierOption
	mu            sync.RWMutex
	started       bool
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithStore makes the client use an existing store instead of building one
// from Config.Store. The circuit breaker is still applied when enabled.
func WithStore(s store.Store) ClientOption {
	return func(c *Client) {
		c.store = s
	}
}

// WithTransactionHandler registers a callback for stored transactions
func WithTransactionHandler(fn TransactionHandler) ClientOption {
	return func(c *Client) {
		c.onTransaction = fn
	}
}

// WithVerifierOptions passes options to the signature verifier
func WithVerifierOptions(opts ...VerifierOption) ClientOption {
	return func(c *Client) {
		c.verifierOpts = append(c.verifierOpts, opts...)
	}
}

// NewClient creates a new client
func NewClient(cfg *Config, logger zerolog.Logger, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		txStore, err := newStore(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
		c.store = txStore
	} else {
		c.store = wrapStore(c.store, cfg, logger)
	}

	if c.onTransaction == nil {
		c.onTransaction = c.logTransaction
	}

	c.verifier = NewVerifier(cfg.SignatureSecret, cfg.Tolerance, c.verifierOpts...)
	c.handler = NewHandler(c.verifier, c.store, c.onTransaction, logger, cfg.HTTP.MaxRequestBodySize)

	return c, nil
}

// logTransaction is the default TransactionHandler
func (c *Client) logTransaction(ctx context.Context, tx *store.Transaction) error {
	c.logger.Info().
		Str("provider_id", tx.ProviderID).
		Str("currency", tx.Currency).
		Int64("event_timestamp", tx.EventTimestamp).
		Msg("Received valid transaction")
	return nil
}

// Start marks the client as ready to serve
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("client already started")
	}

	c.started = true
	c.logger.Info().
		Str("store", c.cfg.Store.Type).
		Dur("tolerance", c.cfg.Tolerance).
		Msg("YaYa webhook client started")

	return nil
}

// Stop gracefully stops the client and closes the store
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close store")
		}
	}

	c.started = false
	c.logger.Info().Msg("YaYa webhook client stopped")

	return nil
}

// Health returns the health status
func (c *Client) Health() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return fmt.Errorf("client not started")
	}

	return nil
}

// HandleWebhook returns the HTTP handler for the webhook endpoint. The
// current handler is looked up per request, so SetTransactionHandler takes
// effect on routes that are already mounted.
func (c *Client) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()
		handler.HandleWebhook(w, r)
	}
}

// Store returns the transaction store
func (c *Client) Store() store.Store {
	return c.store
}

// Verifier returns the signature verifier
func (c *Client) Verifier() *Verifier {
	return c.verifier
}

// SetTransactionHandler replaces the callback invoked for stored
// transactions and rebuilds the handler
func (c *Client) SetTransactionHandler(fn TransactionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = c.logTransaction
	}
	c.onTransaction = fn
	c.handler = NewHandler(c.verifier, c.store, fn, c.logger, c.cfg.HTTP.MaxRequestBodySize)
}
