package yayawebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dawitel/yaya-webhook/store"
	"github.com/rs/zerolog"
)

// TransactionHandler is a callback invoked after a transaction is stored
type TransactionHandler func(ctx context.Context, tx *store.Transaction) error

// SuccessResponse is the body returned for an accepted notification
type SuccessResponse struct {
	Status        string `json:"status"`
	TransactionID uint   `json:"transaction_id"`
}

// ErrorResponse is the body returned for a rejected notification
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler handles HTTP webhook requests
type Handler struct {
	verifier      *Verifier
	store         store.Store
	onTransaction TransactionHandler
	logger        zerolog.Logger
	maxBodySize   int64
}

// NewHandler creates a new webhook handler. onTransaction may be nil.
func NewHandler(
	verifier *Verifier,
	txStore store.Store,
	onTransaction TransactionHandler,
	logger zerolog.Logger,
	maxBodySize int64,
) *Handler {
	return &Handler{
		verifier:      verifier,
		store:         txStore,
		onTransaction: onTransaction,
		logger:        logger,
		maxBodySize:   maxBodySize,
	}
}

// HandleWebhook handles incoming webhook requests
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().
				Interface("panic", rec).
				Msg("Panic recovered in webhook handler")
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MsgInternalError})
		}
	}()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	limitedBody := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(limitedBody)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.logger.Warn().
				Int64("max_size", h.maxBodySize).
				Msg("Webhook request body exceeds maximum size")
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		h.logger.Warn().Err(err).Msg("Failed to read webhook body")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgInvalidPayload})
		return
	}

	tx, werr := h.Process(r.Context(), body, r.Header.Get(SignatureHeaderName))
	if werr != nil {
		h.logFailure(werr)
		writeJSON(w, werr.Kind.Status(), ErrorResponse{Error: werr.Message})
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Status:        "success",
		TransactionID: tx.ID,
	})
}

// Process runs the verification and storage steps for one notification
// and returns the stored transaction or a classified error.
func (h *Handler) Process(ctx context.Context, body []byte, signatureHeader string) (*store.Transaction, *WebhookError) {
	payload, err := DecodePayload(body)
	if err != nil {
		return nil, newWebhookError(KindClientInput, MsgInvalidPayload, err)
	}

	if signatureHeader == "" {
		return nil, newWebhookError(KindClientInput, MsgMissingSignature, nil)
	}

	header, err := ParseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, newWebhookError(KindClientInput, MsgInvalidSignatureFormat, err)
	}
	if !header.Valid() {
		return nil, newWebhookError(KindClientInput, MsgInvalidSignatureFormat, nil)
	}

	if err := h.verifier.Verify(payload, header.Signature, header.Timestamp); err != nil {
		return nil, classifyVerifyError(err)
	}

	providerID := payload.ProviderID()
	h.logger.Debug().
		Str("provider_id", providerID).
		Msg(MsgSignatureVerified)

	// Fast path for plain replays. The unique constraint in Create is what
	// actually guarantees a single record under concurrency.
	if providerID != "" {
		exists, err := h.store.Exists(ctx, providerID)
		if err != nil {
			return nil, newWebhookError(KindInternal, MsgInternalError, err)
		}
		if exists {
			return nil, newWebhookError(KindConflict, MsgAlreadyProcessed, nil)
		}
	}

	tx, err := payload.Transaction(header.Signature)
	if err != nil {
		return nil, newWebhookError(KindClientInput, MsgInvalidPayload, err)
	}

	if err := h.store.Create(ctx, tx); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, newWebhookError(KindConflict, MsgAlreadyProcessed, err)
		}
		return nil, newWebhookError(KindInternal, MsgInternalError, err)
	}

	h.logger.Info().
		Str("provider_id", tx.ProviderID).
		Uint("transaction_id", tx.ID).
		Msg("Webhook transaction stored")

	if h.onTransaction != nil {
		if err := h.onTransaction(ctx, tx); err != nil {
			h.logger.Error().Err(err).
				Str("provider_id", tx.ProviderID).
				Msg("Failed to process stored transaction")
		}
	}

	return tx, nil
}

func (h *Handler) logFailure(werr *WebhookError) {
	var event *zerolog.Event
	if werr.Kind == KindInternal {
		event = h.logger.Error()
	} else {
		event = h.logger.Warn()
	}
	if werr.Err != nil {
		event = event.Err(werr.Err)
	}
	event.
		Str("kind", werr.Kind.String()).
		Int("status", werr.Kind.Status()).
		Msg("Webhook rejected: " + werr.Message)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
