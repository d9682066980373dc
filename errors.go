package yayawebhook

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a request failure
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindClientInput
	KindAuthentication
	KindConflict
)

// String returns the kind name used in logs
func (k ErrorKind) String() string {
	switch k {
	case KindClientInput:
		return "client_input"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status maps the kind to its HTTP status code
func (k ErrorKind) Status() int {
	switch k {
	case KindClientInput:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Client-visible messages
const (
	MsgInvalidPayload         = "invalid payload"
	MsgMissingSignature       = "missing signature"
	MsgInvalidSignatureFormat = "invalid signature format"
	MsgAlreadyProcessed       = "transaction already processed"
	MsgInternalError          = "internal error"
)

// WebhookError is a classified failure with a message safe to return to
// the sender. Err keeps the cause for logging.
type WebhookError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *WebhookError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}

func newWebhookError(kind ErrorKind, message string, err error) *WebhookError {
	return &WebhookError{Kind: kind, Message: message, Err: err}
}

// classifyVerifyError turns a verifier error into its taxonomy entry
func classifyVerifyError(err error) *WebhookError {
	switch {
	case errors.Is(err, ErrTimestampOutsideTolerance), errors.Is(err, ErrInvalidSignature):
		return newWebhookError(KindAuthentication, err.Error(), nil)
	default:
		return newWebhookError(KindInternal, MsgInternalError, err)
	}
}
