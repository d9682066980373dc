package yayawebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// MsgSignatureVerified is the reason reported for a successful verification
const MsgSignatureVerified = "signature verified"

var (
	// ErrTimestampOutsideTolerance is returned when the header timestamp is
	// too far from the server clock in either direction.
	ErrTimestampOutsideTolerance = errors.New("timestamp outside tolerance")

	// ErrInvalidSignature is returned when the signature does not match
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSecretNotConfigured is returned when the verifier has no secret
	ErrSecretNotConfigured = errors.New("signature secret not configured")
)

// Verifier handles signature verification for webhook payloads
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// VerifierOption customizes a Verifier
type VerifierOption func(*Verifier)

// WithClock overrides the clock used for the tolerance check
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a new signature verifier
func NewVerifier(secret string, tolerance time.Duration, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Sign computes the hex HMAC-SHA256 of the payload's canonical form
func Sign(secret string, payload Payload) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload.Canonical()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the timestamp tolerance and then the HMAC-SHA256 signature
// of the payload. The comparison is constant time.
func (v *Verifier) Verify(payload Payload, signature string, timestamp int64) error {
	if v.secret == "" {
		return ErrSecretNotConfigured
	}

	now := v.now().Unix()
	tolerance := int64(v.tolerance / time.Second)
	if timestamp < now-tolerance || timestamp > now+tolerance {
		return ErrTimestampOutsideTolerance
	}

	expectedSignature := Sign(v.secret, payload)
	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}
