package yayawebhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dawitel/yaya-webhook/store"
	"github.com/shopspring/decimal"
)

// CanonicalFields is the fixed order in which payload fields are
// concatenated to form the signed message.
var CanonicalFields = []string{
	"id",
	"amount",
	"currency",
	"created_at_time",
	"timestamp",
	"cause",
	"full_name",
	"account_name",
	"invoice_url",
}

const maxProviderIDLength = 64

// ErrInvalidPayload is returned when the body is not a JSON object or a
// field has an unusable type.
var ErrInvalidPayload = errors.New("invalid payload")

// Payload is a decoded webhook body. Numbers are kept as json.Number so
// integers are never rounded through float64.
type Payload map[string]any

// DecodePayload parses body as a single JSON object
func DecodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrInvalidPayload)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidPayload)
	}

	return payload, nil
}

// Canonical returns the concatenation of CanonicalFields in order, with no
// separators. An absent field contributes the empty string.
func (p Payload) Canonical() string {
	var b strings.Builder
	for _, key := range CanonicalFields {
		b.WriteString(p.Field(key))
	}
	return b.String()
}

// Field returns the canonical string form of a single field. Values are
// rendered the way the provider's signer renders them: null is "None",
// booleans are "True"/"False", integers keep their digits and any number
// with a fraction or exponent is formatted as a float ("1e2" is "100.0").
func (p Payload) Field(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return val
	case json.Number:
		return formatNumber(val)
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case decimal.Decimal:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// formatNumber renders a JSON number literal. Integer literals are kept
// as written; everything else goes through formatFloat.
func formatNumber(n json.Number) string {
	literal := n.String()
	if !strings.ContainsAny(literal, ".eE") {
		if literal == "-0" {
			return "0"
		}
		return literal
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}
	return formatFloat(f)
}

// formatFloat produces the shortest round-trip form with at least one
// fractional digit, switching to exponent form below 1e-4 and from 1e16.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// recordField is Field for storage, where null means empty
func (p Payload) recordField(key string) string {
	if p[key] == nil {
		return ""
	}
	return p.Field(key)
}

// ProviderID returns the provider transaction id
func (p Payload) ProviderID() string {
	return p.recordField("id")
}

// Transaction builds a pending store record from the payload
func (p Payload) Transaction(signature string) (*store.Transaction, error) {
	providerID := p.recordField("id")
	if providerID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidPayload)
	}
	if len(providerID) > maxProviderIDLength {
		return nil, fmt.Errorf("%w: id exceeds %d characters", ErrInvalidPayload, maxProviderIDLength)
	}

	amount, err := p.decimalField("amount")
	if err != nil {
		return nil, err
	}
	createdAtTime, err := p.int64Field("created_at_time")
	if err != nil {
		return nil, err
	}
	eventTimestamp, err := p.int64Field("timestamp")
	if err != nil {
		return nil, err
	}

	return &store.Transaction{
		ProviderID:     providerID,
		Amount:         amount,
		Currency:       p.recordField("currency"),
		CreatedAtTime:  createdAtTime,
		EventTimestamp: eventTimestamp,
		Cause:          p.recordField("cause"),
		FullName:       p.recordField("full_name"),
		AccountName:    p.recordField("account_name"),
		InvoiceURL:     p.recordField("invoice_url"),
		Signature:      signature,
		Status:         store.StatusPending,
	}, nil
}

func (p Payload) decimalField(key string) (decimal.Decimal, error) {
	raw := p.recordField(key)
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is required", ErrInvalidPayload, key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is not a decimal", ErrInvalidPayload, key)
	}
	return d, nil
}

func (p Payload) int64Field(key string) (int64, error) {
	raw := p.recordField(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidPayload, key)
	}
	return n, nil
}
