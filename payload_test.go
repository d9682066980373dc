package yayawebhook

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/dawitel/yaya-webhook/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEncoding(t *testing.T) {
	raw := []byte(`{
		"id": "x",
		"amount": 100,
		"currency": "ETB",
		"created_at_time": 1673381836,
		"timestamp": 1701272333,
		"cause": "Test",
		"full_name": "A B",
		"account_name": "ab1",
		"invoice_url": "http://u"
	}`)

	payload, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "x100ETB16733818361701272333TestA Bab1http://u", payload.Canonical())
}

func TestCanonicalEncodingIgnoresKeyOrderAndExtraFields(t *testing.T) {
	raw := []byte(`{"invoice_url":"http://u","extra":"ignored","id":"x","amount":100,"currency":"ETB",
		"cause":"Test","timestamp":1701272333,"full_name":"A B","created_at_time":1673381836,"account_name":"ab1"}`)

	payload, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "x100ETB16733818361701272333TestA Bab1http://u", payload.Canonical())
}

func TestCanonicalEncodingGoValuesMatchDecoded(t *testing.T) {
	built := Payload{
		"id":              "x",
		"amount":          100,
		"currency":        "ETB",
		"created_at_time": int64(1673381836),
		"timestamp":       1701272333,
		"cause":           "Test",
		"full_name":       "A B",
		"account_name":    "ab1",
		"invoice_url":     "http://u",
	}

	data, err := json.Marshal(built)
	require.NoError(t, err)
	decoded, err := DecodePayload(data)
	require.NoError(t, err)

	assert.Equal(t, built.Canonical(), decoded.Canonical())
}

func TestCanonicalEncodingMissingFields(t *testing.T) {
	payload := Payload{"id": "x", "currency": "ETB"}
	assert.Equal(t, "xETB", payload.Canonical())
	assert.Equal(t, "", Payload{}.Canonical())
}

func TestCanonicalEncodingNullBoolAndFloatLiterals(t *testing.T) {
	payload, err := DecodePayload([]byte(`{"id":"x","amount":1e2,"currency":null,"cause":true}`))
	require.NoError(t, err)
	assert.Equal(t, "x100.0NoneTrue", payload.Canonical())

	tx, err := payload.Transaction("sig")
	require.NoError(t, err)
	assert.Equal(t, "", tx.Currency)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(100)))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "None"},
		{name: "string", in: "abc", want: "abc"},
		{name: "json number int", in: json.Number("100"), want: "100"},
		{name: "json number negative zero int", in: json.Number("-0"), want: "0"},
		{name: "json number fraction", in: json.Number("100.50"), want: "100.5"},
		{name: "json number whole fraction", in: json.Number("100.0"), want: "100.0"},
		{name: "json number exponent", in: json.Number("1e2"), want: "100.0"},
		{name: "json number large exponent", in: json.Number("1e16"), want: "1e+16"},
		{name: "json number small exponent", in: json.Number("1.5E-5"), want: "1.5e-05"},
		{name: "json number small fraction", in: json.Number("0.0001"), want: "0.0001"},
		{name: "int", in: 100, want: "100"},
		{name: "int64", in: int64(1701272333), want: "1701272333"},
		{name: "whole float", in: 100.0, want: "100.0"},
		{name: "fractional float", in: 100.5, want: "100.5"},
		{name: "negative zero float", in: math.Copysign(0, -1), want: "-0.0"},
		{name: "true", in: true, want: "True"},
		{name: "false", in: false, want: "False"},
		{name: "decimal", in: decimal.RequireFromString("12.30"), want: "12.3"},
		{name: "object", in: map[string]any{"a": 1}, want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringify(tt.in))
		})
	}
}

func TestDecodePayloadRejectsNonObjects(t *testing.T) {
	for _, body := range []string{"", "invalid-json", "null", "[1,2]", `"str"`, `{"id":"x"} {"id":"y"}`} {
		_, err := DecodePayload([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidPayload, "body %q", body)
	}
}

func TestPayloadTransaction(t *testing.T) {
	payload, err := DecodePayload([]byte(`{
		"id": "1dd2854e-3a79-4548-ae36-97e4a18ebf81",
		"amount": 100.25,
		"currency": "ETB",
		"created_at_time": 1673381836,
		"timestamp": 1701272333,
		"cause": "Testing",
		"full_name": "Abebe Kebede",
		"account_name": "abebekebede1",
		"invoice_url": "https://yayawallet.com/en/invoice/xxxx"
	}`))
	require.NoError(t, err)

	tx, err := payload.Transaction("sig")
	require.NoError(t, err)

	assert.Equal(t, "1dd2854e-3a79-4548-ae36-97e4a18ebf81", tx.ProviderID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("100.25")))
	assert.Equal(t, "ETB", tx.Currency)
	assert.Equal(t, int64(1673381836), tx.CreatedAtTime)
	assert.Equal(t, int64(1701272333), tx.EventTimestamp)
	assert.Equal(t, "Testing", tx.Cause)
	assert.Equal(t, "Abebe Kebede", tx.FullName)
	assert.Equal(t, "abebekebede1", tx.AccountName)
	assert.Equal(t, "https://yayawallet.com/en/invoice/xxxx", tx.InvoiceURL)
	assert.Equal(t, "sig", tx.Signature)
	assert.Equal(t, store.StatusPending, tx.Status)
	assert.Nil(t, tx.ProcessedAt)
}

func TestPayloadTransactionInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
	}{
		{name: "missing id", payload: Payload{"amount": json.Number("1")}},
		{name: "id too long", payload: Payload{"id": string(make([]byte, 65)), "amount": json.Number("1")}},
		{name: "missing amount", payload: Payload{"id": "x"}},
		{name: "non numeric amount", payload: Payload{"id": "x", "amount": "lots"}},
		{name: "fractional timestamp", payload: Payload{"id": "x", "amount": json.Number("1"), "timestamp": json.Number("1.5")}},
		{name: "string created_at_time", payload: Payload{"id": "x", "amount": json.Number("1"), "created_at_time": "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.payload.Transaction("sig")
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}
