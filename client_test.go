package yayawebhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dawitel/yaya-webhook/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()

	cfg, err := NewConfig().WithSignatureSecret(testSecret).Build()
	require.NoError(t, err)

	opts = append(opts, WithVerifierOptions(WithClock(fixedClock)))
	client, err := NewClient(cfg, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{}, zerolog.Nop())
	assert.ErrorContains(t, err, "invalid config")
}

func TestClientLifecycle(t *testing.T) {
	client := newTestClient(t)

	assert.Error(t, client.Health())

	require.NoError(t, client.Start(context.Background()))
	assert.NoError(t, client.Health())
	assert.Error(t, client.Start(context.Background()))

	require.NoError(t, client.Stop())
	assert.Error(t, client.Health())
	assert.NoError(t, client.Stop())
}

func TestClientWrapsStoreWithBreaker(t *testing.T) {
	client := newTestClient(t)
	assert.IsType(t, &store.BreakerStore{}, client.Store())
}

func TestClientHandlesWebhook(t *testing.T) {
	mem := store.NewMemoryStore()

	var stored []string
	client := newTestClient(t,
		WithStore(mem),
		WithTransactionHandler(func(ctx context.Context, tx *store.Transaction) error {
			stored = append(stored, tx.ProviderID)
			return nil
		}),
	)
	require.NoError(t, client.Start(context.Background()))
	defer client.Stop()

	rec := httptest.NewRecorder()
	client.HandleWebhook()(rec, newSignedRequest(t, testPayload("tx-1"), testNow.Unix(), testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tx-1"}, stored)
	assert.Equal(t, 1, mem.Len())
}

func TestClientSetTransactionHandler(t *testing.T) {
	client := newTestClient(t, WithStore(store.NewMemoryStore()))
	mounted := client.HandleWebhook()

	called := false
	client.SetTransactionHandler(func(ctx context.Context, tx *store.Transaction) error {
		called = true
		return nil
	})

	rec := httptest.NewRecorder()
	mounted(rec, newSignedRequest(t, testPayload("tx-1"), testNow.Unix(), testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("visible")
	assert.Contains(t, buf.String(), `"message":"visible"`)
	assert.Contains(t, buf.String(), `"service":"yaya-webhook"`)

	buf.Reset()
	fallback := NewLogger(LoggingConfig{Level: "loud"}, &buf)
	fallback.Debug().Msg("hidden")
	fallback.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
