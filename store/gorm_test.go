package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGormStore connects to the MySQL database named by TEST_DB_NAME and
// skips the test when it is not configured.
func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	name := os.Getenv("TEST_DB_NAME")
	if name == "" {
		t.Skip("TEST_DB_NAME not set, skipping MySQL store tests")
	}

	cfg := MySQLConfig{
		User:     os.Getenv("TEST_DB_USER"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		Host:     envOr("TEST_DB_HOST", "127.0.0.1"),
		Port:     envOr("TEST_DB_PORT", "3306"),
		Name:     name,
	}

	s, err := NewGormStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestMySQLConfigDSN(t *testing.T) {
	cfg := MySQLConfig{User: "yaya", Password: "pw", Host: "db", Port: "3306", Name: "webhooks"}
	assert.Equal(t, "yaya:pw@tcp(db:3306)/webhooks?charset=utf8mb4&parseTime=True&loc=UTC", cfg.DSN())
}

func TestGormStoreCreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	providerID := fmt.Sprintf("gorm-test-%d", time.Now().UnixNano())

	exists, err := s.Exists(ctx, providerID)
	require.NoError(t, err)
	assert.False(t, exists)

	tx := newTestTransaction(providerID)
	require.NoError(t, s.Create(ctx, tx))
	assert.NotZero(t, tx.ID)
	assert.False(t, tx.ReceivedAt.IsZero())

	exists, err = s.Exists(ctx, providerID)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, s.Create(ctx, newTestTransaction(providerID)), ErrDuplicateKey)
}

func TestGormStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	providerID := fmt.Sprintf("gorm-race-%d", time.Now().UnixNano())

	var (
		wg        sync.WaitGroup
		successes int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Create(ctx, newTestTransaction(providerID)); err == nil {
				atomic.AddInt32(&successes, 1)
			} else {
				assert.ErrorIs(t, err, ErrDuplicateKey)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)

	var count int64
	require.NoError(t, s.db.WithContext(ctx).Model(&Transaction{}).Where("provider_id = ?", providerID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
