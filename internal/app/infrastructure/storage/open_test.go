package storage

import (
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/infrastructure/config"
	"chatrelay/pkg/logger"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func storageConfig(driver string) config.Storage {
	cfg := config.Default().Storage
	cfg.Driver = driver
	return cfg
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), storageConfig(config.DriverMemory), logger.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.Available())
	store.Save(context.Background(), chat.Message{Sender: "a", Content: "b", Timestamp: 1})
	assert.Equal(t, []chat.Message{{Sender: "a", Content: "b", Timestamp: 1}}, store.Recent(context.Background(), 25))
}

func TestOpen_SQLite(t *testing.T) {
	cfg := storageConfig(config.DriverSQLite)
	cfg.Path = filepath.Join(t.TempDir(), "chat.db")

	store, err := Open(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.Available())
}

func TestOpen_NoneIsDegraded(t *testing.T) {
	store, err := Open(context.Background(), storageConfig(config.DriverNone), logger.NewNop())
	require.NoError(t, err)

	assert.False(t, store.Available())
	assert.IsType(t, &Unavailable{}, store)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), storageConfig("redis"), logger.NewNop())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_UnreachableMongoIsDegraded(t *testing.T) {
	cfg := storageConfig(config.DriverMongo)
	cfg.URI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200"
	cfg.ConnectTimeout = config.Duration(500 * time.Millisecond)

	store, err := Open(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	assert.False(t, store.Available())
	assert.Empty(t, store.Recent(context.Background(), 25))
	assert.NotPanics(t, func() {
		store.Save(context.Background(), chat.Message{Sender: "a", Content: "b", Timestamp: 1})
	})
}
