package storage

import (
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"path/filepath"
	"testing"
	"time"
)

// testBackend runs the behaviour every StoreBackend must share.
func testBackend(t *testing.T, open func(t *testing.T) ports.StoreBackend) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		b := open(t)
		got, err := b.Latest(ctx, 25)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("newest first and bounded", func(t *testing.T) {
		b := open(t)
		for i := 1; i <= 30; i++ {
			require.NoError(t, b.Insert(ctx, chat.Record{
				Sender:    "bot",
				Content:   fmt.Sprintf("m%d", i),
				Timestamp: int64(1_700_000_000_000 + i),
			}))
		}

		got, err := b.Latest(ctx, 25)
		require.NoError(t, err)
		require.Len(t, got, 25)
		assert.Equal(t, "m30", got[0].Content)
		assert.Equal(t, "m6", got[24].Content)
	})

	t.Run("orders by timestamp not arrival", func(t *testing.T) {
		b := open(t)
		require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "late", Timestamp: 300}))
		require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "early", Timestamp: 100}))
		require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "middle", Timestamp: 200}))

		got, err := b.Latest(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"late", "middle", "early"}, []string{got[0].Content, got[1].Content, got[2].Content})
	})

	t.Run("negative timestamps keep time order", func(t *testing.T) {
		b := open(t)
		for _, ts := range []int64{-5, 3, -1} {
			require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: fmt.Sprint(ts), Timestamp: ts}))
		}

		got, err := b.Latest(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, []int64{3, -1}, []int64{got[0].Timestamp, got[1].Timestamp})
	})

	t.Run("equal timestamps are kept", func(t *testing.T) {
		b := open(t)
		require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "one", Timestamp: 5}))
		require.NoError(t, b.Insert(ctx, chat.Record{Sender: "b", Content: "two", Timestamp: 5}))

		got, err := b.Latest(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty strings round trip", func(t *testing.T) {
		b := open(t)
		require.NoError(t, b.Insert(ctx, chat.Record{Sender: "", Content: "", Timestamp: 1}))

		got, err := b.Latest(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, chat.Record{Timestamp: 1}, got[0])
	})
}

func TestMemoryBackend(t *testing.T) {
	testBackend(t, func(t *testing.T) ports.StoreBackend {
		return NewMemory(100)
	})
}

func TestMemoryBackend_DropsOldestOverCapacity(t *testing.T) {
	m := NewMemory(3)
	for i := 1; i <= 5; i++ {
		require.NoError(t, m.Insert(context.Background(), chat.Record{Sender: "a", Content: fmt.Sprint(i), Timestamp: int64(i)}))
	}
	assert.Equal(t, 3, m.Len())

	got, err := m.Latest(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "5", got[0].Content)
	assert.Equal(t, "3", got[2].Content)
}

func TestSQLiteBackend(t *testing.T) {
	testBackend(t, func(t *testing.T) ports.StoreBackend {
		path := filepath.Join(t.TempDir(), "db", "chat.db")
		b, err := OpenSQLite(context.Background(), path, time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	b, err := OpenSQLite(ctx, path, time.Second)
	require.NoError(t, err)
	require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "kept", Timestamp: 1}))
	require.NoError(t, b.Close())

	b, err = OpenSQLite(ctx, path, time.Second)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Latest(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Content)
}

func TestSQLiteBackend_PragmaFailureIsReturned(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "chat.db"), time.Second)
	require.Error(t, err)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "busy_timeout")
}

func TestSQLiteBackend_SkipsRowsWithoutSender(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "chat.db"), time.Second)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.db.ExecContext(ctx, `INSERT INTO messages (sender, content, timestamp) VALUES (NULL, 'system', 99)`)
	require.NoError(t, err)
	require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "user", Timestamp: 1}))

	got, err := b.Latest(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "user", got[0].Content)
}

func TestBadgerBackend(t *testing.T) {
	testBackend(t, func(t *testing.T) ports.StoreBackend {
		b, err := OpenBadger("", logger.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestBadgerBackend_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenBadger(dir, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, b.Insert(ctx, chat.Record{Sender: "a", Content: "kept", Timestamp: 42}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir, logger.NewNop())
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Latest(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, chat.Record{Sender: "a", Content: "kept", Timestamp: 42}, got[0])
}

func TestBadgerKey_SortsByTime(t *testing.T) {
	ordered := []int64{math.MinInt64, -1_700_000_000_000, -1000, -999, -1, 0, 1, 999, 1000, 1_700_000_000_000, math.MaxInt64}
	for i := 1; i < len(ordered); i++ {
		prev := string(badgerKey(ordered[i-1], [16]byte{}))
		next := string(badgerKey(ordered[i], [16]byte{}))
		assert.Less(t, prev, next, "%d before %d", ordered[i-1], ordered[i])
	}

	assert.Equal(t, "msg:80000000000003e7:00000000-0000-0000-0000-000000000000", string(badgerKey(999, [16]byte{})))
	assert.Equal(t, "msg:7fffffffffffffff:00000000-0000-0000-0000-000000000000", string(badgerKey(-1, [16]byte{})))
}
