package storage

import (
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/ports/mocks"
	"chatrelay/pkg/logger"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"testing"
	"time"
)

func newMockStore(t *testing.T, cacheTTL time.Duration) (*Store, *mocks.MockStoreBackend) {
	t.Helper()

	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStoreBackend(ctrl)
	backend.EXPECT().Name().Return("mock").AnyTimes()

	return NewStore(logger.NewNop(), backend, StoreOptions{Timeout: time.Second, CacheTTL: cacheTTL}), backend
}

func TestStore_RecentReturnsOldestFirst(t *testing.T) {
	s, backend := newMockStore(t, 0)
	backend.EXPECT().Latest(gomock.Any(), 3).Return([]chat.Record{
		{Sender: "c", Content: "3", Timestamp: 30},
		{Sender: "b", Content: "2", Timestamp: 20},
		{Sender: "a", Content: "1", Timestamp: 10},
	}, nil)

	got := s.Recent(context.Background(), 3)
	assert.Equal(t, []chat.Message{
		{Sender: "a", Content: "1", Timestamp: 10},
		{Sender: "b", Content: "2", Timestamp: 20},
		{Sender: "c", Content: "3", Timestamp: 30},
	}, got)
}

func TestStore_RecentBoundsByLimit(t *testing.T) {
	s, backend := newMockStore(t, 0)
	// a backend that ignores the limit still yields the newest two
	backend.EXPECT().Latest(gomock.Any(), 2).Return([]chat.Record{
		{Sender: "x", Content: "new", Timestamp: 3},
		{Sender: "x", Content: "mid", Timestamp: 2},
		{Sender: "x", Content: "old", Timestamp: 1},
	}, nil)

	got := s.Recent(context.Background(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, "mid", got[0].Content)
	assert.Equal(t, "new", got[1].Content)
}

func TestStore_RecentNonPositiveLimit(t *testing.T) {
	s, _ := newMockStore(t, 0)

	assert.Empty(t, s.Recent(context.Background(), 0))
	assert.Empty(t, s.Recent(context.Background(), -5))
}

func TestStore_BackendErrorsAreSwallowed(t *testing.T) {
	s, backend := newMockStore(t, 0)
	backend.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	backend.EXPECT().Latest(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	assert.NotPanics(t, func() {
		s.Save(context.Background(), chat.Message{Sender: "a", Content: "b", Timestamp: 1})
	})
	assert.Empty(t, s.Recent(context.Background(), 25))
	assert.True(t, s.Available())
}

func TestStore_SaveWritesRecord(t *testing.T) {
	s, backend := newMockStore(t, 0)
	backend.EXPECT().Insert(gomock.Any(), chat.Record{Sender: "a", Content: "b", Timestamp: 7}).Return(nil)

	s.Save(context.Background(), chat.Message{Sender: "a", Content: "b", Timestamp: 7})
}

func TestStore_SaveOutlivesCallerCancellation(t *testing.T) {
	s, backend := newMockStore(t, 0)
	backend.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ chat.Record) error {
		assert.NoError(t, ctx.Err())
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Save(ctx, chat.Message{Sender: "a", Content: "b", Timestamp: 1})
}

func TestStore_CacheServesRepeatedReads(t *testing.T) {
	s, backend := newMockStore(t, time.Minute)
	backend.EXPECT().Latest(gomock.Any(), 25).Return([]chat.Record{
		{Sender: "a", Content: "1", Timestamp: 1},
	}, nil).Times(1)

	first := s.Recent(context.Background(), 25)
	second := s.Recent(context.Background(), 25)
	assert.Equal(t, first, second)

	// callers get their own copy
	second[0].Content = "changed"
	assert.Equal(t, "1", s.Recent(context.Background(), 25)[0].Content)
}

func TestStore_SaveInvalidatesCache(t *testing.T) {
	s, backend := newMockStore(t, time.Minute)
	gomock.InOrder(
		backend.EXPECT().Latest(gomock.Any(), 25).Return([]chat.Record{
			{Sender: "a", Content: "1", Timestamp: 1},
		}, nil),
		backend.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil),
		backend.EXPECT().Latest(gomock.Any(), 25).Return([]chat.Record{
			{Sender: "a", Content: "2", Timestamp: 2},
			{Sender: "a", Content: "1", Timestamp: 1},
		}, nil),
	)

	assert.Len(t, s.Recent(context.Background(), 25), 1)
	s.Save(context.Background(), chat.Message{Sender: "a", Content: "2", Timestamp: 2})
	assert.Len(t, s.Recent(context.Background(), 25), 2)
}

func TestStore_FailedSaveKeepsCache(t *testing.T) {
	s, backend := newMockStore(t, time.Minute)
	backend.EXPECT().Latest(gomock.Any(), 25).Return([]chat.Record{{Sender: "a", Timestamp: 1}}, nil).Times(1)
	backend.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

	s.Recent(context.Background(), 25)
	s.Save(context.Background(), chat.Message{Sender: "a", Content: "2", Timestamp: 2})
	assert.Len(t, s.Recent(context.Background(), 25), 1)
}

func TestHistoryCache_StalePutIsDropped(t *testing.T) {
	c := newHistoryCache(time.Minute)

	gen := c.generation()
	c.invalidate()
	c.put(gen, 25, []chat.Message{{Sender: "stale"}})

	_, ok := c.get(25)
	assert.False(t, ok)

	c.put(c.generation(), 25, []chat.Message{{Sender: "fresh"}})
	got, ok := c.get(25)
	require.True(t, ok)
	assert.Equal(t, "fresh", got[0].Sender)
}

func TestHistoryCache_NilIsNoop(t *testing.T) {
	var c *historyCache
	assert.Nil(t, newHistoryCache(0))

	c.put(c.generation(), 1, []chat.Message{{Sender: "a"}})
	c.invalidate()
	_, ok := c.get(1)
	assert.False(t, ok)
}

func TestStore_CloseClosesBackend(t *testing.T) {
	s, backend := newMockStore(t, 0)
	backend.EXPECT().Close().Return(nil)

	require.NoError(t, s.Close())
	assert.Equal(t, "mock", s.Backend())
}

func TestUnavailable(t *testing.T) {
	u := NewUnavailable(logger.NewNop(), "connection refused")

	u.Save(context.Background(), chat.Message{Sender: "a", Content: "b", Timestamp: 1})
	u.Save(context.Background(), chat.Message{Sender: "a", Content: "c", Timestamp: 2})

	assert.False(t, u.Available())
	assert.Empty(t, u.Recent(context.Background(), 25))
	assert.Equal(t, uint64(2), u.Dropped())
	assert.Equal(t, "connection refused", u.Reason())
	assert.NoError(t, u.Close())
}
