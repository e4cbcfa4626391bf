package storage

import (
	"chatrelay/internal/app/adapters/metrics"
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"cmp"
	"context"
	"github.com/samber/lo"
	"log/slog"
	"slices"
	"time"
)

const defaultTimeout = 5 * time.Second

// Store adapts a StoreBackend to the MessageStore port. Backend errors never
// reach the caller: they are logged, counted, and turned into empty results.
type Store struct {
	log     logger.Logger
	backend ports.StoreBackend
	timeout time.Duration
	cache   *historyCache
}

type StoreOptions struct {
	// Timeout bounds every backend call.
	Timeout time.Duration
	// CacheTTL enables the recent-history cache when positive.
	CacheTTL time.Duration
}

func NewStore(log logger.Logger, backend ports.StoreBackend, opts StoreOptions) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Store{
		log:     log,
		backend: backend,
		timeout: opts.Timeout,
		cache:   newHistoryCache(opts.CacheTTL),
	}
}

// withTimeout detaches from the caller's cancellation: a client that hangs up
// right after sending still gets its message persisted.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func (s *Store) Save(ctx context.Context, msg chat.Message) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.backend.Insert(ctx, msg.ToRecord()); err != nil {
		metrics.StoreOperations.WithLabelValues("save", metrics.ResultError).Inc()
		s.log.Error("Failed to persist message", err,
			slog.String("backend", s.backend.Name()),
			slog.String("sender", msg.Sender),
		)
		return
	}

	s.cache.invalidate()
	metrics.StoreOperations.WithLabelValues("save", metrics.ResultOK).Inc()
}

// Recent returns at most limit messages ordered oldest first.
func (s *Store) Recent(ctx context.Context, limit int) []chat.Message {
	if limit <= 0 {
		return nil
	}

	if msgs, ok := s.cache.get(limit); ok {
		metrics.StoreOperations.WithLabelValues("recent", "cached").Inc()
		return msgs
	}
	gen := s.cache.generation()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.backend.Latest(ctx, limit)
	if err != nil {
		metrics.StoreOperations.WithLabelValues("recent", metrics.ResultError).Inc()
		s.log.Error("Failed to load recent messages", err,
			slog.String("backend", s.backend.Name()),
			slog.Int("limit", limit),
		)
		return nil
	}

	if len(records) > limit {
		records = records[:limit]
	}
	msgs := lo.Map(records, func(r chat.Record, _ int) chat.Message {
		return chat.FromRecord(r)
	})
	slices.SortStableFunc(msgs, func(a, b chat.Message) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	s.cache.put(gen, limit, msgs)
	metrics.StoreOperations.WithLabelValues("recent", metrics.ResultOK).Inc()
	return msgs
}

func (s *Store) Available() bool {
	return true
}

func (s *Store) Backend() string {
	return s.backend.Name()
}

func (s *Store) Close() error {
	metrics.StoreAvailable.Set(0)
	return s.backend.Close()
}
