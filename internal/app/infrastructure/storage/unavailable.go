package storage

import (
	"chatrelay/internal/app/adapters/metrics"
	"chatrelay/internal/app/domain/chat"
	"chatrelay/pkg/logger"
	"context"
	"log/slog"
	"sync/atomic"
)

// Unavailable is the degraded-mode store: nothing is persisted and history is empty.
// The relay keeps broadcasting live traffic.
type Unavailable struct {
	log     logger.Logger
	reason  string
	dropped atomic.Uint64
}

func NewUnavailable(log logger.Logger, reason string) *Unavailable {
	return &Unavailable{log: log, reason: reason}
}

func (u *Unavailable) Save(_ context.Context, msg chat.Message) {
	n := u.dropped.Add(1)
	metrics.StoreOperations.WithLabelValues("save", metrics.ResultSkipped).Inc()
	u.log.Debug("Store unavailable, message not persisted",
		slog.String("sender", msg.Sender),
		slog.Uint64("dropped", n),
	)
}

func (u *Unavailable) Recent(context.Context, int) []chat.Message {
	metrics.StoreOperations.WithLabelValues("recent", metrics.ResultSkipped).Inc()
	return nil
}

func (u *Unavailable) Available() bool {
	return false
}

func (u *Unavailable) Reason() string {
	return u.reason
}

// Dropped - messages that were broadcast but not persisted.
func (u *Unavailable) Dropped() uint64 {
	return u.dropped.Load()
}

func (u *Unavailable) Close() error {
	return nil
}
