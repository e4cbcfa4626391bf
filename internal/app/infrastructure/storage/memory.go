package storage

import (
	"chatrelay/internal/app/domain/chat"
	"cmp"
	"context"
	"slices"
	"sync"
)

// Memory is a bounded in-process backend. Once capacity is reached the oldest
// records are dropped. Nothing survives a restart.
type Memory struct {
	mu       sync.RWMutex
	items    []chat.Record
	capacity int
}

func NewMemory(capacity int) *Memory {
	return &Memory{
		items:    make([]chat.Record, 0, max(capacity, 0)),
		capacity: capacity,
	}
}

func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) Insert(_ context.Context, r chat.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capacity > 0 && len(m.items) >= m.capacity {
		over := len(m.items) - m.capacity + 1
		m.items = slices.Delete(m.items, 0, over)
	}
	m.items = append(m.items, r)
	return nil
}

func (m *Memory) Latest(_ context.Context, limit int) ([]chat.Record, error) {
	m.mu.RLock()
	out := slices.Clone(m.items)
	m.mu.RUnlock()

	// newest first; among equal timestamps the later insert wins
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b chat.Record) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

func (m *Memory) Close() error {
	return nil
}
