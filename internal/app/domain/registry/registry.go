package registry

import (
	"chatrelay/internal/app/adapters/metrics"
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"github.com/samber/lo"
	"log/slog"
	"sync"
	"time"
)

// Delivery - per-recipient outcome of one broadcast pass.
type Delivery struct {
	Delivered int
	Skipped   int
	Failed    int
}

// Registry tracks live sessions and fans messages out to them.
// The lock guards membership only; sends happen on a snapshot outside of it.
type Registry struct {
	log logger.Logger

	mu       sync.RWMutex
	sessions map[string]ports.SessionPort
}

func New(log logger.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]ports.SessionPort),
	}
}

// Register adds s to the live set. Registering the same handle twice is a no-op;
// a different handle under a taken ID replaces and closes the previous one.
func (r *Registry) Register(s ports.SessionPort) {
	r.mu.Lock()
	previous, exists := r.sessions[s.ID()]
	if exists && previous == s {
		r.mu.Unlock()
		r.log.Debug("Session already registered", slog.String("session", s.ID()))
		return
	}
	r.sessions[s.ID()] = s
	count := len(r.sessions)
	r.mu.Unlock()

	if exists {
		r.log.Warn("Session ID reused, closing the previous session", slog.String("session", s.ID()))
		if err := previous.Close(); err != nil {
			r.log.Debug("Failed to close replaced session", slog.String("session", s.ID()), slog.String("error", err.Error()))
		}
		return
	}

	metrics.ActiveSessions.Set(float64(count))
	r.log.Info("Session registered", slog.String("session", s.ID()), slog.Int("total", count))
}

// Deregister is a no-op for sessions that were never registered or are already gone,
// so close and error paths may both call it.
func (r *Registry) Deregister(s ports.SessionPort) bool {
	r.mu.Lock()
	current, ok := r.sessions[s.ID()]
	if !ok || current != s {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.ID())
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	r.log.Info("Session deregistered", slog.String("session", s.ID()), slog.Int("total", count))
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func (r *Registry) snapshot() []ports.SessionPort {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.sessions)
}

// Broadcast serializes msg once and sends the same payload to every open session,
// the sender included. A failed send is logged, its session deregistered and closed,
// and the pass continues with the remaining recipients.
func (r *Registry) Broadcast(msg chat.Message) Delivery {
	var d Delivery

	payload, err := msg.Encode()
	if err != nil {
		r.log.Error("Failed to encode broadcast message", err, slog.String("sender", msg.Sender))
		return d
	}

	start := time.Now()
	defer func() {
		metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	}()

	var failed []ports.SessionPort
	for _, s := range r.snapshot() {
		if !s.IsOpen() {
			d.Skipped++
			metrics.Deliveries.WithLabelValues("broadcast", metrics.ResultSkipped).Inc()
			continue
		}

		if err := s.Send(payload); err != nil {
			d.Failed++
			failed = append(failed, s)
			metrics.Deliveries.WithLabelValues("broadcast", metrics.ResultFailed).Inc()
			r.log.Warn("Broadcast delivery failed", slog.String("session", s.ID()), slog.String("error", err.Error()))
			continue
		}

		d.Delivered++
		metrics.Deliveries.WithLabelValues("broadcast", metrics.ResultDelivered).Inc()
	}

	for _, s := range failed {
		r.Deregister(s)
		if err := s.Close(); err != nil {
			r.log.Debug("Failed to close session after delivery error", slog.String("session", s.ID()), slog.String("error", err.Error()))
		}
	}

	r.log.Trace("Broadcast finished",
		slog.Int("delivered", d.Delivered),
		slog.Int("skipped", d.Skipped),
		slog.Int("failed", d.Failed),
	)
	return d
}

// CloseAll empties the registry and closes every session it held. Used on shutdown.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	sessions := lo.Values(r.sessions)
	r.sessions = make(map[string]ports.SessionPort)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(0)

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			r.log.Warn("Failed to close session", slog.String("session", s.ID()), slog.String("error", err.Error()))
		}
	}

	r.log.Info("Closed all sessions", slog.Int("count", len(sessions)))
	return len(sessions)
}
