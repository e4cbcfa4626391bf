package endpoint

import (
	"chatrelay/internal/app/adapters/metrics"
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/domain/registry"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

const DefaultHistoryLimit = 25

type State int32

const (
	StateOpen State = iota + 1
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Outcome - what happened to one inbound frame.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeBroadcast
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBroadcast:
		return "broadcast"
	case OutcomeRejected:
		return "rejected"
	}
	return "ignored"
}

type Options struct {
	HistoryLimit int
	Clock        func() time.Time
}

// Endpoint drives the per-connection lifecycle. It knows nothing about the transport.
type Endpoint struct {
	log      logger.Logger
	registry *registry.Registry
	store    ports.MessageStore

	historyLimit int
	now          func() time.Time
}

func New(log logger.Logger, reg *registry.Registry, store ports.MessageStore, opts Options) *Endpoint {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Endpoint{
		log:          log,
		registry:     reg,
		store:        store,
		historyLimit: opts.HistoryLimit,
		now:          opts.Clock,
	}
}

// Conn is the state of one connection after the transport handshake.
type Conn struct {
	ep      *Endpoint
	session ports.SessionPort
	state   atomic.Int32
}

// Open registers the session and then sends it the stored history, oldest first.
// A broadcast racing with the history may reach the session before, after, or in
// addition to the history tail.
func (e *Endpoint) Open(ctx context.Context, s ports.SessionPort) *Conn {
	c := &Conn{ep: e, session: s}
	c.state.Store(int32(StateOpen))

	e.registry.Register(s)
	metrics.SessionsTotal.Inc()
	e.log.Info("Session connected", slog.String("session", s.ID()))

	e.sendHistory(ctx, c)
	return c
}

func (e *Endpoint) sendHistory(ctx context.Context, c *Conn) {
	history := e.store.Recent(ctx, e.historyLimit)

	for i, msg := range history {
		if c.State() != StateOpen {
			return
		}

		payload, err := msg.Encode()
		if err != nil {
			e.log.Warn("Failed to encode history message", slog.String("session", c.ID()), slog.String("error", err.Error()))
			continue
		}

		if err := c.session.Send(payload); err != nil {
			metrics.Deliveries.WithLabelValues("history", metrics.ResultFailed).Inc()
			e.log.Warn("History delivery failed",
				slog.String("session", c.ID()),
				slog.Int("sent", i),
				slog.Int("total", len(history)),
				slog.String("error", err.Error()),
			)
			c.Close()
			return
		}
		metrics.Deliveries.WithLabelValues("history", metrics.ResultDelivered).Inc()
	}

	e.log.Debug("History sent", slog.String("session", c.ID()), slog.Int("count", len(history)))
}

func (c *Conn) ID() string {
	return c.session.ID()
}

func (c *Conn) State() State {
	return State(c.state.Load())
}

// Receive handles one inbound text frame. Frames arriving after Close are ignored.
func (c *Conn) Receive(ctx context.Context, raw []byte) Outcome {
	outcome := c.receive(ctx, raw)
	metrics.MessagesReceived.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (c *Conn) receive(ctx context.Context, raw []byte) Outcome {
	if c.State() != StateOpen {
		return OutcomeIgnored
	}

	msg, err := chat.Parse(raw)
	if err != nil {
		c.ep.log.Warn("Session sent invalid payload", slog.String("session", c.ID()), slog.String("error", err.Error()))
		c.reject(chat.ReasonInvalidMessage)
		return OutcomeRejected
	}

	msg = msg.WithTimestamp(c.ep.now())
	c.ep.store.Save(ctx, msg)
	c.ep.registry.Broadcast(msg)
	return OutcomeBroadcast
}

func (c *Conn) reject(reason string) {
	payload, err := chat.EncodeError(reason)
	if err != nil {
		c.ep.log.Error("Failed to encode error frame", err, slog.String("session", c.ID()))
		return
	}

	if err := c.session.Send(payload); err != nil {
		c.ep.log.Warn("Failed to send error frame", slog.String("session", c.ID()), slog.String("error", err.Error()))
		c.Close()
	}
}

// Close moves the connection to CLOSED once; later calls report false and do nothing.
func (c *Conn) Close() bool {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		return false
	}

	c.ep.registry.Deregister(c.session)
	if err := c.session.Close(); err != nil && !errors.Is(err, ports.ErrSessionClosed) {
		c.ep.log.Debug("Session close returned error", slog.String("session", c.ID()), slog.String("error", err.Error()))
	}

	c.ep.log.Info("Session disconnected", slog.String("session", c.ID()))
	return true
}
