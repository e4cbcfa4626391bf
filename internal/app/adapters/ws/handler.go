package ws

import (
	"chatrelay/internal/app/adapters/metrics"
	"chatrelay/internal/app/domain/endpoint"
	"chatrelay/pkg/logger"
	"context"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Options struct {
	MaxMessageSize int64
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	// RateBurst frames per RateInterval; zero disables the limiter.
	RateBurst    int
	RateInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4096
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
}

// Handler upgrades HTTP requests and runs one read loop per connection,
// feeding every text frame to the endpoint.
type Handler struct {
	log      logger.Logger
	endpoint *endpoint.Endpoint
	origins  *OriginPolicy
	upgrader websocket.Upgrader
	opts     Options

	conns sync.WaitGroup
}

func NewHandler(log logger.Logger, ep *endpoint.Endpoint, origins *OriginPolicy, opts Options) *Handler {
	opts.withDefaults()

	h := &Handler{
		log:      log,
		endpoint: ep,
		origins:  origins,
		opts:     opts,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	for _, o := range origins.Invalid() {
		log.Warn("Ignoring invalid origin in configuration", slog.String("origin", o))
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if h.origins.Allowed(origin) {
		return true
	}

	h.log.Warn("Blocked WebSocket connection from disallowed origin",
		slog.String("origin", origin),
		slog.String("remote", r.RemoteAddr),
	)
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered with an HTTP error
		h.log.Debug("WebSocket upgrade failed", slog.String("remote", r.RemoteAddr), slog.String("error", err.Error()))
		return
	}

	h.conns.Add(1)
	defer h.conns.Done()

	h.serve(r.Context(), conn, r.RemoteAddr)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, remote string) {
	s := NewSession(conn, remote, h.opts.WriteTimeout)

	conn.SetReadLimit(h.opts.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.opts.PongTimeout)); err != nil {
		h.log.Warn("Failed to set read deadline", slog.String("session", s.ID()), slog.String("error", err.Error()))
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	})

	c := h.endpoint.Open(ctx, s)
	defer c.Close()

	if c.State() != endpoint.StateOpen {
		return
	}

	stop := make(chan struct{})
	defer close(stop)
	go h.keepAlive(s, stop)

	limiter := h.newLimiter()
	for {
		typ, raw, err := conn.ReadMessage()
		if err != nil {
			h.log.Debug("Read loop finished",
				slog.String("session", s.ID()),
				slog.String("reason", readErrorKind(err)),
				slog.String("error", err.Error()),
			)
			return
		}

		if typ != websocket.TextMessage {
			h.log.Debug("Ignoring non-text frame", slog.String("session", s.ID()), slog.Int("type", typ))
			continue
		}

		if limiter != nil && !limiter.Allow() {
			metrics.MessagesReceived.WithLabelValues("rate_limited").Inc()
			h.log.Warn("Rate limit exceeded, discarding message",
				slog.String("session", s.ID()),
				slog.Int("burst", h.opts.RateBurst),
				slog.Duration("interval", h.opts.RateInterval),
			)
			continue
		}

		c.Receive(ctx, raw)
	}
}

func (h *Handler) newLimiter() *rate.Limiter {
	if h.opts.RateBurst <= 0 || h.opts.RateInterval <= 0 {
		return nil
	}
	every := h.opts.RateInterval / time.Duration(h.opts.RateBurst)
	return rate.NewLimiter(rate.Every(every), h.opts.RateBurst)
}

func (h *Handler) keepAlive(s *Session, stop <-chan struct{}) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.Ping(); err != nil {
				h.log.Debug("Ping failed", slog.String("session", s.ID()), slog.String("error", err.Error()))
				return
			}
		}
	}
}

// Wait blocks until every read loop has returned or ctx ends.
// Close the sessions first; otherwise the loops keep running.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
