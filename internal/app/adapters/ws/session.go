package ws

import (
	"chatrelay/internal/app/ports"
	"fmt"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"sync"
	"sync/atomic"
	"time"
)

const closeGrace = time.Second

// Session is one upgraded WebSocket connection seen through ports.SessionPort.
// gorilla allows a single concurrent writer, so data frames go through writeMu.
// Control frames (ping, close) are safe to write concurrently.
type Session struct {
	id           string
	remote       string
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	open    atomic.Bool
}

func NewSession(conn *websocket.Conn, remote string, writeTimeout time.Duration) *Session {
	s := &Session{
		id:           uuid.NewString(),
		remote:       remote,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
	s.open.Store(true)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Remote() string {
	return s.remote
}

func (s *Session) IsOpen() bool {
	return s.open.Load()
}

func (s *Session) Send(payload []byte) error {
	if !s.open.Load() {
		return ports.ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.open.Load() {
		return ports.ErrSessionClosed
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (s *Session) Ping() error {
	if !s.open.Load() {
		return ports.ErrSessionClosed
	}
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout))
}

// Close sends a normal-closure frame and drops the connection.
func (s *Session) Close() error {
	return s.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith is Close with an explicit close code, e.g. going-away on shutdown.
// Only the first call has an effect; later ones return ports.ErrSessionClosed.
func (s *Session) CloseWith(code int, reason string) error {
	if !s.open.CompareAndSwap(true, false) {
		return ports.ErrSessionClosed
	}

	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(closeGrace),
	)
	if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
		return err
	}
	return nil
}
