package fakes

import (
	"chatrelay/internal/app/ports"
	"sync"
	"sync/atomic"
)

// Session records every payload it is sent. It stands in for a websocket session in tests.
type Session struct {
	id   string
	open atomic.Bool

	mu      sync.Mutex
	frames  [][]byte
	sendErr error
	closes  int
	onSend  func(payload []byte)
}

var _ ports.SessionPort = (*Session)(nil)

func NewSession(id string) *Session {
	s := &Session{id: id}
	s.open.Store(true)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) IsOpen() bool {
	return s.open.Load()
}

func (s *Session) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open.Load() {
		return ports.ErrSessionClosed
	}
	if s.sendErr != nil {
		return s.sendErr
	}

	s.frames = append(s.frames, append([]byte(nil), payload...))
	if s.onSend != nil {
		s.onSend(payload)
	}
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open.Store(false)
	s.closes++
	return nil
}

// FailWith makes every following Send return err.
func (s *Session) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendErr = err
}

// SetOpen flips the open flag without counting a close.
func (s *Session) SetOpen(open bool) {
	s.open.Store(open)
}

// OnSend runs fn inside every successful Send.
func (s *Session) OnSend(fn func(payload []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onSend = fn
}

func (s *Session) Frames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = string(f)
	}
	return out
}

func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes
}
