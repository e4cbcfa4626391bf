package ws

import (
	"errors"
	"github.com/gorilla/websocket"
	"io"
	"net"
	"strings"
)

// readErrorKind classifies why a read loop ended, for logging only.
func readErrorKind(err error) string {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		return "too_large"
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		return "closed_by_peer"
	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		return "abnormal"
	case isTimeout(err):
		return "timeout"
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), isExpectedCloseError(err):
		return "closed"
	}
	return "error"
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isExpectedCloseError reports errors produced by closing a connection
// that the other side or our own shutdown already closed.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	return strings.Contains(err.Error(), "broken pipe")
}
