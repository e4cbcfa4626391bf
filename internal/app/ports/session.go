package ports

import "errors"

var ErrSessionClosed = errors.New("session closed")

// SessionPort - one live connection as seen by the registry and the endpoint.
// Send must be safe for concurrent use; implementations serialize writes to the transport.
type SessionPort interface {
	ID() string
	IsOpen() bool
	Send(payload []byte) error
	Close() error
}
