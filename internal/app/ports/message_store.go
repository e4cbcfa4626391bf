//go:generate go run go.uber.org/mock/mockgen -source=message_store.go -destination=mocks/mock_message_store.go -package=mocks
package ports

import (
	"chatrelay/internal/app/domain/chat"
	"context"
)

// MessageStore never reports failures to the caller: an unreachable store saves nothing
// and returns no history, and the live broadcast path does not depend on it.
type MessageStore interface {
	Save(ctx context.Context, msg chat.Message)
	Recent(ctx context.Context, limit int) []chat.Message
	Available() bool
	Close() error
}

// StoreBackend is the storage technology behind a MessageStore.
// Latest returns at most limit records that carry a sender, newest first.
type StoreBackend interface {
	Name() string
	Insert(ctx context.Context, rec chat.Record) error
	Latest(ctx context.Context, limit int) ([]chat.Record, error)
	Close() error
}
