package storage

import (
	"chatrelay/internal/app/domain/chat"
	"chatrelay/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const badgerPrefix = "msg:"

// Badger stores one key per message: "msg:{timestamp_hex}:{uuid}".
// The timestamp is written as 16 hex digits with the sign bit flipped, so byte
// order matches time order for negative values too. The uuid keeps two messages
// with the same timestamp apart.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens an on-disk database at dir, or an in-memory one when dir is empty.
func OpenBadger(dir string, log logger.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Name() string {
	return "badger"
}

func badgerKey(ts int64, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%016x:%s", badgerPrefix, uint64(ts)^(1<<63), id))
}

func (b *Badger) Insert(_ context.Context, r chat.Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(r.Timestamp, uuid.New()), value)
	})
}

func (b *Badger) Latest(ctx context.Context, limit int) ([]chat.Record, error) {
	out := make([]chat.Record, 0, limit)

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(badgerPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// every key under the prefix sorts below prefix+0xFF
		seek := append([]byte(badgerPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var r chat.Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) Close() error {
	if err := b.db.Close(); err != nil && !errors.Is(err, badger.ErrDBClosed) {
		return err
	}
	return nil
}

// badgerLogger routes badger's own logging into ours, one level quieter:
// badger is chatty at info.
type badgerLogger struct {
	log logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Warn("[badger] " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Info("[badger] " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug("[badger] " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace("[badger] " + fmt.Sprintf(format, args...))
}
