package storage

import (
	"chatrelay/internal/app/domain/chat"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	sender    TEXT,
	content   TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
`

type SQLite struct {
	db   *sql.DB
	path string
}

func OpenSQLite(ctx context.Context, path string, busyTimeout time.Duration) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// a single writer keeps SQLITE_BUSY out of the hot path
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{"PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL"}
	if ms := busyTimeout.Milliseconds(); ms > 0 {
		pragmas = append([]string{fmt.Sprintf("PRAGMA busy_timeout = %d", ms)}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) Insert(ctx context.Context, r chat.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (sender, content, timestamp) VALUES (?, ?, ?)`,
		r.Sender, r.Content, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *SQLite) Latest(ctx context.Context, limit int) ([]chat.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, content, timestamp FROM messages
		 WHERE sender IS NOT NULL
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := make([]chat.Record, 0, limit)
	for rows.Next() {
		var r chat.Record
		if err := rows.Scan(&r.Sender, &r.Content, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
