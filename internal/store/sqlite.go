package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ AuditStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	command TEXT NOT NULL,
	args    TEXT NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL,
	at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	channel TEXT NOT NULL,
	type    TEXT NOT NULL,
	message TEXT NOT NULL,
	at      TIMESTAMP NOT NULL
);
`

// SQLiteStore implements AuditStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordCommand appends one command invocation.
func (s *SQLiteStore) RecordCommand(ctx context.Context, command, args, outcome, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (command, args, outcome, message, at) VALUES (?, ?, ?, ?, ?)`,
		command, args, outcome, message, time.Now().UTC())
	return err
}

// RecordEvent appends one relayed stream event.
func (s *SQLiteStore) RecordEvent(ctx context.Context, channel, eventType, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (channel, type, message, at) VALUES (?, ?, ?, ?)`,
		channel, eventType, message, time.Now().UTC())
	return err
}

// RecentCommands returns the newest command records, up to limit.
func (s *SQLiteStore) RecentCommands(ctx context.Context, limit int) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, args, outcome, message, at FROM commands ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var r CommandRecord
		if err := rows.Scan(&r.ID, &r.Command, &r.Args, &r.Outcome, &r.Message, &r.At); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
