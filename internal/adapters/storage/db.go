package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// DSN returns the SQLite connection string for path with WAL mode, a busy
// timeout and foreign keys enabled.
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables exist; calling again is a no-op
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS batch (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		subject TEXT NOT NULL,
		total INTEGER NOT NULL,
		sent INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS send_result (
		batch_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		recipient TEXT NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (batch_id, position),
		FOREIGN KEY (batch_id) REFERENCES batch(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_batch_created_at ON batch(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
