package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mailroom/internal/adapters/storage"
	domain "mailroom/internal/domain/batch"
)

// timeLayout is fixed-width with nanoseconds so that text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no batch has the requested ID.
var ErrNotFound = errors.New("batch not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a batch and replaces its results in one transaction.
// PRE: b has been validated; results belong to b.ID
// POST: Batch row upserted; send_result rows match results exactly
func (s *SQLiteStore) Save(ctx context.Context, b domain.Batch, results []domain.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch (id, sender, subject, total, sent, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   sender=excluded.sender, subject=excluded.subject, total=excluded.total,
		   sent=excluded.sent, failed=excluded.failed, created_at=excluded.created_at`,
		b.ID, b.Sender, b.Subject, b.Total, b.Sent, b.Failed, b.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM send_result WHERE batch_id = ?`, b.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO send_result (batch_id, position, recipient, status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, b.ID, r.Position, r.Recipient, r.Status); err != nil {
			return fmt.Errorf("insert result %d: %w", r.Position, err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a batch by its ID.
// PRE: id is non-empty
// POST: Returns the batch or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sender, subject, total, sent, failed, created_at FROM batch WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Batch{}, ErrNotFound
	}
	return b, err
}

// GetResults retrieves the send log of a batch.
// PRE: batchID is non-empty
// POST: Returns results ordered by position (empty for unknown batch)
func (s *SQLiteStore) GetResults(ctx context.Context, batchID string) ([]domain.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_id, position, recipient, status FROM send_result
		 WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.BatchID, &r.Position, &r.Recipient, &r.Status); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// List retrieves batches matching the filter.
// PRE: none
// POST: Returns matching batches newest first; equal timestamps by insertion, newest first
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Batch, error) {
	query := `SELECT id, sender, subject, total, sent, failed, created_at FROM batch WHERE 1=1`
	var args []any

	if filter.Sender != "" {
		query += " AND sender = ?"
		args = append(args, filter.Sender)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(sc scanner) (domain.Batch, error) {
	var b domain.Batch
	var createdAt string
	if err := sc.Scan(&b.ID, &b.Sender, &b.Subject, &b.Total, &b.Sent, &b.Failed, &createdAt); err != nil {
		return domain.Batch{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	b.CreatedAt = t
	return b, nil
}
