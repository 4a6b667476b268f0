package batch

import (
	"context"

	domain "mailroom/internal/domain/batch"
)

// Store persists sent batches and their per-recipient results.
type Store interface {
	Save(ctx context.Context, b domain.Batch, results []domain.Result) error
	GetByID(ctx context.Context, id string) (domain.Batch, error)
	GetResults(ctx context.Context, batchID string) ([]domain.Result, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Batch, error)
}

// ListFilter specifies criteria for listing batches.
type ListFilter struct {
	Sender string // Filter by sender address (empty = all)
	Limit  int    // Maximum rows (<= 0 = DefaultListLimit)
}

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50
