package projections

import (
	"context"

	"mailroom/internal/adapters/storage/batch"
	domainBatch "mailroom/internal/domain/batch"
)

// BatchStore interface for batch history queries.
type BatchStore interface {
	GetByID(ctx context.Context, id string) (domainBatch.Batch, error)
	GetResults(ctx context.Context, batchID string) ([]domainBatch.Result, error)
	List(ctx context.Context, filter batch.ListFilter) ([]domainBatch.Batch, error)
}
