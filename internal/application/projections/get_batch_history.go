package projections

import (
	"context"
	"time"

	"mailroom/internal/adapters/storage/batch"
)

// MaxHistoryLimit caps how many batches one history query returns.
const MaxHistoryLimit = 200

// GetBatchHistoryQuery carries query parameters.
type GetBatchHistoryQuery struct {
	Sender string // Only batches sent from this address (empty = all)
	Limit  int
}

// BatchSummary is one row of the history list.
type BatchSummary struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Total     int       `json:"total"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// GetBatchHistoryResult carries the query result.
type GetBatchHistoryResult struct {
	Batches []BatchSummary `json:"batches"`
}

// GetBatchHistoryDeps holds dependencies for GetBatchHistory.
type GetBatchHistoryDeps struct {
	BatchStore BatchStore
}

// QueryGetBatchHistory lists recent batches, newest first.
// PRE: none
// POST: At most min(Limit, MaxHistoryLimit) rows; Batches is never nil
func QueryGetBatchHistory(ctx context.Context, query GetBatchHistoryQuery, deps GetBatchHistoryDeps) (GetBatchHistoryResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = batch.DefaultListLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	batches, err := deps.BatchStore.List(ctx, batch.ListFilter{Sender: query.Sender, Limit: limit})
	if err != nil {
		return GetBatchHistoryResult{}, err
	}

	result := GetBatchHistoryResult{Batches: make([]BatchSummary, 0, len(batches))}
	for _, b := range batches {
		result.Batches = append(result.Batches, BatchSummary{
			ID:        b.ID,
			Sender:    b.Sender,
			Subject:   b.Subject,
			Total:     b.Total,
			Sent:      b.Sent,
			Failed:    b.Failed,
			CreatedAt: b.CreatedAt,
		})
	}
	return result, nil
}
