package projections

import (
	"context"
	"errors"
)

// ErrBatchNotVisible is returned when a batch belongs to another sender.
var ErrBatchNotVisible = errors.New("batch not found")

// GetBatchDetailQuery carries query parameters.
type GetBatchDetailQuery struct {
	BatchID string
	Sender  string // When set, batches from other senders are hidden
}

// LogEntry is one recipient outcome, shaped like the send response.
type LogEntry struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// GetBatchDetailResult carries the query result.
type GetBatchDetailResult struct {
	BatchSummary
	Logs []LogEntry `json:"logs"`
}

// GetBatchDetailDeps holds dependencies for GetBatchDetail.
type GetBatchDetailDeps struct {
	BatchStore BatchStore
}

// QueryGetBatchDetail retrieves one batch with its send log.
// PRE: BatchID is non-empty
// POST: Logs are in original contact order
func QueryGetBatchDetail(ctx context.Context, query GetBatchDetailQuery, deps GetBatchDetailDeps) (GetBatchDetailResult, error) {
	b, err := deps.BatchStore.GetByID(ctx, query.BatchID)
	if err != nil {
		return GetBatchDetailResult{}, err
	}
	if query.Sender != "" && b.Sender != query.Sender {
		return GetBatchDetailResult{}, ErrBatchNotVisible
	}

	rows, err := deps.BatchStore.GetResults(ctx, b.ID)
	if err != nil {
		return GetBatchDetailResult{}, err
	}

	result := GetBatchDetailResult{
		BatchSummary: BatchSummary{
			ID:        b.ID,
			Sender:    b.Sender,
			Subject:   b.Subject,
			Total:     b.Total,
			Sent:      b.Sent,
			Failed:    b.Failed,
			CreatedAt: b.CreatedAt,
		},
		Logs: make([]LogEntry, 0, len(rows)),
	}
	for _, r := range rows {
		result.Logs = append(result.Logs, LogEntry{Email: r.Recipient, Status: r.Status})
	}
	return result, nil
}
