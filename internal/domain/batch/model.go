package batch

import (
	"errors"
	"time"

	"mailroom/internal/domain/email"
)

// Domain errors
var (
	ErrEmptyID     = errors.New("batch ID is required")
	ErrEmptySender = errors.New("batch sender is required")
)

// Batch records one send run over the loaded contact list.
type Batch struct {
	ID        string
	Sender    string // Address the batch was sent from
	Subject   string
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

// Result is a stored SendResult, positioned within its batch.
type Result struct {
	BatchID   string
	Position  int // 0-based index in contact order
	Recipient string
	Status    string
}

// New builds a Batch whose counters are derived from log.
// PRE: id and sender are non-empty
// POST: Total == len(log); Sent + Failed == Total
func New(id, sender, subject string, log []email.SendResult, createdAt time.Time) Batch {
	b := Batch{
		ID:        id,
		Sender:    sender,
		Subject:   subject,
		Total:     len(log),
		CreatedAt: createdAt,
	}
	for _, r := range log {
		if r.IsSent() {
			b.Sent++
		} else {
			b.Failed++
		}
	}
	return b
}

// Validate checks that the Batch has valid data.
// PRE: Batch struct is populated
// POST: Returns nil if valid, error otherwise
func (b Batch) Validate() error {
	if b.ID == "" {
		return ErrEmptyID
	}
	if b.Sender == "" {
		return ErrEmptySender
	}
	if b.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if b.Sent+b.Failed != b.Total {
		return errors.New("sent and failed counts must add up to total")
	}
	return nil
}

// Results converts a send log into positioned rows for storage.
// INVARIANT: Position preserves the order of log
func Results(batchID string, log []email.SendResult) []Result {
	rows := make([]Result, len(log))
	for i, r := range log {
		rows[i] = Result{BatchID: batchID, Position: i, Recipient: r.Recipient, Status: r.Status}
	}
	return rows
}
