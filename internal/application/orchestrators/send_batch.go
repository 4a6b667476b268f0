package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	emailAdapter "mailroom/internal/adapters/email"
	"mailroom/internal/domain/batch"
	"mailroom/internal/domain/contact"
	"mailroom/internal/domain/email"
)

// ContactLoader defines the store interface needed by SendBatch.
type ContactLoader interface {
	Load(ctx context.Context) ([]contact.Contact, error)
}

// BatchStoreForSend defines the history store interface needed by SendBatch.
type BatchStoreForSend interface {
	Save(ctx context.Context, b batch.Batch, results []batch.Result) error
}

// SendBatchInput carries input for the send orchestrator.
type SendBatchInput struct {
	Credentials email.Credentials
	Template    email.MessageTemplate
}

// SendBatchDeps holds dependencies for SendBatch.
type SendBatchDeps struct {
	Contacts   ContactLoader
	Sender     emailAdapter.Sender
	ReadFile   func(path string) ([]byte, error) // Defaults to os.ReadFile
	RenderHTML func(body string) (string, error) // Optional
	BatchStore BatchStoreForSend                 // Optional
	Workers    int                               // <= 1 sends sequentially
	GenerateID func() string                     // Defaults to uuid.NewString
	Now        func() time.Time                  // Defaults to time.Now
}

// SendBatchResult carries the send log of one batch.
type SendBatchResult struct {
	BatchID string
	Log     []email.SendResult
	Sent    int
	Failed  int
}

// ExecuteSendBatch composes and delivers the template to every loaded contact.
// PRE: Credentials are present; a contact list has been uploaded
// POST: Log has exactly one entry per contact, in contact order
// INVARIANT: A failing recipient never stops the batch; cancelling ctx marks
// every unsent recipient with the context error
func ExecuteSendBatch(ctx context.Context, input SendBatchInput, deps SendBatchDeps) (SendBatchResult, error) {
	if input.Credentials.Validate() != nil {
		return SendBatchResult{}, ErrNotAuthenticated
	}

	contacts, err := deps.Contacts.Load(ctx)
	if err != nil {
		return SendBatchResult{}, err
	}

	readFile := deps.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	composeDeps := ComposeMessageDeps{
		ReadFile:   newMemoReader(readFile).ReadFile,
		RenderHTML: deps.RenderHTML,
	}

	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}

	log := make([]email.SendResult, len(contacts))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range contacts {
		g.Go(func() error {
			log[i] = sendOne(ctx, input, c, composeDeps, deps.Sender)
			return nil
		})
	}
	_ = g.Wait()

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	genID := uuid.NewString
	if deps.GenerateID != nil {
		genID = deps.GenerateID
	}

	b := batch.New(genID(), input.Credentials.Address, input.Template.Subject, log, now())
	slog.Info("email_event", "event", "batch_sent",
		"batch_id", b.ID, "sender", b.Sender, "total", b.Total, "sent", b.Sent, "failed", b.Failed)

	if deps.BatchStore != nil {
		// History is best effort; the log is returned either way.
		saveBatch(context.WithoutCancel(ctx), deps.BatchStore, b, log)
	}

	return SendBatchResult{BatchID: b.ID, Log: log, Sent: b.Sent, Failed: b.Failed}, nil
}

func saveBatch(ctx context.Context, store BatchStoreForSend, b batch.Batch, log []email.SendResult) {
	if err := b.Validate(); err != nil {
		slog.Error("email_event", "event", "batch_history_skipped", "batch_id", b.ID, "error", err)
		return
	}
	if err := store.Save(ctx, b, batch.Results(b.ID, log)); err != nil {
		slog.Error("email_event", "event", "batch_history_failed", "batch_id", b.ID, "error", err)
	}
}

// sendOne produces the SendResult for a single contact.
func sendOne(ctx context.Context, input SendBatchInput, c contact.Contact, composeDeps ComposeMessageDeps, sender emailAdapter.Sender) email.SendResult {
	if err := ctx.Err(); err != nil {
		return email.Failed(c.Email, err)
	}

	msg, err := ComposeMessage(ComposeMessageInput{
		Sender:   input.Credentials.Address,
		Contact:  c,
		Template: input.Template,
	}, composeDeps)
	if err != nil {
		slog.Warn("email_event", "event", "compose_failed", "to", c.Email, "error", err)
		return email.Failed(c.Email, err)
	}

	if err := sender.Send(ctx, input.Credentials, msg); err != nil {
		var de *email.DeliveryError
		if !errors.As(err, &de) {
			err = &email.DeliveryError{Recipient: c.Email, Err: err}
		}
		slog.Warn("email_event", "event", "delivery_failed", "to", c.Email, "error", err)
		return email.Failed(c.Email, err)
	}
	return email.Sent(c.Email)
}

// memoReader reads each attachment path at most once per batch.
type memoReader struct {
	read  func(string) ([]byte, error)
	mu    sync.Mutex
	cache map[string]memoEntry
}

type memoEntry struct {
	data []byte
	err  error
}

func newMemoReader(read func(string) ([]byte, error)) *memoReader {
	return &memoReader{read: read, cache: make(map[string]memoEntry)}
}

// ReadFile returns the cached contents of path, reading it on first use.
func (m *memoReader) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.cache[path]; ok {
		return e.data, e.err
	}
	data, err := m.read(path)
	m.cache[path] = memoEntry{data: data, err: err}
	return data, err
}
