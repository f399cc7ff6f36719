package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	records map[uuid.UUID]outbox.Record

	pendingRunAt *time.Time
	failedError  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uuid.UUID]outbox.Record)}
}

func (f *fakeStore) addRecord(template string, payload outbox.EmailPayload, attempts int) outbox.Record {
	raw, _ := json.Marshal(payload)
	rec := outbox.Record{
		ID:       uuid.New(),
		Kind:     outbox.KindEmail,
		Template: template,
		Payload:  raw,
		RunAt:    time.Now(),
		Status:   outbox.StatusEnqueued,
		Attempts: attempts,
	}
	f.records[rec.ID] = rec
	return rec
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return outbox.Record{}, errors.New("no rows")
	}
	return rec, nil
}

func (f *fakeStore) MarkProcessing(_ context.Context, id uuid.UUID) error {
	rec := f.records[id]
	rec.Status = outbox.StatusProcessing
	rec.Attempts++
	f.records[id] = rec
	return nil
}

func (f *fakeStore) MarkSucceeded(_ context.Context, id uuid.UUID) error {
	rec := f.records[id]
	rec.Status = outbox.StatusSucceeded
	f.records[id] = rec
	return nil
}

func (f *fakeStore) MarkPending(_ context.Context, id uuid.UUID, runAt time.Time, _ *string) error {
	rec := f.records[id]
	rec.Status = outbox.StatusPending
	rec.RunAt = runAt
	f.records[id] = rec
	f.pendingRunAt = &runAt
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	rec := f.records[id]
	rec.Status = outbox.StatusFailed
	f.records[id] = rec
	f.failedError = lastError
	return nil
}

type fakeSender struct {
	err     error
	replies []string
	quotes  []string
}

func (f *fakeSender) SendMessageReplyEmail(_ context.Context, toEmail, _, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.replies = append(f.replies, toEmail)
	return nil
}

func (f *fakeSender) SendQuoteEmail(_ context.Context, toEmail, _, quoteRef, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.quotes = append(f.quotes, quoteRef)
	return nil
}

func newTestService(store *fakeStore, sender *fakeSender) *Service {
	return New(store, sender, logger.New("test"))
}

func TestDeliverMessageReply(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	rec := store.addRecord(outbox.TemplateMessageReply, outbox.EmailPayload{
		To: "jean@example.com", ToName: "Jean Martin", Subject: "Re: contrat", Body: "Bonjour",
	}, 0)

	svc := newTestService(store, sender)
	if err := svc.Deliver(context.Background(), rec.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if got := store.records[rec.ID].Status; got != outbox.StatusSucceeded {
		t.Fatalf("status = %s, want succeeded", got)
	}
	if len(sender.replies) != 1 || sender.replies[0] != "jean@example.com" {
		t.Fatalf("replies = %v", sender.replies)
	}
}

func TestDeliverQuote(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	rec := store.addRecord(outbox.TemplateQuote, outbox.EmailPayload{
		To: "marie@example.com", ToName: "Marie", QuoteRef: "Q-20260901-AAAA1111", TotalAmount: "450,00 €",
	}, 0)

	svc := newTestService(store, sender)
	if err := svc.Deliver(context.Background(), rec.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if len(sender.quotes) != 1 || sender.quotes[0] != "Q-20260901-AAAA1111" {
		t.Fatalf("quotes = %v", sender.quotes)
	}
}

func TestDeliverFailureSchedulesRetryWithBackoff(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{err: errors.New("connection refused")}
	rec := store.addRecord(outbox.TemplateMessageReply, outbox.EmailPayload{To: "x@example.com"}, 1)

	svc := newTestService(store, sender)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.Deliver(context.Background(), rec.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if got := store.records[rec.ID].Status; got != outbox.StatusPending {
		t.Fatalf("status = %s, want pending", got)
	}
	if store.pendingRunAt == nil {
		t.Fatal("expected a retry run time")
	}
	// Second attempt backs off two minutes.
	if want := now.Add(2 * time.Minute); !store.pendingRunAt.Equal(want) {
		t.Fatalf("run_at = %v, want %v", *store.pendingRunAt, want)
	}
}

func TestDeliverExhaustedAttemptsMarksFailed(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{err: errors.New("mailbox unavailable")}
	rec := store.addRecord(outbox.TemplateMessageReply, outbox.EmailPayload{To: "x@example.com"}, 4)

	svc := newTestService(store, sender)
	if err := svc.Deliver(context.Background(), rec.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if got := store.records[rec.ID].Status; got != outbox.StatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
	if store.failedError != "mailbox unavailable" {
		t.Fatalf("last error = %q", store.failedError)
	}
}

func TestDeliverSucceededRowIsNoOp(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	rec := store.addRecord(outbox.TemplateMessageReply, outbox.EmailPayload{To: "x@example.com"}, 1)
	done := store.records[rec.ID]
	done.Status = outbox.StatusSucceeded
	store.records[rec.ID] = done

	svc := newTestService(store, sender)
	if err := svc.Deliver(context.Background(), rec.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(sender.replies) != 0 {
		t.Fatal("no email should be sent for an already delivered row")
	}
}

func TestDeliverUnknownTemplateRetriesThenFails(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	rec := store.addRecord("bogus_template", outbox.EmailPayload{To: "x@example.com"}, 4)

	svc := newTestService(store, sender)
	if err := svc.Deliver(context.Background(), rec.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := store.records[rec.ID].Status; got != outbox.StatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}
