// Package notification delivers claimed outbox rows: it renders the email
// for the row's template and hands it to the SMTP sender, with retry and
// backoff driven by the outbox run_at column.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assurdesk_backend/internal/email"
	"assurdesk_backend/internal/events"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

const maxAttempts = 5

// Store is the outbox surface the delivery service depends on.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkPending(ctx context.Context, id uuid.UUID, runAt time.Time, lastError *string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

type Service struct {
	store  Store
	sender email.Sender
	log    *logger.Logger
	now    func() time.Time
}

func New(store Store, sender email.Sender, log *logger.Logger) *Service {
	return &Service{store: store, sender: sender, log: log, now: time.Now}
}

// RegisterEventHandlers subscribes the delivery service to the outbox-due
// events published by the scheduler worker.
func (s *Service) RegisterEventHandlers(bus events.Bus) {
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			due, ok := event.(events.NotificationOutboxDue)
			if !ok {
				return nil
			}
			return s.Deliver(ctx, due.OutboxID)
		}))
}

// Deliver sends the email for one outbox row. A transport failure schedules
// a retry through the outbox run_at column; after maxAttempts the row is
// marked failed. Delivery failures never propagate to the state change that
// produced the row, which is already committed.
func (s *Service) Deliver(ctx context.Context, id uuid.UUID) error {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load outbox row %s: %w", id, err)
	}

	switch rec.Status {
	case outbox.StatusSucceeded, outbox.StatusFailed:
		// Re-enqueued duplicate, nothing to do.
		return nil
	}

	if err := s.store.MarkProcessing(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark processing %s: %w", rec.ID, err)
	}
	attempt := rec.Attempts + 1

	if err := s.send(ctx, rec); err != nil {
		return s.scheduleRetry(ctx, rec, attempt, err)
	}

	if err := s.store.MarkSucceeded(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark succeeded %s: %w", rec.ID, err)
	}
	s.log.OutboxEvent("delivered", rec.ID.String(), attempt)
	return nil
}

func (s *Service) send(ctx context.Context, rec outbox.Record) error {
	var payload outbox.EmailPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch rec.Template {
	case outbox.TemplateMessageReply:
		return s.sender.SendMessageReplyEmail(ctx, payload.To, payload.ToName, payload.Subject, payload.Body)
	case outbox.TemplateQuote:
		return s.sender.SendQuoteEmail(ctx, payload.To, payload.ToName, payload.QuoteRef, payload.TotalAmount)
	default:
		return fmt.Errorf("unknown template %q", rec.Template)
	}
}

func (s *Service) scheduleRetry(ctx context.Context, rec outbox.Record, attempt int, cause error) error {
	msg := cause.Error()

	if attempt >= maxAttempts {
		if err := s.store.MarkFailed(ctx, rec.ID, msg); err != nil {
			return fmt.Errorf("mark failed %s: %w", rec.ID, err)
		}
		s.log.OutboxEvent("failed", rec.ID.String(), attempt)
		return nil
	}

	runAt := s.now().Add(backoff(attempt))
	if err := s.store.MarkPending(ctx, rec.ID, runAt, &msg); err != nil {
		return fmt.Errorf("mark pending %s: %w", rec.ID, err)
	}
	s.log.OutboxEvent("retry_scheduled", rec.ID.String(), attempt)
	return nil
}

// backoff doubles per attempt: 1m, 2m, 4m, 8m.
func backoff(attempt int) time.Duration {
	return time.Minute << (attempt - 1)
}
