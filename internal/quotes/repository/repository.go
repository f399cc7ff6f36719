// Package repository provides persistence for quotes and their line items.
// Status transitions land in the same transaction as their audit event and,
// for sends, the outbox email row.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	convdomain "assurdesk_backend/internal/conversations/domain"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/internal/quotes/domain"
	"assurdesk_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrQuoteNotFound = errors.New("quote not found")

// OutboxWriter lets the repository append an email notification inside the
// same transaction as the state change.
type OutboxWriter interface {
	Insert(ctx context.Context, q db.DBTX, p outbox.InsertParams) (uuid.UUID, error)
}

type Repository struct {
	pool   *pgxpool.Pool
	outbox OutboxWriter
}

func New(pool *pgxpool.Pool, outboxWriter OutboxWriter) *Repository {
	return &Repository{pool: pool, outbox: outboxWriter}
}

const quoteColumns = `id, conversation_id, client_id, reference, status, total_cents,
	valid_until, sent_at, created_at, updated_at`

func scanQuote(row pgx.Row) (domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(
		&q.ID, &q.ConversationID, &q.ClientID, &q.Reference, &q.Status,
		&q.TotalCents, &q.ValidUntil, &q.SentAt, &q.CreatedAt, &q.UpdatedAt,
	)
	return q, err
}

type CreateItemParams struct {
	Label          string
	Description    *string
	Quantity       int
	UnitPriceCents int64
}

type CreateQuoteParams struct {
	ConversationID uuid.UUID
	ClientID       uuid.UUID
	Reference      string
	TotalCents     int64
	ValidUntil     *time.Time
	Items          []CreateItemParams
}

// CreateQuote inserts the quote and all its line items in one transaction.
func (r *Repository) CreateQuote(ctx context.Context, params CreateQuoteParams) (domain.Quote, error) {
	var quote domain.Quote
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		quote, err = scanQuote(tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO quotes (conversation_id, client_id, reference, status, total_cents, valid_until)
			VALUES ($1, $2, $3, 'draft', $4, $5)
			RETURNING %s
		`, quoteColumns),
			params.ConversationID, params.ClientID, params.Reference,
			params.TotalCents, params.ValidUntil,
		))
		if err != nil {
			return err
		}

		for _, item := range params.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO quote_items (quote_id, label, description, quantity, unit_price_cents, total_cents)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, quote.ID, item.Label, item.Description, item.Quantity,
				item.UnitPriceCents, domain.LineTotal(item.UnitPriceCents, item.Quantity),
			); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

func (r *Repository) GetQuote(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	quote, err := scanQuote(r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM quotes WHERE id = $1
	`, quoteColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quote{}, ErrQuoteNotFound
	}
	return quote, err
}

func (r *Repository) ListItems(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, label, description, quantity, unit_price_cents, total_cents, created_at
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY created_at ASC
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.QuoteItem, 0)
	for rows.Next() {
		var item domain.QuoteItem
		if err := rows.Scan(
			&item.ID, &item.QuoteID, &item.Label, &item.Description,
			&item.Quantity, &item.UnitPriceCents, &item.TotalCents, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

func (r *Repository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Quote, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM quotes
		WHERE conversation_id = $1
		ORDER BY created_at DESC
	`, quoteColumns), conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]domain.Quote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return quotes, nil
}

type SendQuoteParams struct {
	QuoteID uuid.UUID
	Outbox  *outbox.InsertParams
}

// SendQuote moves a draft quote to sent, recording the audit event and the
// email outbox row in the same transaction. ErrQuoteNotFound means the quote
// does not exist or is not a draft.
func (r *Repository) SendQuote(ctx context.Context, params SendQuoteParams) (domain.Quote, error) {
	var quote domain.Quote
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		quote, err = scanQuote(tx.QueryRow(ctx, fmt.Sprintf(`
			UPDATE quotes
			SET status = 'sent', sent_at = now(), updated_at = now()
			WHERE id = $1 AND status = 'draft'
			RETURNING %s
		`, quoteColumns), params.QuoteID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuoteNotFound
		}
		if err != nil {
			return err
		}

		if err := insertAuditEvent(ctx, tx, convdomain.EventQuoteSent, quote.ID, map[string]any{
			"reference":       quote.Reference,
			"conversation_id": quote.ConversationID.String(),
			"total_cents":     quote.TotalCents,
		}); err != nil {
			return err
		}

		if params.Outbox != nil {
			if _, err := r.outbox.Insert(ctx, tx, *params.Outbox); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

type UpdateStatusParams struct {
	QuoteID uuid.UUID
	Status  domain.QuoteStatus
}

// UpdateStatus moves a sent quote to a terminal state and records the audit
// event for acceptances. ErrQuoteNotFound means the quote does not exist or
// is not in the sent state.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (domain.Quote, error) {
	var quote domain.Quote
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		quote, err = scanQuote(tx.QueryRow(ctx, fmt.Sprintf(`
			UPDATE quotes
			SET status = $2, updated_at = now()
			WHERE id = $1 AND status = 'sent'
			RETURNING %s
		`, quoteColumns), params.QuoteID, params.Status))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuoteNotFound
		}
		if err != nil {
			return err
		}

		if params.Status == domain.QuoteAccepted {
			return insertAuditEvent(ctx, tx, convdomain.EventQuoteAccepted, quote.ID, map[string]any{
				"reference":       quote.Reference,
				"conversation_id": quote.ConversationID.String(),
				"total_cents":     quote.TotalCents,
			})
		}
		return nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

func insertAuditEvent(ctx context.Context, q db.DBTX, eventType string, refID uuid.UUID, meta map[string]any) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO events (type, ref_id, meta)
		VALUES ($1, $2, $3)
	`, eventType, refID, metaJSON)
	return err
}
