package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assurdesk_backend/internal/conversations/domain"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// insertAuditEvent appends a row to the immutable events table through q.
func insertAuditEvent(ctx context.Context, q db.DBTX, eventType string, refID uuid.UUID, meta map[string]any) error {
	var metaJSON []byte
	if meta != nil {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metaJSON = encoded
	}

	_, err := q.Exec(ctx, `
		INSERT INTO events (type, ref_id, meta)
		VALUES ($1, $2, $3)
	`, eventType, refID, metaJSON)
	return err
}

type CreateMessageParams struct {
	ConversationID      uuid.UUID
	ClientID            uuid.UUID
	Sender              domain.Sender
	Direction           domain.Direction
	Subject             *string
	Body                string
	Status              domain.MessageStatus
	UnblockConversation bool
	Outbox              *outbox.InsertParams
}

// CreateMessage inserts the message and applies every bookkeeping side
// effect in one transaction: conversation counters, client contact
// freshness, the audit event, and an optional outbox email row.
func (r *Repository) CreateMessage(ctx context.Context, params CreateMessageParams) (domain.Message, error) {
	var msg domain.Message
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		msg, err = scanMessage(tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO messages (conversation_id, sender, direction, subject, body, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING %s
		`, messageColumns),
			params.ConversationID, params.Sender, params.Direction,
			params.Subject, params.Body, params.Status,
		))
		if err != nil {
			return err
		}

		conversationUpdate := `
			UPDATE conversations
			SET message_count = message_count + 1, last_activity_at = now(), updated_at = now()
			WHERE id = $1`
		if params.UnblockConversation {
			conversationUpdate = `
			UPDATE conversations
			SET message_count = message_count + 1, last_activity_at = now(), updated_at = now(),
				status = CASE WHEN status = 'blocked' THEN 'active' ELSE status END
			WHERE id = $1`
		}
		if _, err := tx.Exec(ctx, conversationUpdate, params.ConversationID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE clients SET last_contact_at = now(), updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL
		`, params.ClientID); err != nil {
			return err
		}

		if err := insertAuditEvent(ctx, tx, domain.EventMessageCreated, msg.ID, map[string]any{
			"sender":          string(params.Sender),
			"conversation_id": params.ConversationID.String(),
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
		return domain.Message{}, err
	}
	return msg, nil
}

type ValidateMessageParams struct {
	MessageID    uuid.UUID
	Body         string
	OriginalBody *string
	IsModified   bool
	ValidatedBy  uuid.UUID

	ConversationID     uuid.UUID
	ConversationStatus domain.ConversationStatus
	MarkCompleted      bool
	CompletionReason   *domain.CompletionReason

	Outbox *outbox.InsertParams
}

// ValidateMessage marks a pending draft validated and applies the
// conversation update, audit event, and outbox email in one transaction.
func (r *Repository) ValidateMessage(ctx context.Context, params ValidateMessageParams) (domain.Message, error) {
	var msg domain.Message
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		msg, err = scanMessage(tx.QueryRow(ctx, fmt.Sprintf(`
			UPDATE messages
			SET body = $2, original_body = COALESCE($3, original_body), is_modified = $4,
				status = 'validated', validated_by = $5, validated_at = now(), updated_at = now()
			WHERE id = $1 AND status = 'pending'
			RETURNING %s
		`, messageColumns),
			params.MessageID, params.Body, params.OriginalBody, params.IsModified, params.ValidatedBy,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}

		if params.MarkCompleted {
			if _, err := tx.Exec(ctx, `
				UPDATE conversations
				SET status = $2, is_completed = true, completion_reason = COALESCE($3, completion_reason),
					updated_at = now()
				WHERE id = $1
			`, params.ConversationID, params.ConversationStatus, params.CompletionReason); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE conversations SET status = $2, updated_at = now()
				WHERE id = $1
			`, params.ConversationID, params.ConversationStatus); err != nil {
				return err
			}
		}

		if err := insertAuditEvent(ctx, tx, domain.EventMessageValidated, msg.ID, map[string]any{
			"validator_id":    params.ValidatedBy.String(),
			"is_modified":     params.IsModified,
			"previous_status": string(domain.MessagePending),
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
		return domain.Message{}, err
	}
	return msg, nil
}

type RejectMessageParams struct {
	MessageID   uuid.UUID
	ValidatedBy uuid.UUID
}

// RejectMessage marks a pending draft rejected and records the audit event.
// No email is ever produced for a rejection.
func (r *Repository) RejectMessage(ctx context.Context, params RejectMessageParams) (domain.Message, error) {
	var msg domain.Message
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		msg, err = scanMessage(tx.QueryRow(ctx, fmt.Sprintf(`
			UPDATE messages
			SET status = 'rejected', validated_by = $2, validated_at = now(), updated_at = now()
			WHERE id = $1 AND status = 'pending'
			RETURNING %s
		`, messageColumns), params.MessageID, params.ValidatedBy))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}

		return insertAuditEvent(ctx, tx, domain.EventMessageRejected, msg.ID, map[string]any{
			"validator_id":    params.ValidatedBy.String(),
			"previous_status": string(domain.MessagePending),
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

type CompleteConversationParams struct {
	ConversationID uuid.UUID
	Reason         domain.CompletionReason
}

// CompleteConversation closes the conversation and records the audit event
// in one transaction.
func (r *Repository) CompleteConversation(ctx context.Context, params CompleteConversationParams) (domain.Conversation, error) {
	var conv domain.Conversation
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		conv, err = scanConversation(tx.QueryRow(ctx, fmt.Sprintf(`
			UPDATE conversations
			SET is_completed = true, status = 'completed', completion_reason = $2, updated_at = now()
			WHERE id = $1
			RETURNING %s
		`, conversationColumns), params.ConversationID, params.Reason))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		if err != nil {
			return err
		}

		return insertAuditEvent(ctx, tx, domain.EventConversationCompleted, conv.ID, map[string]any{
			"reason": string(params.Reason),
		})
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}
