package repository

import (
	"context"
	"errors"
	"fmt"

	"assurdesk_backend/internal/conversations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, conversation_id, sender, direction, subject, body,
	original_body, is_modified, status, validated_by, validated_at, created_at, updated_at`

func scanMessage(row pgx.Row) (domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Direction, &msg.Subject,
		&msg.Body, &msg.OriginalBody, &msg.IsModified, &msg.Status,
		&msg.ValidatedBy, &msg.ValidatedAt, &msg.CreatedAt, &msg.UpdatedAt,
	)
	return msg, err
}

func (r *Repository) GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM messages WHERE id = $1
	`, messageColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, ErrMessageNotFound
	}
	return msg, err
}

func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, messageColumns), conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return messages, nil
}

// QueueItem is a pending AI draft enriched with its conversation and client
// context for the validator review screen.
type QueueItem struct {
	Message             domain.Message
	ConversationSubject string
	ConversationStatus  domain.ConversationStatus
	ClientID            uuid.UUID
	ClientFirstName     string
	ClientLastName      string
	ClientEmail         *string
	OpportunityScore    int
}

// ValidationQueue returns all pending AI drafts, oldest first.
func (r *Repository) ValidationQueue(ctx context.Context) ([]QueueItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.conversation_id, m.sender, m.direction, m.subject, m.body,
			m.original_body, m.is_modified, m.status, m.validated_by, m.validated_at,
			m.created_at, m.updated_at,
			c.subject, c.status,
			cl.id, cl.first_name, cl.last_name, cl.email, cl.opportunity_score
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		JOIN clients cl ON cl.id = c.client_id
		WHERE m.status = 'pending'
		ORDER BY m.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]QueueItem, 0)
	for rows.Next() {
		var item QueueItem
		if err := rows.Scan(
			&item.Message.ID, &item.Message.ConversationID, &item.Message.Sender,
			&item.Message.Direction, &item.Message.Subject, &item.Message.Body,
			&item.Message.OriginalBody, &item.Message.IsModified, &item.Message.Status,
			&item.Message.ValidatedBy, &item.Message.ValidatedAt,
			&item.Message.CreatedAt, &item.Message.UpdatedAt,
			&item.ConversationSubject, &item.ConversationStatus,
			&item.ClientID, &item.ClientFirstName, &item.ClientLastName,
			&item.ClientEmail, &item.OpportunityScore,
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
