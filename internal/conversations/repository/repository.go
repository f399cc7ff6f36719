// Package repository provides persistence for conversations, messages, and
// the audit event trail. Multi-entity writes run as single transactions.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assurdesk_backend/internal/conversations/domain"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrClientNotFound       = errors.New("client not found")
)

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

const conversationColumns = `id, client_id, subject, status, is_completed, completion_reason,
	message_count, last_activity_at, created_at, updated_at`

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var conv domain.Conversation
	err := row.Scan(
		&conv.ID, &conv.ClientID, &conv.Subject, &conv.Status, &conv.IsCompleted,
		&conv.CompletionReason, &conv.MessageCount, &conv.LastActivityAt,
		&conv.CreatedAt, &conv.UpdatedAt,
	)
	return conv, err
}

type CreateConversationParams struct {
	ClientID uuid.UUID
	Subject  string
	Status   domain.ConversationStatus
}

func (r *Repository) CreateConversation(ctx context.Context, params CreateConversationParams) (domain.Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO conversations (client_id, subject, status)
		VALUES ($1, $2, $3)
		RETURNING %s
	`, conversationColumns), params.ClientID, params.Subject, params.Status))
}

func (r *Repository) GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	conv, err := scanConversation(r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM conversations WHERE id = $1
	`, conversationColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

type ListConversationsParams struct {
	ClientID  *uuid.UUID
	Status    *domain.ConversationStatus
	Completed *bool
}

func (r *Repository) ListConversations(ctx context.Context, params ListConversationsParams) ([]domain.Conversation, error) {
	whereClauses := []string{"1=1"}
	args := make([]interface{}, 0, 3)
	argIdx := 1

	if params.ClientID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("client_id = $%d", argIdx))
		args = append(args, *params.ClientID)
		argIdx++
	}
	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Completed != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("is_completed = $%d", argIdx))
		args = append(args, *params.Completed)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE %s
		ORDER BY last_activity_at DESC
	`, conversationColumns, strings.Join(whereClauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]domain.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return conversations, nil
}

// ClientContact is the client data needed to address outbound email.
type ClientContact struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
}

func (r *Repository) GetClientContact(ctx context.Context, clientID uuid.UUID) (ClientContact, error) {
	var contact ClientContact
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email
		FROM clients WHERE id = $1 AND deleted_at IS NULL
	`, clientID).Scan(&contact.ID, &contact.FirstName, &contact.LastName, &contact.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClientContact{}, ErrClientNotFound
	}
	return contact, err
}
