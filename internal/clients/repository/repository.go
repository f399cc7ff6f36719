// Package repository provides persistence for clients and their contracts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("client not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Client struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            *string
	Phone            *string
	Address          *string
	Age              *int
	Job              *string
	Notes            *string
	LastContactAt    *time.Time
	OpportunityScore int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreateClientParams struct {
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Address   *string
	Age       *int
	Job       *string
	Notes     *string
}

const clientColumns = `id, first_name, last_name, email, phone, address, age, job, notes,
	last_contact_at, opportunity_score, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var client Client
	err := row.Scan(
		&client.ID, &client.FirstName, &client.LastName, &client.Email, &client.Phone,
		&client.Address, &client.Age, &client.Job, &client.Notes, &client.LastContactAt,
		&client.OpportunityScore, &client.CreatedAt, &client.UpdatedAt,
	)
	return client, err
}

func (r *Repository) Create(ctx context.Context, params CreateClientParams) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO clients (first_name, last_name, email, phone, address, age, job, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s
	`, clientColumns),
		params.FirstName, params.LastName, params.Email, params.Phone, params.Address,
		params.Age, params.Job, params.Notes,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	client, err := scanClient(r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM clients WHERE id = $1 AND deleted_at IS NULL
	`, clientColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return client, err
}

type UpdateClientParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	Age       *int
	Job       *string
	Notes     *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateClientParams) (Client, error) {
	setClauses := make([]string, 0, 9)
	args := make([]interface{}, 0, 10)
	argIdx := 1

	fields := []struct {
		column string
		value  *string
	}{
		{"first_name", params.FirstName},
		{"last_name", params.LastName},
		{"email", params.Email},
		{"phone", params.Phone},
		{"address", params.Address},
		{"job", params.Job},
		{"notes", params.Notes},
	}
	for _, field := range fields {
		if field.value == nil {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, argIdx))
		args = append(args, *field.value)
		argIdx++
	}
	if params.Age != nil {
		setClauses = append(setClauses, fmt.Sprintf("age = $%d", argIdx))
		args = append(args, *params.Age)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE clients SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, clientColumns)

	client, err := scanClient(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return client, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListParams struct {
	Search string
	Offset int
	Limit  int
}

// List returns clients ordered by most recent contact first; clients never
// contacted sort last.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Client, int, error) {
	whereClauses := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0, 3)
	argIdx := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	where := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM clients WHERE %s", where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE %s
		ORDER BY last_contact_at DESC NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d
	`, clientColumns, where, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, client)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return clients, total, nil
}

func (r *Repository) UpdateOpportunityScore(ctx context.Context, id uuid.UUID, score int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients SET opportunity_score = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
