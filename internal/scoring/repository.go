package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errClientNotFound = errors.New("client not found")

// Repository reads the scoring inputs and persists the result.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) LoadInputs(ctx context.Context, clientID uuid.UUID, now time.Time) (Inputs, error) {
	in := Inputs{Now: now}

	err := r.pool.QueryRow(ctx, `
		SELECT last_contact_at FROM clients
		WHERE id = $1 AND deleted_at IS NULL
	`, clientID).Scan(&in.LastContactAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Inputs{}, errClientNotFound
	}
	if err != nil {
		return Inputs{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.client_id = $1 AND m.created_at >= $2
	`, clientID, now.AddDate(0, 0, -30)).Scan(&in.MessagesLast30Days)
	if err != nil {
		return Inputs{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, end_date FROM contracts WHERE client_id = $1
	`, clientID)
	if err != nil {
		return Inputs{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var contract ContractSnapshot
		if err := rows.Scan(&contract.Status, &contract.EndDate); err != nil {
			return Inputs{}, err
		}
		in.Contracts = append(in.Contracts, contract)
	}
	if rows.Err() != nil {
		return Inputs{}, rows.Err()
	}

	return in, nil
}

func (r *Repository) SaveScore(ctx context.Context, clientID uuid.UUID, score int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE clients SET opportunity_score = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, clientID, score)
	return err
}
