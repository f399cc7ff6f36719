package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrContractNotFound = errors.New("contract not found")

type Contract struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	Type         string
	PolicyNumber string
	Status       string
	PremiumCents *int64
	StartDate    time.Time
	EndDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateContractParams struct {
	ClientID     uuid.UUID
	Type         string
	PolicyNumber string
	Status       string
	PremiumCents *int64
	StartDate    time.Time
	EndDate      *time.Time
}

const contractColumns = `id, client_id, type, policy_number, status, premium_cents,
	start_date, end_date, created_at, updated_at`

func scanContract(row pgx.Row) (Contract, error) {
	var contract Contract
	err := row.Scan(
		&contract.ID, &contract.ClientID, &contract.Type, &contract.PolicyNumber,
		&contract.Status, &contract.PremiumCents, &contract.StartDate, &contract.EndDate,
		&contract.CreatedAt, &contract.UpdatedAt,
	)
	return contract, err
}

func (r *Repository) AddContract(ctx context.Context, params CreateContractParams) (Contract, error) {
	return scanContract(r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO contracts (client_id, type, policy_number, status, premium_cents, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, contractColumns),
		params.ClientID, params.Type, params.PolicyNumber, params.Status,
		params.PremiumCents, params.StartDate, params.EndDate,
	))
}

func (r *Repository) GetContract(ctx context.Context, id uuid.UUID) (Contract, error) {
	contract, err := scanContract(r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM contracts WHERE id = $1
	`, contractColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrContractNotFound
	}
	return contract, err
}

func (r *Repository) ListContracts(ctx context.Context, clientID uuid.UUID) ([]Contract, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM contracts
		WHERE client_id = $1
		ORDER BY start_date DESC
	`, contractColumns), clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]Contract, 0)
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return contracts, nil
}

func (r *Repository) UpdateContractStatus(ctx context.Context, id uuid.UUID, status string) (Contract, error) {
	contract, err := scanContract(r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE contracts SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, contractColumns), id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrContractNotFound
	}
	return contract, err
}
