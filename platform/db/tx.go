package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept it so the same query code runs standalone or inside a
// transaction opened by WithTx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner can open a transaction; satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a single transaction. Every operation that mutates
// more than one entity (message + conversation + client + audit event +
// outbox) must go through this: the transaction commits only if fn returns
// nil, otherwise it rolls back.
func WithTx(ctx context.Context, beginner Beginner, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, beginner, fn)
}
