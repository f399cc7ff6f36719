// Package repository computes the aggregate counters behind the analytics
// summary. All queries are bounded by the caller's date range.
package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ConversationCounters summarizes conversation activity and outcomes.
type ConversationCounters struct {
	Total     int64
	Completed int64
	ByReason  map[string]int64
}

// MessageCounters summarizes the validation pipeline.
type MessageCounters struct {
	Total     int64
	Pending   int64
	Validated int64
	Rejected  int64
	Modified  int64
}

// QuoteCounters summarizes quote volume and accepted value.
type QuoteCounters struct {
	Total         int64
	Sent          int64
	Accepted      int64
	AcceptedCents int64
}

func (r *Repository) ConversationCounters(ctx context.Context, from, to time.Time) (ConversationCounters, error) {
	counters := ConversationCounters{ByReason: make(map[string]int64)}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_completed)
		FROM conversations
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&counters.Total, &counters.Completed)
	if err != nil {
		return ConversationCounters{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT completion_reason, COUNT(*)
		FROM conversations
		WHERE is_completed AND completion_reason IS NOT NULL
			AND updated_at >= $1 AND updated_at < $2
		GROUP BY completion_reason
	`, from, to)
	if err != nil {
		return ConversationCounters{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var count int64
		if err := rows.Scan(&reason, &count); err != nil {
			return ConversationCounters{}, err
		}
		counters.ByReason[reason] = count
	}
	if rows.Err() != nil {
		return ConversationCounters{}, rows.Err()
	}

	return counters, nil
}

func (r *Repository) MessageCounters(ctx context.Context, from, to time.Time) (MessageCounters, error) {
	var counters MessageCounters
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'validated'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'validated' AND is_modified)
		FROM messages
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&counters.Total, &counters.Pending, &counters.Validated,
		&counters.Rejected, &counters.Modified)
	return counters, err
}

func (r *Repository) QuoteCounters(ctx context.Context, from, to time.Time) (QuoteCounters, error) {
	var counters QuoteCounters
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('sent', 'accepted', 'rejected', 'expired')),
			COUNT(*) FILTER (WHERE status = 'accepted'),
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'accepted'), 0)
		FROM quotes
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&counters.Total, &counters.Sent, &counters.Accepted, &counters.AcceptedCents)
	return counters, err
}

// AverageOpportunityScore returns the mean score across all active clients.
func (r *Repository) AverageOpportunityScore(ctx context.Context) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(opportunity_score), 0)
		FROM clients
		WHERE deleted_at IS NULL
	`).Scan(&avg)
	return avg, err
}
