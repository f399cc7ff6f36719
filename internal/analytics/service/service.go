// Package service assembles the analytics summary from the aggregate
// counters.
package service

import (
	"context"
	"time"

	"assurdesk_backend/internal/analytics/repository"
	"assurdesk_backend/platform/apperr"

	"golang.org/x/sync/errgroup"
)

// defaultWindow is how far back the summary reaches when no range is given.
const defaultWindow = 30 * 24 * time.Hour

// Store is the persistence surface the service depends on.
type Store interface {
	ConversationCounters(ctx context.Context, from, to time.Time) (repository.ConversationCounters, error)
	MessageCounters(ctx context.Context, from, to time.Time) (repository.MessageCounters, error)
	QuoteCounters(ctx context.Context, from, to time.Time) (repository.QuoteCounters, error)
	AverageOpportunityScore(ctx context.Context) (float64, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Summary is the full analytics payload for a date range.
type Summary struct {
	From          time.Time
	To            time.Time
	Conversations repository.ConversationCounters
	Messages      repository.MessageCounters
	Quotes        repository.QuoteCounters
	AverageScore  float64
}

// Summarize computes the summary for [from, to). Zero values default to the
// last 30 days ending now.
func (s *Service) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}
	if !from.Before(to) {
		return Summary{}, apperr.Validation("from must be before to")
	}

	summary := Summary{From: from, To: to}

	// The counters are independent aggregates, so fetch them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary.Conversations, err = s.store.ConversationCounters(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		summary.Messages, err = s.store.MessageCounters(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		summary.Quotes, err = s.store.QuoteCounters(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		summary.AverageScore, err = s.store.AverageOpportunityScore(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return summary, nil
}
