package service

import (
	"context"
	"testing"
	"time"

	"assurdesk_backend/internal/analytics/repository"
	"assurdesk_backend/platform/apperr"
)

type fakeStore struct {
	from, to time.Time
}

func (f *fakeStore) ConversationCounters(_ context.Context, from, to time.Time) (repository.ConversationCounters, error) {
	f.from, f.to = from, to
	return repository.ConversationCounters{
		Total:     12,
		Completed: 5,
		ByReason:  map[string]int64{"success": 3, "resiliation": 2},
	}, nil
}

func (f *fakeStore) MessageCounters(_ context.Context, _, _ time.Time) (repository.MessageCounters, error) {
	return repository.MessageCounters{Total: 40, Pending: 4, Validated: 20, Rejected: 6, Modified: 9}, nil
}

func (f *fakeStore) QuoteCounters(_ context.Context, _, _ time.Time) (repository.QuoteCounters, error) {
	return repository.QuoteCounters{Total: 7, Sent: 5, Accepted: 2, AcceptedCents: 90000}, nil
}

func (f *fakeStore) AverageOpportunityScore(context.Context) (float64, error) {
	return 42.5, nil
}

func TestSummarizeDefaultsToLastThirtyDays(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summarize(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if !summary.To.Equal(now) {
		t.Fatalf("to = %v, want %v", summary.To, now)
	}
	if !summary.From.Equal(now.Add(-30 * 24 * time.Hour)) {
		t.Fatalf("from = %v", summary.From)
	}
	if !store.from.Equal(summary.From) || !store.to.Equal(summary.To) {
		t.Fatal("range not forwarded to the store")
	}
	if summary.Conversations.ByReason["success"] != 3 {
		t.Fatalf("reason counters = %v", summary.Conversations.ByReason)
	}
	if summary.Quotes.AcceptedCents != 90000 {
		t.Fatalf("accepted cents = %d", summary.Quotes.AcceptedCents)
	}
	if summary.AverageScore != 42.5 {
		t.Fatalf("average score = %f", summary.AverageScore)
	}
}

func TestSummarizeRejectsInvertedRange(t *testing.T) {
	svc := New(&fakeStore{})
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.Summarize(context.Background(), from, to)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation, got %v", err)
	}
}
