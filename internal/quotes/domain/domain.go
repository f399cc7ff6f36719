// Package domain defines the quote model: status vocabulary, entities, and
// line item totals.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	}
	return false
}

// Terminal reports whether a quote can no longer change state.
func (s QuoteStatus) Terminal() bool {
	switch s {
	case QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	}
	return false
}

type Quote struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	ClientID       uuid.UUID
	Reference      string
	Status         QuoteStatus
	TotalCents     int64
	ValidUntil     *time.Time
	SentAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type QuoteItem struct {
	ID             uuid.UUID
	QuoteID        uuid.UUID
	Label          string
	Description    *string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
	CreatedAt      time.Time
}

// LineTotal is the amount of one line: unit price times quantity, in cents.
func LineTotal(unitPriceCents int64, quantity int) int64 {
	return unitPriceCents * int64(quantity)
}

// QuoteTotal sums the line totals of all items, in cents. The quote's
// total_cents is always derived this way, never stored independently.
func QuoteTotal(items []QuoteItem) int64 {
	var total int64
	for _, item := range items {
		total += LineTotal(item.UnitPriceCents, item.Quantity)
	}
	return total
}

// FormatAmount renders a cent amount as a euro string for email templates.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}
