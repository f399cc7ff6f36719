// Package transport defines the request and response DTOs for the quote
// endpoints.
package transport

import "time"

type QuoteItemRequest struct {
	Label          string  `json:"label" validate:"required,min=1,max=255"`
	Description    *string `json:"description" validate:"omitempty,max=1000"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64   `json:"unitPriceCents" validate:"gte=0"`
}

type CreateQuoteRequest struct {
	ConversationID string             `json:"conversationId" validate:"required,uuid"`
	ValidUntil     *time.Time         `json:"validUntil"`
	Items          []QuoteItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateQuoteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected expired"`
}

type QuoteItemResponse struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	Description    *string `json:"description,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TotalCents     int64   `json:"totalCents"`
}

type QuoteResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	ClientID       string     `json:"clientId"`
	Reference      string     `json:"reference"`
	Status         string     `json:"status"`
	TotalCents     int64      `json:"totalCents"`
	ValidUntil     *time.Time `json:"validUntil,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type QuoteDetailResponse struct {
	QuoteResponse
	Items []QuoteItemResponse `json:"items"`
}
