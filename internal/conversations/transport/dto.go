// Package transport defines the request and response DTOs for the
// conversation endpoints.
package transport

import "time"

type CreateConversationRequest struct {
	ClientID string  `json:"clientId" validate:"required,uuid"`
	Subject  string  `json:"subject" validate:"required,min=1,max=255"`
	Status   *string `json:"status" validate:"omitempty"`
}

type CreateMessageRequest struct {
	ConversationID string  `json:"conversationId" validate:"required,uuid"`
	Sender         string  `json:"sender" validate:"required,oneof=client ai agent"`
	Direction      string  `json:"direction" validate:"required,oneof=inbox sent"`
	Subject        *string `json:"subject" validate:"omitempty,max=255"`
	Body           string  `json:"body" validate:"required,min=1"`
}

type ValidateMessageRequest struct {
	Action             string  `json:"action" validate:"required"`
	EditedBody         *string `json:"editedBody" validate:"omitempty,min=1"`
	ConversationStatus *string `json:"conversationStatus" validate:"omitempty"`
	IsCompleted        *bool   `json:"isCompleted"`
}

type CompleteConversationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ConversationResponse struct {
	ID               string    `json:"id"`
	ClientID         string    `json:"clientId"`
	Subject          string    `json:"subject"`
	Status           string    `json:"status"`
	IsCompleted      bool      `json:"isCompleted"`
	CompletionReason *string   `json:"completionReason,omitempty"`
	MessageCount     int       `json:"messageCount"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	Sender         string     `json:"sender"`
	Direction      string     `json:"direction"`
	Subject        *string    `json:"subject,omitempty"`
	Body           string     `json:"body"`
	OriginalBody   *string    `json:"originalBody,omitempty"`
	IsModified     bool       `json:"isModified"`
	Status         string     `json:"status"`
	ValidatedBy    *string    `json:"validatedBy,omitempty"`
	ValidatedAt    *time.Time `json:"validatedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// QueueItemResponse is a pending draft with the context a validator needs to
// review it without extra lookups.
type QueueItemResponse struct {
	Message             MessageResponse `json:"message"`
	ConversationSubject string          `json:"conversationSubject"`
	ConversationStatus  string          `json:"conversationStatus"`
	ClientID            string          `json:"clientId"`
	ClientName          string          `json:"clientName"`
	ClientEmail         *string         `json:"clientEmail,omitempty"`
	OpportunityScore    int             `json:"opportunityScore"`
}
