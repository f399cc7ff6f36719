// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"assurdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Conversation Domain Events
// =============================================================================

// MessageValidated is published when a validator approves an AI draft.
type MessageValidated struct {
	BaseEvent
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	ClientID       uuid.UUID `json:"clientId"`
	ValidatorID    uuid.UUID `json:"validatorId"`
	IsModified     bool      `json:"isModified"`
}

func (e MessageValidated) EventName() string { return "conversations.message.validated" }

// MessageRejected is published when a validator rejects an AI draft.
type MessageRejected struct {
	BaseEvent
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	ClientID       uuid.UUID `json:"clientId"`
	ValidatorID    uuid.UUID `json:"validatorId"`
}

func (e MessageRejected) EventName() string { return "conversations.message.rejected" }

// ConversationCompleted is published when a conversation reaches a terminal
// state. The opportunity scorer listens to recompute the client's score.
type ConversationCompleted struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	ClientID       uuid.UUID `json:"clientId"`
	Reason         string    `json:"reason"`
}

func (e ConversationCompleted) EventName() string { return "conversations.completed" }

// =============================================================================
// Client Domain Events
// =============================================================================

// ContractAdded is published when a contract is attached to a client.
type ContractAdded struct {
	BaseEvent
	ClientID   uuid.UUID `json:"clientId"`
	ContractID uuid.UUID `json:"contractId"`
}

func (e ContractAdded) EventName() string { return "clients.contract.added" }

// ContractStatusChanged is published when a contract transitions status
// (active → expired/cancelled). Triggers an opportunity score recompute.
type ContractStatusChanged struct {
	BaseEvent
	ClientID   uuid.UUID `json:"clientId"`
	ContractID uuid.UUID `json:"contractId"`
	Status     string    `json:"status"`
}

func (e ContractStatusChanged) EventName() string { return "clients.contract.status_changed" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// NotificationOutboxDue is published by the scheduler worker when a claimed
// outbox row is due for delivery.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteAccepted is published when a client accepts a quote. The parent
// conversation is completed with reason success as a side effect.
type QuoteAccepted struct {
	BaseEvent
	QuoteID        uuid.UUID `json:"quoteId"`
	ConversationID uuid.UUID `json:"conversationId"`
	ClientID       uuid.UUID `json:"clientId"`
}

func (e QuoteAccepted) EventName() string { return "quotes.accepted" }
