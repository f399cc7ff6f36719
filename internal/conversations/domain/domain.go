// Package domain defines the conversation and message model: the canonical
// status vocabularies, state transition rules, and entity types shared by
// the repository, service, and transport layers.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle and qualification state of a
// conversation. Qualification values (renewal, new_opportunity, ...) are set
// by validators while the conversation is still open.
type ConversationStatus string

const (
	StatusActive          ConversationStatus = "active"
	StatusBlocked         ConversationStatus = "blocked"
	StatusRenewal         ConversationStatus = "renewal"
	StatusNewOpportunity  ConversationStatus = "new_opportunity"
	StatusUpsellCrossSell ConversationStatus = "upsell_cross_sell"
	StatusSupportInfo     ConversationStatus = "support_info"
	StatusComplaint       ConversationStatus = "complaint"
	StatusColdProspect    ConversationStatus = "cold_prospect"
	StatusLostClient      ConversationStatus = "lost_client"
	StatusCompleted       ConversationStatus = "completed"
	StatusSuccess         ConversationStatus = "success"
	StatusFailed          ConversationStatus = "failed"
)

func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusRenewal, StatusNewOpportunity,
		StatusUpsellCrossSell, StatusSupportInfo, StatusComplaint,
		StatusColdProspect, StatusLostClient, StatusCompleted, StatusSuccess,
		StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status closes the conversation.
// Invariant: is_completed is true exactly when the status is terminal.
func (s ConversationStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// Sender identifies who authored a message.
type Sender string

const (
	SenderClient Sender = "client"
	SenderAI     Sender = "ai"
	SenderAgent  Sender = "agent"
)

func (s Sender) Valid() bool {
	switch s {
	case SenderClient, SenderAI, SenderAgent:
		return true
	}
	return false
}

// Direction distinguishes inbound client mail from outbound replies.
type Direction string

const (
	DirectionInbox Direction = "inbox"
	DirectionSent  Direction = "sent"
)

func (d Direction) Valid() bool {
	return d == DirectionInbox || d == DirectionSent
}

// MessageStatus tracks a message through the validation gate.
type MessageStatus string

const (
	MessageOpen      MessageStatus = "open"
	MessagePending   MessageStatus = "pending"
	MessageValidated MessageStatus = "validated"
	MessageRejected  MessageStatus = "rejected"
	MessageSent      MessageStatus = "sent"
	MessageBlocked   MessageStatus = "blocked"
)

// InitialMessageStatus derives a new message's status from its author.
// Client questions arrive open, AI drafts must pass validation, and human
// agents bypass the gate entirely.
func InitialMessageStatus(sender Sender) MessageStatus {
	switch sender {
	case SenderAI:
		return MessagePending
	case SenderAgent:
		return MessageSent
	default:
		return MessageOpen
	}
}

// CompletionReason records why a conversation was closed. The business term
// resiliation (policy cancellation) is kept as-is.
type CompletionReason string

const (
	ReasonSuccess         CompletionReason = "success"
	ReasonFailed          CompletionReason = "failed"
	ReasonResiliation     CompletionReason = "resiliation"
	ReasonNewOpportunity  CompletionReason = "new_opportunity"
	ReasonUpsellCrossSell CompletionReason = "upsell_cross_sell"
)

func (r CompletionReason) Valid() bool {
	switch r {
	case ReasonSuccess, ReasonFailed, ReasonResiliation, ReasonNewOpportunity, ReasonUpsellCrossSell:
		return true
	}
	return false
}

// Audit event types written to the append-only events table.
const (
	EventMessageCreated        = "message_created"
	EventMessageValidated      = "message_validated"
	EventMessageRejected       = "message_rejected"
	EventConversationCompleted = "conversation_completed"
	EventQuoteSent             = "quote_sent"
	EventQuoteAccepted         = "quote_accepted"
)

type Conversation struct {
	ID               uuid.UUID
	ClientID         uuid.UUID
	Subject          string
	Status           ConversationStatus
	IsCompleted      bool
	CompletionReason *CompletionReason
	MessageCount     int
	LastActivityAt   time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Sender         Sender
	Direction      Direction
	Subject        *string
	Body           string
	OriginalBody   *string
	IsModified     bool
	Status         MessageStatus
	ValidatedBy    *uuid.UUID
	ValidatedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
