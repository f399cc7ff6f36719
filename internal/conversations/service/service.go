// Package service implements the conversation workflows: message creation,
// the AI draft validation gate, the validation queue, and completion.
package service

import (
	"context"
	"errors"

	"assurdesk_backend/internal/conversations/domain"
	"assurdesk_backend/internal/conversations/repository"
	"assurdesk_backend/internal/events"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/apperr"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Validation actions accepted by Validate.
const (
	ActionValidate = "validate"
	ActionReject   = "reject"
)

// Store is the persistence surface the service depends on. The concrete
// repository guarantees that each mutating call is a single transaction.
type Store interface {
	CreateConversation(ctx context.Context, params repository.CreateConversationParams) (domain.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	ListConversations(ctx context.Context, params repository.ListConversationsParams) ([]domain.Conversation, error)
	GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	ValidationQueue(ctx context.Context) ([]repository.QueueItem, error)
	GetClientContact(ctx context.Context, clientID uuid.UUID) (repository.ClientContact, error)
	CreateMessage(ctx context.Context, params repository.CreateMessageParams) (domain.Message, error)
	ValidateMessage(ctx context.Context, params repository.ValidateMessageParams) (domain.Message, error)
	RejectMessage(ctx context.Context, params repository.RejectMessageParams) (domain.Message, error)
	CompleteConversation(ctx context.Context, params repository.CompleteConversationParams) (domain.Conversation, error)
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

type CreateConversationInput struct {
	ClientID uuid.UUID
	Subject  string
	Status   *domain.ConversationStatus
}

func (s *Service) CreateConversation(ctx context.Context, input CreateConversationInput) (domain.Conversation, error) {
	if _, err := s.store.GetClientContact(ctx, input.ClientID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return domain.Conversation{}, apperr.NotFound("client not found")
		}
		return domain.Conversation{}, err
	}

	status := domain.StatusActive
	if input.Status != nil {
		if !input.Status.Valid() || input.Status.Terminal() {
			return domain.Conversation{}, apperr.Validation("invalid conversation status: " + string(*input.Status))
		}
		status = *input.Status
	}

	return s.store.CreateConversation(ctx, repository.CreateConversationParams{
		ClientID: input.ClientID,
		Subject:  input.Subject,
		Status:   status,
	})
}

func (s *Service) GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return domain.Conversation{}, apperr.NotFound("conversation not found")
	}
	return conv, err
}

func (s *Service) ListConversations(ctx context.Context, params repository.ListConversationsParams) ([]domain.Conversation, error) {
	if params.Status != nil && !params.Status.Valid() {
		return nil, apperr.Validation("invalid conversation status: " + string(*params.Status))
	}
	return s.store.ListConversations(ctx, params)
}

func (s *Service) GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	msg, err := s.store.GetMessage(ctx, id)
	if errors.Is(err, repository.ErrMessageNotFound) {
		return domain.Message{}, apperr.NotFound("message not found")
	}
	return msg, err
}

func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

func (s *Service) ValidationQueue(ctx context.Context) ([]repository.QueueItem, error) {
	return s.store.ValidationQueue(ctx)
}

type CreateMessageInput struct {
	ConversationID uuid.UUID
	Sender         domain.Sender
	Direction      domain.Direction
	Subject        *string
	Body           string
}

// CreateMessage appends a message to a conversation. The initial status is
// derived from the sender; a client message reopens a blocked conversation;
// an agent message goes straight out through the email outbox.
func (s *Service) CreateMessage(ctx context.Context, input CreateMessageInput) (domain.Message, error) {
	if !input.Sender.Valid() {
		return domain.Message{}, apperr.Validation("invalid sender: " + string(input.Sender))
	}
	if !input.Direction.Valid() {
		return domain.Message{}, apperr.Validation("invalid direction: " + string(input.Direction))
	}

	conv, err := s.GetConversation(ctx, input.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}

	params := repository.CreateMessageParams{
		ConversationID:      conv.ID,
		ClientID:            conv.ClientID,
		Sender:              input.Sender,
		Direction:           input.Direction,
		Subject:             input.Subject,
		Body:                input.Body,
		Status:              domain.InitialMessageStatus(input.Sender),
		UnblockConversation: input.Sender == domain.SenderClient,
	}

	if input.Sender == domain.SenderAgent {
		params.Outbox = s.buildReplyOutbox(ctx, conv, input.Subject, input.Body)
	}

	return s.store.CreateMessage(ctx, params)
}

type ValidateInput struct {
	Action             string
	EditedBody         *string
	ConversationStatus *domain.ConversationStatus
	IsCompleted        *bool
}

// Validate applies the approve/reject gate to a pending AI draft. Any
// mutation happens only after every precondition passes, and all of it lands
// in one transaction, the outbound email row included.
func (s *Service) Validate(ctx context.Context, messageID, validatorID uuid.UUID, input ValidateInput) (domain.Message, error) {
	msg, err := s.GetMessage(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}

	if msg.Status != domain.MessagePending {
		return domain.Message{}, apperr.InvalidState("message is not pending validation")
	}

	switch input.Action {
	case ActionValidate:
		return s.approve(ctx, msg, validatorID, input)
	case ActionReject:
		return s.reject(ctx, msg, validatorID)
	default:
		return domain.Message{}, apperr.InvalidAction("unknown action: " + input.Action)
	}
}

func (s *Service) approve(ctx context.Context, msg domain.Message, validatorID uuid.UUID, input ValidateInput) (domain.Message, error) {
	body := msg.Body
	var originalBody *string
	isModified := false
	if input.EditedBody != nil && *input.EditedBody != msg.Body {
		previous := msg.Body
		originalBody = &previous
		body = *input.EditedBody
		isModified = true
	}

	conv, err := s.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	// A completed conversation stays terminal; the draft can only be rejected.
	if conv.IsCompleted {
		return domain.Message{}, apperr.InvalidState("conversation is already completed")
	}

	// Default: the conversation now waits on the client's reply.
	convStatus := domain.StatusBlocked
	if input.ConversationStatus != nil {
		if !input.ConversationStatus.Valid() {
			return domain.Message{}, apperr.Validation("invalid conversation status: " + string(*input.ConversationStatus))
		}
		convStatus = *input.ConversationStatus
	}

	markCompleted := input.IsCompleted != nil && *input.IsCompleted
	if markCompleted && !convStatus.Terminal() {
		convStatus = domain.StatusCompleted
	}
	if !markCompleted && convStatus.Terminal() {
		markCompleted = true
	}

	params := repository.ValidateMessageParams{
		MessageID:          msg.ID,
		Body:               body,
		OriginalBody:       originalBody,
		IsModified:         isModified,
		ValidatedBy:        validatorID,
		ConversationID:     conv.ID,
		ConversationStatus: convStatus,
		MarkCompleted:      markCompleted,
		Outbox:             s.buildReplyOutbox(ctx, conv, msg.Subject, body),
	}

	validated, err := s.store.ValidateMessage(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return domain.Message{}, apperr.InvalidState("message is not pending validation")
		}
		return domain.Message{}, err
	}

	s.log.AuditEvent(domain.EventMessageValidated, validated.ID.String())
	s.bus.Publish(ctx, events.MessageValidated{
		BaseEvent:      events.NewBaseEvent(),
		MessageID:      validated.ID,
		ConversationID: conv.ID,
		ClientID:       conv.ClientID,
		ValidatorID:    validatorID,
		IsModified:     isModified,
	})
	if markCompleted {
		s.publishCompleted(ctx, conv.ID, conv.ClientID, string(convStatus))
	}

	return validated, nil
}

func (s *Service) reject(ctx context.Context, msg domain.Message, validatorID uuid.UUID) (domain.Message, error) {
	conv, err := s.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}

	rejected, err := s.store.RejectMessage(ctx, repository.RejectMessageParams{
		MessageID:   msg.ID,
		ValidatedBy: validatorID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return domain.Message{}, apperr.InvalidState("message is not pending validation")
		}
		return domain.Message{}, err
	}

	s.log.AuditEvent(domain.EventMessageRejected, rejected.ID.String())
	s.bus.Publish(ctx, events.MessageRejected{
		BaseEvent:      events.NewBaseEvent(),
		MessageID:      rejected.ID,
		ConversationID: conv.ID,
		ClientID:       conv.ClientID,
		ValidatorID:    validatorID,
	})

	return rejected, nil
}

// Complete closes a conversation with the given reason and triggers an
// opportunity rescore for the client.
func (s *Service) Complete(ctx context.Context, conversationID uuid.UUID, reason domain.CompletionReason) (domain.Conversation, error) {
	if !reason.Valid() {
		return domain.Conversation{}, apperr.InvalidReason("invalid completion reason: " + string(reason))
	}

	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}

	completed, err := s.store.CompleteConversation(ctx, repository.CompleteConversationParams{
		ConversationID: conv.ID,
		Reason:         reason,
	})
	if err != nil {
		return domain.Conversation{}, err
	}

	s.log.AuditEvent(domain.EventConversationCompleted, completed.ID.String())
	s.publishCompleted(ctx, completed.ID, completed.ClientID, string(reason))

	return completed, nil
}

// publishCompleted notifies subscribers synchronously so the opportunity
// score reflects the completion before the response returns. A failing
// subscriber is logged; the completion itself is already committed.
func (s *Service) publishCompleted(ctx context.Context, conversationID, clientID uuid.UUID, reason string) {
	err := s.bus.PublishSync(ctx, events.ConversationCompleted{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conversationID,
		ClientID:       clientID,
		Reason:         reason,
	})
	if err != nil {
		s.log.Error("conversation completed handler failed",
			"conversation_id", conversationID.String(), "error", err)
	}
}

// buildReplyOutbox prepares the outbox email for an outbound reply. Clients
// without an email address simply get no notification row.
func (s *Service) buildReplyOutbox(ctx context.Context, conv domain.Conversation, subject *string, body string) *outbox.InsertParams {
	contact, err := s.store.GetClientContact(ctx, conv.ClientID)
	if err != nil {
		s.log.Error("could not load client contact for outbox", "client_id", conv.ClientID.String(), "error", err)
		return nil
	}
	if contact.Email == nil || *contact.Email == "" {
		return nil
	}

	emailSubject := conv.Subject
	if subject != nil && *subject != "" {
		emailSubject = *subject
	}

	return &outbox.InsertParams{
		Kind:     outbox.KindEmail,
		Template: outbox.TemplateMessageReply,
		Payload: outbox.EmailPayload{
			To:      *contact.Email,
			ToName:  contact.FirstName + " " + contact.LastName,
			Subject: emailSubject,
			Body:    body,
		},
	}
}
