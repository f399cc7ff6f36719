// Package service implements the quote workflows: creation with derived
// totals, sending through the email outbox, and the accept/reject/expire
// transitions. Accepting a quote completes its parent conversation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	convdomain "assurdesk_backend/internal/conversations/domain"
	convrepo "assurdesk_backend/internal/conversations/repository"
	"assurdesk_backend/internal/events"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/internal/quotes/domain"
	"assurdesk_backend/internal/quotes/repository"
	"assurdesk_backend/platform/apperr"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the service depends on.
type Store interface {
	CreateQuote(ctx context.Context, params repository.CreateQuoteParams) (domain.Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (domain.Quote, error)
	ListItems(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Quote, error)
	SendQuote(ctx context.Context, params repository.SendQuoteParams) (domain.Quote, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (domain.Quote, error)
}

// ConversationDirectory resolves the conversation a quote is attached to and
// the client contact for outbound email.
type ConversationDirectory interface {
	GetConversation(ctx context.Context, id uuid.UUID) (convdomain.Conversation, error)
	GetClientContact(ctx context.Context, clientID uuid.UUID) (convrepo.ClientContact, error)
}

// ConversationCompleter closes a conversation with a reason. The concrete
// implementation is the conversations service, which also triggers a rescore.
type ConversationCompleter interface {
	Complete(ctx context.Context, conversationID uuid.UUID, reason convdomain.CompletionReason) (convdomain.Conversation, error)
}

type Service struct {
	store         Store
	conversations ConversationDirectory
	completer     ConversationCompleter
	bus           events.Bus
	log           *logger.Logger
	now           func() time.Time
}

func New(store Store, conversations ConversationDirectory, completer ConversationCompleter, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:         store,
		conversations: conversations,
		completer:     completer,
		bus:           bus,
		log:           log,
		now:           time.Now,
	}
}

type ItemInput struct {
	Label          string
	Description    *string
	Quantity       int
	UnitPriceCents int64
}

type CreateQuoteInput struct {
	ConversationID uuid.UUID
	ValidUntil     *time.Time
	Items          []ItemInput
}

// Create attaches a new draft quote to a conversation. The total is derived
// from the items, never taken from the caller.
func (s *Service) Create(ctx context.Context, input CreateQuoteInput) (domain.Quote, error) {
	if len(input.Items) == 0 {
		return domain.Quote{}, apperr.Validation("a quote needs at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return domain.Quote{}, apperr.Validation("item quantity must be positive")
		}
		if item.UnitPriceCents < 0 {
			return domain.Quote{}, apperr.Validation("item unit price cannot be negative")
		}
	}

	conv, err := s.conversations.GetConversation(ctx, input.ConversationID)
	if err != nil {
		if errors.Is(err, convrepo.ErrConversationNotFound) {
			return domain.Quote{}, apperr.NotFound("conversation not found")
		}
		return domain.Quote{}, err
	}
	if conv.IsCompleted {
		return domain.Quote{}, apperr.InvalidState("conversation is already completed")
	}

	params := repository.CreateQuoteParams{
		ConversationID: conv.ID,
		ClientID:       conv.ClientID,
		Reference:      s.newReference(),
		ValidUntil:     input.ValidUntil,
		Items:          make([]repository.CreateItemParams, 0, len(input.Items)),
	}
	var total int64
	for _, item := range input.Items {
		total += domain.LineTotal(item.UnitPriceCents, item.Quantity)
		params.Items = append(params.Items, repository.CreateItemParams{
			Label:          item.Label,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	params.TotalCents = total

	return s.store.CreateQuote(ctx, params)
}

// Get returns a quote with its line items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Quote, []domain.QuoteItem, error) {
	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return domain.Quote{}, nil, apperr.NotFound("quote not found")
		}
		return domain.Quote{}, nil, err
	}

	items, err := s.store.ListItems(ctx, id)
	if err != nil {
		return domain.Quote{}, nil, err
	}
	return quote, items, nil
}

func (s *Service) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Quote, error) {
	if _, err := s.conversations.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, convrepo.ErrConversationNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, err
	}
	return s.store.ListByConversation(ctx, conversationID)
}

// Send emails a draft quote to the client and marks it sent. The email row
// lands in the outbox in the same transaction as the status change.
func (s *Service) Send(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return domain.Quote{}, apperr.NotFound("quote not found")
		}
		return domain.Quote{}, err
	}
	if quote.Status != domain.QuoteDraft {
		return domain.Quote{}, apperr.InvalidState("quote is not a draft")
	}

	sent, err := s.store.SendQuote(ctx, repository.SendQuoteParams{
		QuoteID: quote.ID,
		Outbox:  s.buildQuoteOutbox(ctx, quote),
	})
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return domain.Quote{}, apperr.InvalidState("quote is not a draft")
		}
		return domain.Quote{}, err
	}

	s.log.AuditEvent(convdomain.EventQuoteSent, sent.ID.String())
	return sent, nil
}

// UpdateStatus moves a sent quote to accepted, rejected, or expired.
// Acceptance completes the parent conversation with reason success and
// publishes QuoteAccepted.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) (domain.Quote, error) {
	if !status.Valid() || !status.Terminal() {
		return domain.Quote{}, apperr.Validation("invalid quote status: " + string(status))
	}

	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return domain.Quote{}, apperr.NotFound("quote not found")
		}
		return domain.Quote{}, err
	}
	if quote.Status != domain.QuoteSent {
		return domain.Quote{}, apperr.InvalidState("quote has not been sent")
	}

	updated, err := s.store.UpdateStatus(ctx, repository.UpdateStatusParams{
		QuoteID: quote.ID,
		Status:  status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrQuoteNotFound) {
			return domain.Quote{}, apperr.InvalidState("quote has not been sent")
		}
		return domain.Quote{}, err
	}

	if status == domain.QuoteAccepted {
		s.log.AuditEvent(convdomain.EventQuoteAccepted, updated.ID.String())
		if _, err := s.completer.Complete(ctx, updated.ConversationID, convdomain.ReasonSuccess); err != nil {
			s.log.Error("could not complete conversation for accepted quote",
				"quote_id", updated.ID.String(),
				"conversation_id", updated.ConversationID.String(),
				"error", err)
		}
		s.bus.Publish(ctx, events.QuoteAccepted{
			BaseEvent:      events.NewBaseEvent(),
			QuoteID:        updated.ID,
			ConversationID: updated.ConversationID,
			ClientID:       updated.ClientID,
		})
	}

	return updated, nil
}

// newReference builds a human-readable quote reference like Q-20260901-3F2A81C4.
func (s *Service) newReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("Q-%s-%s", s.now().Format("20060102"), suffix)
}

// buildQuoteOutbox prepares the outbox email for a quote send. Clients
// without an email address get no notification row.
func (s *Service) buildQuoteOutbox(ctx context.Context, quote domain.Quote) *outbox.InsertParams {
	contact, err := s.conversations.GetClientContact(ctx, quote.ClientID)
	if err != nil {
		s.log.Error("could not load client contact for quote outbox",
			"client_id", quote.ClientID.String(), "error", err)
		return nil
	}
	if contact.Email == nil || *contact.Email == "" {
		return nil
	}

	return &outbox.InsertParams{
		Kind:     outbox.KindEmail,
		Template: outbox.TemplateQuote,
		Payload: outbox.EmailPayload{
			To:          *contact.Email,
			ToName:      contact.FirstName + " " + contact.LastName,
			Subject:     "Votre devis " + quote.Reference,
			QuoteRef:    quote.Reference,
			TotalAmount: domain.FormatAmount(quote.TotalCents),
		},
	}
}
