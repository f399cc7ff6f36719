package service

import (
	"context"
	"testing"
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

type fakeStore struct {
	quotes     map[uuid.UUID]domain.Quote
	items      map[uuid.UUID][]domain.QuoteItem
	outboxRows []outbox.InsertParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quotes: make(map[uuid.UUID]domain.Quote),
		items:  make(map[uuid.UUID][]domain.QuoteItem),
	}
}

func (f *fakeStore) CreateQuote(_ context.Context, params repository.CreateQuoteParams) (domain.Quote, error) {
	quote := domain.Quote{
		ID:             uuid.New(),
		ConversationID: params.ConversationID,
		ClientID:       params.ClientID,
		Reference:      params.Reference,
		Status:         domain.QuoteDraft,
		TotalCents:     params.TotalCents,
		ValidUntil:     params.ValidUntil,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.quotes[quote.ID] = quote
	for _, item := range params.Items {
		f.items[quote.ID] = append(f.items[quote.ID], domain.QuoteItem{
			ID:             uuid.New(),
			QuoteID:        quote.ID,
			Label:          item.Label,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     domain.LineTotal(item.UnitPriceCents, item.Quantity),
			CreatedAt:      time.Now(),
		})
	}
	return quote, nil
}

func (f *fakeStore) GetQuote(_ context.Context, id uuid.UUID) (domain.Quote, error) {
	quote, ok := f.quotes[id]
	if !ok {
		return domain.Quote{}, repository.ErrQuoteNotFound
	}
	return quote, nil
}

func (f *fakeStore) ListItems(_ context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error) {
	return f.items[quoteID], nil
}

func (f *fakeStore) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]domain.Quote, error) {
	result := make([]domain.Quote, 0)
	for _, quote := range f.quotes {
		if quote.ConversationID == conversationID {
			result = append(result, quote)
		}
	}
	return result, nil
}

func (f *fakeStore) SendQuote(_ context.Context, params repository.SendQuoteParams) (domain.Quote, error) {
	quote, ok := f.quotes[params.QuoteID]
	if !ok || quote.Status != domain.QuoteDraft {
		return domain.Quote{}, repository.ErrQuoteNotFound
	}
	now := time.Now()
	quote.Status = domain.QuoteSent
	quote.SentAt = &now
	f.quotes[params.QuoteID] = quote
	if params.Outbox != nil {
		f.outboxRows = append(f.outboxRows, *params.Outbox)
	}
	return quote, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, params repository.UpdateStatusParams) (domain.Quote, error) {
	quote, ok := f.quotes[params.QuoteID]
	if !ok || quote.Status != domain.QuoteSent {
		return domain.Quote{}, repository.ErrQuoteNotFound
	}
	quote.Status = params.Status
	f.quotes[params.QuoteID] = quote
	return quote, nil
}

var _ Store = (*fakeStore)(nil)

type fakeDirectory struct {
	conversations map[uuid.UUID]convdomain.Conversation
	contacts      map[uuid.UUID]convrepo.ClientContact
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		conversations: make(map[uuid.UUID]convdomain.Conversation),
		contacts:      make(map[uuid.UUID]convrepo.ClientContact),
	}
}

func (f *fakeDirectory) addConversation(email *string) convdomain.Conversation {
	clientID := uuid.New()
	f.contacts[clientID] = convrepo.ClientContact{ID: clientID, FirstName: "Marie", LastName: "Dubois", Email: email}
	conv := convdomain.Conversation{
		ID:       uuid.New(),
		ClientID: clientID,
		Subject:  "Devis auto",
		Status:   convdomain.StatusActive,
	}
	f.conversations[conv.ID] = conv
	return conv
}

func (f *fakeDirectory) GetConversation(_ context.Context, id uuid.UUID) (convdomain.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return convdomain.Conversation{}, convrepo.ErrConversationNotFound
	}
	return conv, nil
}

func (f *fakeDirectory) GetClientContact(_ context.Context, clientID uuid.UUID) (convrepo.ClientContact, error) {
	contact, ok := f.contacts[clientID]
	if !ok {
		return convrepo.ClientContact{}, convrepo.ErrClientNotFound
	}
	return contact, nil
}

type fakeCompleter struct {
	completed []uuid.UUID
	reasons   []convdomain.CompletionReason
}

func (f *fakeCompleter) Complete(_ context.Context, conversationID uuid.UUID, reason convdomain.CompletionReason) (convdomain.Conversation, error) {
	f.completed = append(f.completed, conversationID)
	f.reasons = append(f.reasons, reason)
	return convdomain.Conversation{ID: conversationID, IsCompleted: true, Status: convdomain.StatusCompleted}, nil
}

func strPtr(s string) *string { return &s }

func newTestService(store *fakeStore, dir *fakeDirectory, completer *fakeCompleter) *Service {
	log := logger.New("test")
	return New(store, dir, completer, events.NewInMemoryBus(log), log)
}

func TestCreateDerivesTotalFromItems(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	svc := newTestService(store, dir, &fakeCompleter{})

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items: []ItemInput{
			{Label: "Responsabilité civile", Quantity: 1, UnitPriceCents: 12500},
			{Label: "Option bris de glace", Quantity: 2, UnitPriceCents: 1999},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if quote.TotalCents != 12500+2*1999 {
		t.Fatalf("total = %d, want %d", quote.TotalCents, 12500+2*1999)
	}
	if quote.Status != domain.QuoteDraft {
		t.Fatalf("status = %s, want draft", quote.Status)
	}
	if quote.Reference == "" {
		t.Fatal("expected a generated reference")
	}

	items := store.items[quote.ID]
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[1].TotalCents != 2*1999 {
		t.Fatalf("line total = %d, want %d", items[1].TotalCents, 2*1999)
	}
}

func TestCreateRejectsEmptyAndInvalidItems(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	svc := newTestService(store, dir, &fakeCompleter{})

	cases := []struct {
		name  string
		items []ItemInput
	}{
		{"no items", nil},
		{"zero quantity", []ItemInput{{Label: "x", Quantity: 0, UnitPriceCents: 100}}},
		{"negative price", []ItemInput{{Label: "x", Quantity: 1, UnitPriceCents: -1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateQuoteInput{ConversationID: conv.ID, Items: tc.items})
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected Validation, got %v", err)
			}
		})
	}
	if len(store.quotes) != 0 {
		t.Fatal("no quote should have been created")
	}
}

func TestCreateOnCompletedConversationFails(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	conv.IsCompleted = true
	conv.Status = convdomain.StatusCompleted
	dir.conversations[conv.ID] = conv
	svc := newTestService(store, dir, &fakeCompleter{})

	_, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items:          []ItemInput{{Label: "x", Quantity: 1, UnitPriceCents: 100}},
	})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

func TestSendWritesOutboxRowAndMarksSent(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	svc := newTestService(store, dir, &fakeCompleter{})

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items:          []ItemInput{{Label: "Habitation", Quantity: 1, UnitPriceCents: 45000}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent, err := svc.Send(context.Background(), quote.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if sent.Status != domain.QuoteSent {
		t.Fatalf("status = %s, want sent", sent.Status)
	}
	if sent.SentAt == nil {
		t.Fatal("expected sent_at to be set")
	}
	if len(store.outboxRows) != 1 {
		t.Fatalf("outbox rows = %d, want 1", len(store.outboxRows))
	}
	payload, ok := store.outboxRows[0].Payload.(outbox.EmailPayload)
	if !ok {
		t.Fatalf("payload type %T", store.outboxRows[0].Payload)
	}
	if payload.To != "marie@example.com" || payload.QuoteRef != quote.Reference {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.TotalAmount != "450,00 €" {
		t.Fatalf("total amount = %q", payload.TotalAmount)
	}
}

func TestSendTwiceFails(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	svc := newTestService(store, dir, &fakeCompleter{})

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items:          []ItemInput{{Label: "x", Quantity: 1, UnitPriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Send(context.Background(), quote.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}

	_, err = svc.Send(context.Background(), quote.ID)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

func TestAcceptCompletesConversation(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	completer := &fakeCompleter{}
	svc := newTestService(store, dir, completer)

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items:          []ItemInput{{Label: "x", Quantity: 1, UnitPriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Send(context.Background(), quote.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}

	accepted, err := svc.UpdateStatus(context.Background(), quote.ID, domain.QuoteAccepted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if accepted.Status != domain.QuoteAccepted {
		t.Fatalf("status = %s, want accepted", accepted.Status)
	}
	if len(completer.completed) != 1 || completer.completed[0] != conv.ID {
		t.Fatalf("completed conversations = %v", completer.completed)
	}
	if completer.reasons[0] != convdomain.ReasonSuccess {
		t.Fatalf("completion reason = %s, want success", completer.reasons[0])
	}
}

func TestRejectDoesNotCompleteConversation(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	completer := &fakeCompleter{}
	svc := newTestService(store, dir, completer)

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items:          []ItemInput{{Label: "x", Quantity: 1, UnitPriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Send(context.Background(), quote.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}

	rejected, err := svc.UpdateStatus(context.Background(), quote.ID, domain.QuoteRejected)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if rejected.Status != domain.QuoteRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
	if len(completer.completed) != 0 {
		t.Fatal("rejection must not complete the conversation")
	}
}

func TestUpdateStatusOnDraftFails(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	conv := dir.addConversation(strPtr("marie@example.com"))
	svc := newTestService(store, dir, &fakeCompleter{})

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ConversationID: conv.ID,
		Items:          []ItemInput{{Label: "x", Quantity: 1, UnitPriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), quote.ID, domain.QuoteAccepted)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

func TestUpdateStatusRejectsNonTerminalTarget(t *testing.T) {
	store := newFakeStore()
	dir := newFakeDirectory()
	dir.addConversation(strPtr("marie@example.com"))
	svc := newTestService(store, dir, &fakeCompleter{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), domain.QuoteDraft)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestQuoteTotalSumsLineTotals(t *testing.T) {
	items := []domain.QuoteItem{
		{Quantity: 3, UnitPriceCents: 1000},
		{Quantity: 1, UnitPriceCents: 250},
	}
	if got := domain.QuoteTotal(items); got != 3250 {
		t.Fatalf("QuoteTotal = %d, want 3250", got)
	}
}
