package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"assurdesk_backend/internal/conversations/domain"
	"assurdesk_backend/internal/conversations/repository"
	"assurdesk_backend/internal/events"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/platform/apperr"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore mimics the repository's transactional behavior in memory. Each
// mutating call applies every side effect at once, recording outbox rows so
// tests can assert they were written with the state change.
type fakeStore struct {
	conversations map[uuid.UUID]domain.Conversation
	messages      map[uuid.UUID]domain.Message
	contacts      map[uuid.UUID]repository.ClientContact
	outboxRows    []outbox.InsertParams

	validateCalls int
	rejectCalls   int
	completeCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[uuid.UUID]domain.Conversation),
		messages:      make(map[uuid.UUID]domain.Message),
		contacts:      make(map[uuid.UUID]repository.ClientContact),
	}
}

func (f *fakeStore) addClient(email *string) uuid.UUID {
	id := uuid.New()
	f.contacts[id] = repository.ClientContact{ID: id, FirstName: "Jean", LastName: "Martin", Email: email}
	return id
}

func (f *fakeStore) addConversation(clientID uuid.UUID, status domain.ConversationStatus) domain.Conversation {
	conv := domain.Conversation{
		ID:             uuid.New(),
		ClientID:       clientID,
		Subject:        "Renouvellement auto",
		Status:         status,
		LastActivityAt: time.Now(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.conversations[conv.ID] = conv
	return conv
}

func (f *fakeStore) addMessage(conversationID uuid.UUID, sender domain.Sender, status domain.MessageStatus, body string) domain.Message {
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         sender,
		Direction:      domain.DirectionSent,
		Body:           body,
		Status:         status,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.messages[msg.ID] = msg
	return msg
}

func (f *fakeStore) CreateConversation(_ context.Context, params repository.CreateConversationParams) (domain.Conversation, error) {
	conv := domain.Conversation{
		ID:        uuid.New(),
		ClientID:  params.ClientID,
		Subject:   params.Subject,
		Status:    params.Status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.conversations[conv.ID] = conv
	return conv, nil
}

func (f *fakeStore) GetConversation(_ context.Context, id uuid.UUID) (domain.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return domain.Conversation{}, repository.ErrConversationNotFound
	}
	return conv, nil
}

func (f *fakeStore) ListConversations(_ context.Context, params repository.ListConversationsParams) ([]domain.Conversation, error) {
	result := make([]domain.Conversation, 0)
	for _, conv := range f.conversations {
		if params.ClientID != nil && conv.ClientID != *params.ClientID {
			continue
		}
		if params.Status != nil && conv.Status != *params.Status {
			continue
		}
		if params.Completed != nil && conv.IsCompleted != *params.Completed {
			continue
		}
		result = append(result, conv)
	}
	return result, nil
}

func (f *fakeStore) GetMessage(_ context.Context, id uuid.UUID) (domain.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return domain.Message{}, repository.ErrMessageNotFound
	}
	return msg, nil
}

func (f *fakeStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	result := make([]domain.Message, 0)
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (f *fakeStore) ValidationQueue(_ context.Context) ([]repository.QueueItem, error) {
	items := make([]repository.QueueItem, 0)
	for _, msg := range f.messages {
		if msg.Status == domain.MessagePending {
			items = append(items, repository.QueueItem{Message: msg})
		}
	}
	return items, nil
}

func (f *fakeStore) GetClientContact(_ context.Context, clientID uuid.UUID) (repository.ClientContact, error) {
	contact, ok := f.contacts[clientID]
	if !ok {
		return repository.ClientContact{}, repository.ErrClientNotFound
	}
	return contact, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, params repository.CreateMessageParams) (domain.Message, error) {
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: params.ConversationID,
		Sender:         params.Sender,
		Direction:      params.Direction,
		Subject:        params.Subject,
		Body:           params.Body,
		Status:         params.Status,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.messages[msg.ID] = msg

	conv := f.conversations[params.ConversationID]
	conv.MessageCount++
	conv.LastActivityAt = time.Now()
	if params.UnblockConversation && conv.Status == domain.StatusBlocked {
		conv.Status = domain.StatusActive
	}
	f.conversations[params.ConversationID] = conv

	if params.Outbox != nil {
		f.outboxRows = append(f.outboxRows, *params.Outbox)
	}
	return msg, nil
}

func (f *fakeStore) ValidateMessage(_ context.Context, params repository.ValidateMessageParams) (domain.Message, error) {
	f.validateCalls++
	msg, ok := f.messages[params.MessageID]
	if !ok || msg.Status != domain.MessagePending {
		return domain.Message{}, repository.ErrMessageNotFound
	}

	now := time.Now()
	msg.Body = params.Body
	if params.OriginalBody != nil {
		msg.OriginalBody = params.OriginalBody
	}
	msg.IsModified = params.IsModified
	msg.Status = domain.MessageValidated
	msg.ValidatedBy = &params.ValidatedBy
	msg.ValidatedAt = &now
	f.messages[params.MessageID] = msg

	conv := f.conversations[params.ConversationID]
	conv.Status = params.ConversationStatus
	if params.MarkCompleted {
		conv.IsCompleted = true
	}
	f.conversations[params.ConversationID] = conv

	if params.Outbox != nil {
		f.outboxRows = append(f.outboxRows, *params.Outbox)
	}
	return msg, nil
}

func (f *fakeStore) RejectMessage(_ context.Context, params repository.RejectMessageParams) (domain.Message, error) {
	f.rejectCalls++
	msg, ok := f.messages[params.MessageID]
	if !ok || msg.Status != domain.MessagePending {
		return domain.Message{}, repository.ErrMessageNotFound
	}

	now := time.Now()
	msg.Status = domain.MessageRejected
	msg.ValidatedBy = &params.ValidatedBy
	msg.ValidatedAt = &now
	f.messages[params.MessageID] = msg
	return msg, nil
}

func (f *fakeStore) CompleteConversation(_ context.Context, params repository.CompleteConversationParams) (domain.Conversation, error) {
	f.completeCalls++
	conv, ok := f.conversations[params.ConversationID]
	if !ok {
		return domain.Conversation{}, repository.ErrConversationNotFound
	}
	conv.IsCompleted = true
	conv.Status = domain.StatusCompleted
	reason := params.Reason
	conv.CompletionReason = &reason
	f.conversations[params.ConversationID] = conv
	return conv, nil
}

var _ Store = (*fakeStore)(nil)

func strPtr(s string) *string { return &s }

func newTestService(store *fakeStore) (*Service, *events.InMemoryBus) {
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	return New(store, bus, log), bus
}

func TestValidateNotPendingFailsWithInvalidState(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessageValidated, "draft")

	svc, _ := newTestService(store)
	_, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionValidate})

	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if store.validateCalls != 0 {
		t.Fatal("expected no mutation for non-pending message")
	}
	if got := store.messages[msg.ID]; got.Status != domain.MessageValidated {
		t.Fatalf("message status changed to %s", got.Status)
	}
}

func TestValidateUnknownActionFails(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	_, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: "approve"})

	if !apperr.Is(err, apperr.KindInvalidAction) {
		t.Fatalf("expected InvalidAction, got %v", err)
	}
	if store.validateCalls != 0 || store.rejectCalls != 0 {
		t.Fatal("expected no mutation for unknown action")
	}
}

func TestValidateWithEditTracksOriginalBody(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "original draft")

	svc, _ := newTestService(store)
	validated, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{
		Action:     ActionValidate,
		EditedBody: strPtr("polished reply"),
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if validated.Body != "polished reply" {
		t.Fatalf("body = %q, want edited text", validated.Body)
	}
	if validated.OriginalBody == nil || *validated.OriginalBody != "original draft" {
		t.Fatalf("original_body = %v, want pre-edit body", validated.OriginalBody)
	}
	if !validated.IsModified {
		t.Fatal("expected is_modified = true")
	}
	if validated.Status != domain.MessageValidated {
		t.Fatalf("status = %s, want validated", validated.Status)
	}
}

func TestValidateWithoutEditLeavesOriginalUnset(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	validated, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionValidate})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if validated.IsModified {
		t.Fatal("expected is_modified = false")
	}
	if validated.OriginalBody != nil {
		t.Fatalf("original_body = %q, want unset", *validated.OriginalBody)
	}
}

func TestValidateSameBodyEditIsNotModified(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	validated, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{
		Action:     ActionValidate,
		EditedBody: strPtr("draft"),
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if validated.IsModified || validated.OriginalBody != nil {
		t.Fatal("identical edited body must not count as a modification")
	}
}

func TestValidateWritesOutboxRowAtomically(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	if _, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionValidate}); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(store.outboxRows) != 1 {
		t.Fatalf("outbox rows = %d, want 1", len(store.outboxRows))
	}
	row := store.outboxRows[0]
	if row.Template != outbox.TemplateMessageReply {
		t.Fatalf("template = %q", row.Template)
	}
	payload, ok := row.Payload.(outbox.EmailPayload)
	if !ok {
		t.Fatalf("payload type %T", row.Payload)
	}
	if payload.To != "jean@example.com" || payload.Body != "draft" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestValidateWithoutClientEmailSkipsOutbox(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(nil)
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	validated, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionValidate})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if validated.Status != domain.MessageValidated {
		t.Fatalf("status = %s", validated.Status)
	}
	if len(store.outboxRows) != 0 {
		t.Fatal("expected no outbox row without a client email")
	}
}

func TestValidateDefaultsConversationToBlocked(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	if _, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionValidate}); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := store.conversations[conv.ID].Status; got != domain.StatusBlocked {
		t.Fatalf("conversation status = %s, want blocked", got)
	}
}

func TestValidateOnCompletedConversationFails(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusSuccess)
	closed := store.conversations[conv.ID]
	closed.IsCompleted = true
	store.conversations[conv.ID] = closed
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "late draft")

	svc, _ := newTestService(store)
	_, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionValidate})

	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if store.validateCalls != 0 {
		t.Fatal("expected no mutation on a completed conversation")
	}
	if got := store.conversations[conv.ID]; !got.IsCompleted || got.Status != domain.StatusSuccess {
		t.Fatalf("conversation left completed terminal state: %+v", got)
	}
	if got := store.messages[msg.ID]; got.Status != domain.MessagePending {
		t.Fatalf("message status = %s, want pending", got.Status)
	}
	if len(store.outboxRows) != 0 {
		t.Fatal("expected no outbox row")
	}
}

func TestRejectOnCompletedConversationStillWorks(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusCompleted)
	closed := store.conversations[conv.ID]
	closed.IsCompleted = true
	store.conversations[conv.ID] = closed
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "late draft")

	svc, _ := newTestService(store)
	rejected, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionReject})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rejected.Status != domain.MessageRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
	if got := store.conversations[conv.ID]; !got.IsCompleted || got.Status != domain.StatusCompleted {
		t.Fatalf("conversation state changed on reject: %+v", got)
	}
}

func TestValidateAppliesCallerConversationUpdates(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	status := domain.StatusRenewal
	if _, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{
		Action:             ActionValidate,
		ConversationStatus: &status,
	}); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := store.conversations[conv.ID].Status; got != domain.StatusRenewal {
		t.Fatalf("conversation status = %s, want renewal", got)
	}
}

func TestRejectSendsNoEmail(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)
	msg := store.addMessage(conv.ID, domain.SenderAI, domain.MessagePending, "draft")

	svc, _ := newTestService(store)
	rejected, err := svc.Validate(context.Background(), msg.ID, uuid.New(), ValidateInput{Action: ActionReject})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if rejected.Status != domain.MessageRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
	if len(store.outboxRows) != 0 {
		t.Fatal("expected zero outbox rows for a rejection")
	}
	if got := store.conversations[conv.ID].Status; got != domain.StatusActive {
		t.Fatalf("conversation status changed to %s on reject", got)
	}
}

func TestCreateMessageClientUnblocksConversation(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusBlocked)

	svc, _ := newTestService(store)
	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		ConversationID: conv.ID,
		Sender:         domain.SenderClient,
		Direction:      domain.DirectionInbox,
		Body:           "merci, une question de plus",
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if msg.Status != domain.MessageOpen {
		t.Fatalf("status = %s, want open", msg.Status)
	}
	if got := store.conversations[conv.ID].Status; got != domain.StatusActive {
		t.Fatalf("conversation status = %s, want active", got)
	}
	if len(store.outboxRows) != 0 {
		t.Fatal("client messages must not produce outbound email")
	}
}

func TestCreateMessageAIIsAlwaysPending(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)

	svc, _ := newTestService(store)
	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		ConversationID: conv.ID,
		Sender:         domain.SenderAI,
		Direction:      domain.DirectionSent,
		Body:           "draft answer",
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.Status != domain.MessagePending {
		t.Fatalf("status = %s, want pending", msg.Status)
	}
	if len(store.outboxRows) != 0 {
		t.Fatal("pending drafts must not produce email before validation")
	}
}

func TestCreateMessageAgentSendsImmediately(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)

	svc, _ := newTestService(store)
	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		ConversationID: conv.ID,
		Sender:         domain.SenderAgent,
		Direction:      domain.DirectionSent,
		Body:           "voici votre attestation",
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.Status != domain.MessageSent {
		t.Fatalf("status = %s, want sent", msg.Status)
	}
	if len(store.outboxRows) != 1 {
		t.Fatalf("outbox rows = %d, want 1", len(store.outboxRows))
	}
}

func TestCreateMessageUnknownConversation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	_, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		ConversationID: uuid.New(),
		Sender:         domain.SenderClient,
		Direction:      domain.DirectionInbox,
		Body:           "hello",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCompleteWithBogusReasonLeavesConversationUnchanged(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)

	svc, _ := newTestService(store)
	_, err := svc.Complete(context.Background(), conv.ID, domain.CompletionReason("bogus"))

	if !apperr.Is(err, apperr.KindInvalidReason) {
		t.Fatalf("expected InvalidReason, got %v", err)
	}
	if store.completeCalls != 0 {
		t.Fatal("expected no mutation for invalid reason")
	}
	if store.conversations[conv.ID].IsCompleted {
		t.Fatal("conversation must stay open")
	}
}

func TestCompletePublishesCompletionEvent(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))
	conv := store.addConversation(clientID, domain.StatusActive)

	svc, bus := newTestService(store)

	var received []events.ConversationCompleted
	bus.Subscribe(events.ConversationCompleted{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.ConversationCompleted)
		if !ok {
			return errors.New("unexpected event type")
		}
		received = append(received, e)
		return nil
	}))

	completed, err := svc.Complete(context.Background(), conv.ID, domain.ReasonResiliation)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if !completed.IsCompleted || completed.Status != domain.StatusCompleted {
		t.Fatalf("conversation = %+v, want completed", completed)
	}
	if completed.CompletionReason == nil || *completed.CompletionReason != domain.ReasonResiliation {
		t.Fatalf("completion reason = %v", completed.CompletionReason)
	}
	if len(received) != 1 || received[0].ClientID != clientID {
		t.Fatalf("received events = %+v", received)
	}
}

func TestValidatedEditRoundTrip(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(strPtr("jean@example.com"))

	svc, _ := newTestService(store)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, CreateConversationInput{ClientID: clientID, Subject: "Devis habitation"})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	draft, err := svc.CreateMessage(ctx, CreateMessageInput{
		ConversationID: conv.ID,
		Sender:         domain.SenderAI,
		Direction:      domain.DirectionSent,
		Body:           "premier jet",
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if _, err := svc.Validate(ctx, draft.ID, uuid.New(), ValidateInput{
		Action:     ActionValidate,
		EditedBody: strPtr("version finale"),
	}); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	fetched, err := svc.GetMessage(ctx, draft.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if fetched.Body != "version finale" {
		t.Fatalf("body = %q", fetched.Body)
	}
	if fetched.OriginalBody == nil || *fetched.OriginalBody != "premier jet" {
		t.Fatalf("original_body = %v", fetched.OriginalBody)
	}
	if !fetched.IsModified {
		t.Fatal("expected is_modified = true")
	}
}
