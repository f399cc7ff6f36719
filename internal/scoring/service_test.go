package scoring

import (
	"context"
	"testing"
	"time"

	"assurdesk_backend/internal/events"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	inputs map[uuid.UUID]Inputs
	saved  map[uuid.UUID]int
	calls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		inputs: make(map[uuid.UUID]Inputs),
		saved:  make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) LoadInputs(_ context.Context, clientID uuid.UUID, now time.Time) (Inputs, error) {
	in, ok := f.inputs[clientID]
	if !ok {
		return Inputs{}, errClientNotFound
	}
	in.Now = now
	return in, nil
}

func (f *fakeStore) SaveScore(_ context.Context, clientID uuid.UUID, score int) error {
	f.saved[clientID] = score
	f.calls++
	return nil
}

func TestScoreClientPersistsScore(t *testing.T) {
	store := newFakeStore()
	clientID := uuid.New()
	contacted := time.Now()
	store.inputs[clientID] = Inputs{LastContactAt: &contacted}

	svc := NewService(store, logger.New("test"))
	score, err := svc.ScoreClient(context.Background(), clientID)
	if err != nil {
		t.Fatalf("ScoreClient: %v", err)
	}
	if score != 45 {
		t.Fatalf("score = %d, want 45", score)
	}
	if store.saved[clientID] != 45 {
		t.Fatalf("persisted score = %d, want 45", store.saved[clientID])
	}
}

func TestScoreClientUnknownClientIsNoOp(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.New("test"))

	score, err := svc.ScoreClient(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected no error for unknown client, got %v", err)
	}
	if score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
	if store.calls != 0 {
		t.Fatal("expected no score writes for unknown client")
	}
}

func TestConversationCompletedTriggersRescore(t *testing.T) {
	store := newFakeStore()
	clientID := uuid.New()
	store.inputs[clientID] = Inputs{MessagesLast30Days: 12}

	svc := NewService(store, logger.New("test"))
	bus := events.NewInMemoryBus(logger.New("test"))
	svc.RegisterEventHandlers(bus)

	err := bus.PublishSync(context.Background(), events.ConversationCompleted{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: uuid.New(),
		ClientID:       clientID,
		Reason:         "success",
	})
	if err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	if store.saved[clientID] != 17 { // 12 engagement + 5 prospect
		t.Fatalf("persisted score = %d, want 17", store.saved[clientID])
	}
}
