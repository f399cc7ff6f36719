package scoring

import (
	"context"
	"errors"
	"time"

	"assurdesk_backend/internal/events"
	"assurdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// InputLoader abstracts the data reads so the service can be tested with a
// fake store.
type InputLoader interface {
	LoadInputs(ctx context.Context, clientID uuid.UUID, now time.Time) (Inputs, error)
	SaveScore(ctx context.Context, clientID uuid.UUID, score int) error
}

// Service recomputes opportunity scores when rescore triggers fire:
// conversation completion, contract addition, and contract status changes.
type Service struct {
	store InputLoader
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store InputLoader, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// ScoreClient recomputes and persists the client's opportunity score.
// An unknown client is a no-op: there is nothing to score.
func (s *Service) ScoreClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	in, err := s.store.LoadInputs(ctx, clientID, s.now())
	if err != nil {
		if errors.Is(err, errClientNotFound) {
			return 0, nil
		}
		return 0, err
	}

	score := Calculate(in)
	if err := s.store.SaveScore(ctx, clientID, score); err != nil {
		return 0, err
	}

	s.log.Info("opportunity score updated", "client_id", clientID.String(), "score", score)
	return score, nil
}

// RegisterEventHandlers subscribes the rescore triggers on the bus.
func (s *Service) RegisterEventHandlers(bus events.Bus) {
	bus.Subscribe(events.ConversationCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ConversationCompleted)
		if !ok {
			return nil
		}
		_, err := s.ScoreClient(ctx, e.ClientID)
		return err
	}))

	bus.Subscribe(events.ContractAdded{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ContractAdded)
		if !ok {
			return nil
		}
		_, err := s.ScoreClient(ctx, e.ClientID)
		return err
	}))

	bus.Subscribe(events.ContractStatusChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ContractStatusChanged)
		if !ok {
			return nil
		}
		_, err := s.ScoreClient(ctx, e.ClientID)
		return err
	}))
}
