// Package service implements client and contract management.
package service

import (
	"context"
	"errors"
	"time"

	"assurdesk_backend/internal/clients/repository"
	"assurdesk_backend/internal/events"
	"assurdesk_backend/platform/apperr"
	"assurdesk_backend/platform/config"
	"assurdesk_backend/platform/phone"

	"github.com/google/uuid"
)

// ContractStatus values form a closed set.
const (
	ContractActive    = "active"
	ContractPending   = "pending"
	ContractExpired   = "expired"
	ContractCancelled = "cancelled"
)

func validContractStatus(status string) bool {
	switch status {
	case ContractActive, ContractPending, ContractExpired, ContractCancelled:
		return true
	}
	return false
}

// Rescorer recomputes and persists a client's opportunity score.
type Rescorer interface {
	ScoreClient(ctx context.Context, clientID uuid.UUID) (int, error)
}

type Service struct {
	repo     *repository.Repository
	bus      events.Bus
	rescorer Rescorer
	cfg      config.PhoneConfig
}

func New(repo *repository.Repository, bus events.Bus, rescorer Rescorer, cfg config.PhoneConfig) *Service {
	return &Service{repo: repo, bus: bus, rescorer: rescorer, cfg: cfg}
}

type CreateClientInput struct {
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Address   *string
	Age       *int
	Job       *string
	Notes     *string
}

func (s *Service) CreateClient(ctx context.Context, input CreateClientInput) (repository.Client, error) {
	params := repository.CreateClientParams{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     s.normalizePhone(input.Phone),
		Address:   input.Address,
		Age:       input.Age,
		Job:       input.Job,
		Notes:     input.Notes,
	}

	client, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Client{}, apperr.Wrap(apperr.KindConflict, "could not create client", err)
	}
	return client, nil
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (repository.Client, []repository.Contract, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Client{}, nil, apperr.NotFound("client not found")
		}
		return repository.Client{}, nil, err
	}

	contracts, err := s.repo.ListContracts(ctx, id)
	if err != nil {
		return repository.Client{}, nil, err
	}

	return client, contracts, nil
}

type UpdateClientInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	Age       *int
	Job       *string
	Notes     *string
}

func (s *Service) UpdateClient(ctx context.Context, id uuid.UUID, input UpdateClientInput) (repository.Client, error) {
	client, err := s.repo.Update(ctx, id, repository.UpdateClientParams{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     s.normalizePhone(input.Phone),
		Address:   input.Address,
		Age:       input.Age,
		Job:       input.Job,
		Notes:     input.Notes,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	return client, err
}

func (s *Service) DeleteClient(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("client not found")
	}
	return err
}

type ListClientsInput struct {
	Search string
	Page   int
	Limit  int
}

func (s *Service) ListClients(ctx context.Context, input ListClientsInput) ([]repository.Client, int, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 25
	}
	if input.Page < 1 {
		input.Page = 1
	}

	return s.repo.List(ctx, repository.ListParams{
		Search: input.Search,
		Offset: (input.Page - 1) * input.Limit,
		Limit:  input.Limit,
	})
}

type AddContractInput struct {
	Type         string
	PolicyNumber string
	Status       string
	PremiumCents *int64
	StartDate    time.Time
	EndDate      *time.Time
}

func (s *Service) AddContract(ctx context.Context, clientID uuid.UUID, input AddContractInput) (repository.Contract, error) {
	if input.Status == "" {
		input.Status = ContractActive
	}
	if !validContractStatus(input.Status) {
		return repository.Contract{}, apperr.Validation("unknown contract status: " + input.Status)
	}

	if _, err := s.repo.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Contract{}, apperr.NotFound("client not found")
		}
		return repository.Contract{}, err
	}

	contract, err := s.repo.AddContract(ctx, repository.CreateContractParams{
		ClientID:     clientID,
		Type:         input.Type,
		PolicyNumber: input.PolicyNumber,
		Status:       input.Status,
		PremiumCents: input.PremiumCents,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	})
	if err != nil {
		return repository.Contract{}, err
	}

	s.bus.Publish(ctx, events.ContractAdded{
		BaseEvent:  events.NewBaseEvent(),
		ClientID:   clientID,
		ContractID: contract.ID,
	})

	return contract, nil
}

func (s *Service) SetContractStatus(ctx context.Context, contractID uuid.UUID, status string) (repository.Contract, error) {
	if !validContractStatus(status) {
		return repository.Contract{}, apperr.Validation("unknown contract status: " + status)
	}

	contract, err := s.repo.UpdateContractStatus(ctx, contractID, status)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return repository.Contract{}, apperr.NotFound("contract not found")
		}
		return repository.Contract{}, err
	}

	s.bus.Publish(ctx, events.ContractStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		ClientID:   contract.ClientID,
		ContractID: contract.ID,
		Status:     status,
	})

	return contract, nil
}

// Rescore recomputes the client's opportunity score on demand.
func (s *Service) Rescore(ctx context.Context, clientID uuid.UUID) (int, error) {
	if _, err := s.repo.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperr.NotFound("client not found")
		}
		return 0, err
	}
	return s.rescorer.ScoreClient(ctx, clientID)
}

func (s *Service) normalizePhone(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*value, s.cfg.GetDefaultPhoneRegion())
	return &normalized
}
