package entities

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// RepositoryPort abstracts entity persistence.
type RepositoryPort interface {
	ListEntities(ctx context.Context) ([]Entity, error)
	GetEntity(ctx context.Context, id uuid.UUID) (Entity, error)
	CreateEntity(ctx context.Context, name, code string) (Entity, error)
	SetStatus(ctx context.Context, id uuid.UUID, status bool) error
}

// Service exposes entity operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Entity, error) {
	return s.repo.ListEntities(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Entity, error) {
	return s.repo.GetEntity(ctx, id)
}

// Create registers a new operating entity. Codes are stored uppercase and
// must be unique across the platform.
func (s *Service) Create(ctx context.Context, name, code string) (Entity, error) {
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))
	if name == "" {
		return Entity{}, fmt.Errorf("%w: entity name is required", shared.ErrValidation)
	}
	if code == "" {
		return Entity{}, fmt.Errorf("%w: entity code is required", shared.ErrValidation)
	}
	return s.repo.CreateEntity(ctx, name, code)
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status bool) error {
	return s.repo.SetStatus(ctx, id, status)
}
