package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/repository"
	"sactech-events/internal/usecase/fetch"
)

// CreateInput represents the input parameters for creating a new source.
type CreateInput struct {
	Name string
	Kind string
	URL  string
}

// UpdateInput represents the input parameters for updating an existing source.
// Empty string fields and a nil Active field will not be updated.
type UpdateInput struct {
	ID     int64
	Name   string
	Kind   string
	URL    string
	Active *bool
}

// Service provides source management use cases.
type Service struct {
	Repo repository.SourceRepository

	// Kinds, when set, rejects kinds without a registered adapter.
	Kinds *fetch.Registry

	// Now defaults to time.Now.
	Now func() time.Time
}

// List retrieves all sources that are not deleted.
func (s *Service) List(ctx context.Context) ([]*entity.Source, error) {
	sources, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// Get returns one source. Deleted sources are reported as ErrSourceNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Source, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	src, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil || src.Status == entity.SourceStatusDeleted {
		return nil, ErrSourceNotFound
	}
	return src, nil
}

// Create stores a new active source. Its checkpoint starts at the creation
// time, so only events seen from now on count as new for it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Source, error) {
	now := s.now()
	src := &entity.Source{
		Name:          strings.TrimSpace(in.Name),
		Kind:          strings.TrimSpace(in.Kind),
		URL:           strings.TrimSpace(in.URL),
		Status:        entity.SourceStatusActive,
		LastCheckedAt: &now,
		CreatedAt:     now,
	}
	if err := s.validate(src); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// Update modifies an existing source with the provided input.
// Returns ErrSourceNotFound if the source does not exist or is deleted.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Source, error) {
	current, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	src := new(entity.Source)
	*src = *current

	if name := strings.TrimSpace(in.Name); name != "" {
		src.Name = name
	}
	if kind := strings.TrimSpace(in.Kind); kind != "" {
		src.Kind = kind
	}
	if u := strings.TrimSpace(in.URL); u != "" {
		src.URL = u
	}
	if in.Active != nil {
		src.Status = entity.SourceStatusInactive
		if *in.Active {
			src.Status = entity.SourceStatusActive
		}
	}
	if err := s.validate(src); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, src); err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	return src, nil
}

// Delete marks a source as deleted. Its events stay in the event store.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return &entity.ValidationError{Field: "id", Message: "must be positive"}
	}

	if err := s.Repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrSourceNotFound
		}
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

func (s *Service) validate(src *entity.Source) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if s.Kinds == nil {
		return nil
	}
	if _, ok := s.Kinds.Lookup(src.Kind); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, src.Kind)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
