package record

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Repository is the storage the Service needs. *Store implements it.
type Repository interface {
	ListByGroup(ctx context.Context, groupID string) ([]Record, error)
	Create(ctx context.Context, groupID, createdBy string, in Input) (*Record, error)
	Update(ctx context.Context, groupID, id string, in Input) (*Record, error)
	Delete(ctx context.Context, groupID, id string) error
}

// Service validates and sanitises record input before storing it.
type Service struct {
	repo   Repository
	policy *bluemonday.Policy
}

// NewService creates a record service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, policy: bluemonday.UGCPolicy()}
}

// List returns the records of a group, newest first.
func (s *Service) List(ctx context.Context, groupID string) ([]Record, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// Create adds a record to a group.
func (s *Service) Create(ctx context.Context, groupID, userID string, in Input) (*Record, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, groupID, userID, in)
}

// Update replaces a record's fields. Records of other groups are not found.
func (s *Service) Update(ctx context.Context, groupID, id string, in Input) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, groupID, id, in)
}

// Delete removes a record. Records of other groups are not found.
func (s *Service) Delete(ctx context.Context, groupID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, groupID, id)
}

func (s *Service) clean(in Input) (Input, error) {
	in.Title = strings.TrimSpace(s.policy.Sanitize(in.Title))
	in.Content = strings.TrimSpace(s.policy.Sanitize(in.Content))
	if in.Title == "" || in.Content == "" {
		return Input{}, ErrFieldsRequired
	}
	return in, nil
}
