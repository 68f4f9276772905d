package group

import (
	"context"
	"strings"
)

// Repository is the storage the Service needs. *Store implements it.
type Repository interface {
	Create(ctx context.Context, name, createdBy string) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	Delete(ctx context.Context, id string, policy RecordPolicy) (*DeleteResult, error)
}

// Service applies group lifecycle rules.
type Service struct {
	repo   Repository
	policy RecordPolicy
}

// NewService creates a group service that deletes records according to policy.
func NewService(repo Repository, policy RecordPolicy) *Service {
	if policy == "" {
		policy = Cascade
	}
	return &Service{repo: repo, policy: policy}
}

// Create makes a new group owned by creatorID, who becomes its admin.
func (s *Service) Create(ctx context.Context, creatorID, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.Create(ctx, name, creatorID)
}

// Get returns a group.
func (s *Service) Get(ctx context.Context, id string) (*Group, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes the active group. targetID is the group the caller asked to
// delete and must be the group their access was resolved against.
func (s *Service) Delete(ctx context.Context, activeGroupID, targetID string) (*DeleteResult, error) {
	if targetID != activeGroupID {
		return nil, ErrIDMismatch
	}
	return s.repo.Delete(ctx, activeGroupID, s.policy)
}
