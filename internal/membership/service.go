package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/safecollab/safecollab/internal/apperr"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/user"
)

// Repository is the storage the Service needs. *Store implements it.
type Repository interface {
	Create(ctx context.Context, userID, groupID string, role rbac.Role) (*Membership, error)
	Find(ctx context.Context, userID, groupID string) (*Membership, error)
	GetByID(ctx context.Context, id string) (*Membership, error)
	ListByGroup(ctx context.Context, groupID string) ([]Member, error)
	ListByUser(ctx context.Context, userID string) ([]UserGroup, error)
	UpdateRole(ctx context.Context, id string, role rbac.Role, keepAdmin bool) (*Membership, error)
	Delete(ctx context.Context, id string, keepAdmin bool) error
}

// UserFinder resolves a member by email when adding them to a group.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Mutation actions reported to the observer.
const (
	ActionAdd        = "add"
	ActionUpdateRole = "update_role"
	ActionRemove     = "remove"
)

// Service applies the membership rules on top of a Repository. Callers are
// expected to have checked the manageMembers capability already.
type Service struct {
	repo    Repository
	users   UserFinder
	policy  AdminPolicy
	observe func(action string, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithAdminPolicy sets the admin retention policy. The default is SelfOnly.
func WithAdminPolicy(p AdminPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithObserver registers a hook called after every mutation attempt.
func WithObserver(fn func(action string, err error)) Option {
	return func(s *Service) { s.observe = fn }
}

// NewService creates a membership service.
func NewService(repo Repository, users UserFinder, opts ...Option) *Service {
	s := &Service{repo: repo, users: users, policy: SelfOnly}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(action string, err error) {
	if s.observe != nil {
		s.observe(action, err)
	}
}

// List returns the members of a group.
func (s *Service) List(ctx context.Context, groupID string) ([]Member, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// ListForUser returns the groups a user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]UserGroup, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add makes the registered user with the given email a member of groupID.
// An empty role means rbac.DefaultRole; any other value must name a role.
func (s *Service) Add(ctx context.Context, groupID, email, role string) (m *Membership, err error) {
	defer func() { s.record(ActionAdd, err) }()

	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	r := rbac.DefaultRole
	if role != "" {
		r, err = parseRole(role)
		if err != nil {
			return nil, err
		}
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	return s.repo.Create(ctx, u.ID, groupID, r)
}

// UpdateRole changes the role of membershipID within groupID on behalf of actorID.
// An actor can never take admin away from their own membership.
func (s *Service) UpdateRole(ctx context.Context, actorID, groupID, membershipID, role string) (m *Membership, err error) {
	defer func() { s.record(ActionUpdateRole, err) }()

	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, groupID, membershipID)
	if err != nil {
		return nil, err
	}
	if target.UserID == actorID && r != rbac.RoleAdmin {
		return nil, ErrSelfDemotion
	}

	return s.repo.UpdateRole(ctx, target.ID, r, s.policy == AtLeastOne)
}

// Remove deletes membershipID from groupID on behalf of actorID. Actors
// cannot remove themselves.
func (s *Service) Remove(ctx context.Context, actorID, groupID, membershipID string) (err error) {
	defer func() { s.record(ActionRemove, err) }()

	target, err := s.target(ctx, groupID, membershipID)
	if err != nil {
		return err
	}
	if target.UserID == actorID {
		return ErrSelfRemoval
	}

	return s.repo.Delete(ctx, target.ID, s.policy == AtLeastOne)
}

// target loads a membership and hides memberships of other groups.
func (s *Service) target(ctx context.Context, groupID, membershipID string) (*Membership, error) {
	if _, err := uuid.Parse(membershipID); err != nil {
		return nil, ErrNotFound
	}
	m, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.GroupID != groupID {
		return nil, ErrNotFound
	}
	return m, nil
}

func parseRole(role string) (rbac.Role, error) {
	r, err := rbac.ParseRole(role)
	if err != nil {
		return "", apperr.Wrap(apperr.BadRequest, rbac.ErrInvalidRole.Error(), err)
	}
	return r, nil
}
