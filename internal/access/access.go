// Package access resolves a caller's role in the active group and gates
// requests on the capabilities that role grants.
package access

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/safecollab/safecollab/internal/apperr"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/rbac"
)

// GroupHeader carries the active group id on group-scoped requests.
const GroupHeader = "X-Group-ID"

var (
	ErrGroupMissing     = apperr.New(apperr.BadRequest, "group id missing")
	ErrGroupInvalid     = apperr.New(apperr.BadRequest, "invalid group id")
	ErrNotMember        = apperr.New(apperr.Forbidden, "not a group member")
	ErrPermissionDenied = apperr.New(apperr.Forbidden, "permission denied")
)

// MembershipFinder looks up a user's membership in a group.
type MembershipFinder interface {
	Find(ctx context.Context, userID, groupID string) (*membership.Membership, error)
}

// Grant is the caller's resolved membership in the active group. It lives
// for one request only.
type Grant struct {
	UserID       string    `json:"user_id"`
	GroupID      string    `json:"group_id"`
	MembershipID string    `json:"membership_id"`
	Role         rbac.Role `json:"role"`
}

// Can reports whether the grant's role has capability.
func (g *Grant) Can(capability rbac.Capability) bool {
	return g != nil && rbac.Allowed(g.Role, capability)
}

// Resolver turns an identity and a group id into a Grant.
type Resolver struct {
	memberships MembershipFinder
}

// NewResolver creates a Resolver backed by the membership store.
func NewResolver(memberships MembershipFinder) *Resolver {
	return &Resolver{memberships: memberships}
}

// Resolve reads the caller's current membership of groupID. The role always
// comes from the store.
func (r *Resolver) Resolve(ctx context.Context, userID, groupID string) (*Grant, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrGroupMissing
	}
	parsed, err := uuid.Parse(groupID)
	if err != nil {
		return nil, ErrGroupInvalid
	}
	groupID = parsed.String()

	m, err := r.memberships.Find(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}

	return &Grant{
		UserID:       m.UserID,
		GroupID:      m.GroupID,
		MembershipID: m.ID,
		Role:         m.Role,
	}, nil
}

// Authorize checks capability against a resolved grant.
func Authorize(g *Grant, capability rbac.Capability) error {
	if !g.Can(capability) {
		return ErrPermissionDenied
	}
	return nil
}
