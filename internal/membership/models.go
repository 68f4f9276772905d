// Package membership stores group memberships and guards changes to them.
package membership

import (
	"fmt"
	"time"

	"github.com/safecollab/safecollab/internal/apperr"
	"github.com/safecollab/safecollab/internal/rbac"
)

// Membership binds one user to one group with one role.
type Membership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	Role      rbac.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is a membership joined with the member's email, as listed to admins.
type Member struct {
	Membership
	Email string `json:"email"`
}

// UserGroup is one of a user's groups together with their role in it.
type UserGroup struct {
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Role      rbac.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminPolicy controls how far the guard goes to keep admins in a group.
type AdminPolicy string

const (
	// SelfOnly blocks an admin from demoting or removing themselves.
	SelfOnly AdminPolicy = "self_only"
	// AtLeastOne additionally refuses any change that leaves a group without an admin.
	AtLeastOne AdminPolicy = "at_least_one"
)

// ParseAdminPolicy validates a configured admin policy. Empty means SelfOnly.
func ParseAdminPolicy(s string) (AdminPolicy, error) {
	switch AdminPolicy(s) {
	case "", SelfOnly:
		return SelfOnly, nil
	case AtLeastOne:
		return AtLeastOne, nil
	}
	return "", fmt.Errorf("invalid admin policy %q: must be %s or %s", s, SelfOnly, AtLeastOne)
}

var (
	ErrNotFound          = apperr.New(apperr.NotFound, "member not found")
	ErrConflict          = apperr.New(apperr.Conflict, "user is already a member of this group")
	ErrSelfDemotion      = apperr.New(apperr.InvalidOperation, "cannot remove own admin access")
	ErrSelfRemoval       = apperr.New(apperr.InvalidOperation, "cannot remove self")
	ErrLastAdmin         = apperr.New(apperr.InvalidOperation, "group must keep at least one admin")
	ErrUserNotRegistered = apperr.New(apperr.NotFound, "user not registered")
	ErrEmailRequired     = apperr.New(apperr.BadRequest, "email is required")
)
