// Package rbac holds the role to capability table. It is the only place that
// decides what a group role may do.
package rbac

import (
	"errors"
	"strings"
)

// Role is a member's role within one group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// DefaultRole is assigned when a member is added without an explicit role.
const DefaultRole = RoleViewer

// Capability is an atomic permission checked against a role.
type Capability string

const (
	Read          Capability = "read"
	Create        Capability = "create"
	Update        Capability = "update"
	Delete        Capability = "delete"
	ManageMembers Capability = "manageMembers"
	DeleteGroup   Capability = "deleteGroup"
)

// ErrInvalidRole is returned by ParseRole for anything outside the three roles.
var ErrInvalidRole = errors.New("role must be one of: admin, editor, viewer")

var table = map[Role]map[Capability]bool{
	RoleAdmin: {
		Read:          true,
		Create:        true,
		Update:        true,
		Delete:        true,
		ManageMembers: true,
		DeleteGroup:   true,
	},
	RoleEditor: {
		Read:   true,
		Create: true,
		Update: true,
	},
	RoleViewer: {
		Read: true,
	},
}

// Allowed reports whether role grants capability. Unknown roles and
// capabilities are denied.
func Allowed(role Role, capability Capability) bool {
	caps, ok := table[role]
	if !ok {
		return false
	}
	return caps[capability]
}

// Capabilities returns the capabilities granted to role, in a stable order.
func Capabilities(role Role) []Capability {
	var out []Capability
	for _, c := range All() {
		if Allowed(role, c) {
			out = append(out, c)
		}
	}
	return out
}

// All returns every known capability.
func All() []Capability {
	return []Capability{Read, Create, Update, Delete, ManageMembers, DeleteGroup}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := table[r]
	return ok
}

// ParseRole converts s into a Role. Surrounding whitespace and case are ignored.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
