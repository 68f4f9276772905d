package memstore

import (
	"context"
	"sort"

	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/rbac"
)

// Memberships implements membership.Repository.
type Memberships struct {
	db *DB
}

var _ membership.Repository = (*Memberships)(nil)

// Create inserts a membership, rejecting a second one for the same user and group.
func (m *Memberships) Create(ctx context.Context, userID, groupID string, role rbac.Role) (*membership.Membership, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.db.createMembership(userID, groupID, role)
}

func (db *DB) createMembership(userID, groupID string, role rbac.Role) (*membership.Membership, error) {
	for _, existing := range db.memberships {
		if existing.UserID == userID && existing.GroupID == groupID {
			return nil, membership.ErrConflict
		}
	}
	now := db.tick()
	created := &membership.Membership{
		ID:        newID(),
		UserID:    userID,
		GroupID:   groupID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	db.memberships[created.ID] = created
	out := *created
	return &out, nil
}

// Find returns the membership of userID in groupID.
func (m *Memberships) Find(ctx context.Context, userID, groupID string) (*membership.Membership, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	for _, found := range m.db.memberships {
		if found.UserID == userID && found.GroupID == groupID {
			out := *found
			return &out, nil
		}
	}
	return nil, membership.ErrNotFound
}

// GetByID returns a membership by id.
func (m *Memberships) GetByID(ctx context.Context, id string) (*membership.Membership, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	found, ok := m.db.memberships[id]
	if !ok {
		return nil, membership.ErrNotFound
	}
	out := *found
	return &out, nil
}

// ListByGroup returns the members of a group, oldest first.
func (m *Memberships) ListByGroup(ctx context.Context, groupID string) ([]membership.Member, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	members := []membership.Member{}
	for _, found := range m.db.memberships {
		if found.GroupID != groupID {
			continue
		}
		member := membership.Member{Membership: *found}
		if u, ok := m.db.users[found.UserID]; ok {
			member.Email = u.Email
		}
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

// ListByUser returns the groups a user belongs to, by name.
func (m *Memberships) ListByUser(ctx context.Context, userID string) ([]membership.UserGroup, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	groups := []membership.UserGroup{}
	for _, found := range m.db.memberships {
		if found.UserID != userID {
			continue
		}
		g, ok := m.db.groups[found.GroupID]
		if !ok {
			continue
		}
		groups = append(groups, membership.UserGroup{
			GroupID:   g.ID,
			Name:      g.Name,
			Role:      found.Role,
			CreatedAt: g.CreatedAt,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].GroupID < groups[j].GroupID
	})
	return groups, nil
}

// UpdateRole sets a membership's role. With keepAdmin set it refuses to
// demote the group's last admin.
func (m *Memberships) UpdateRole(ctx context.Context, id string, role rbac.Role, keepAdmin bool) (*membership.Membership, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	found, ok := m.db.memberships[id]
	if !ok {
		return nil, membership.ErrNotFound
	}
	if keepAdmin && role != rbac.RoleAdmin && m.db.lastAdmin(found) {
		return nil, membership.ErrLastAdmin
	}
	found.Role = role
	found.UpdatedAt = m.db.tick()
	out := *found
	return &out, nil
}

// Delete removes a membership. keepAdmin behaves as in UpdateRole.
func (m *Memberships) Delete(ctx context.Context, id string, keepAdmin bool) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	found, ok := m.db.memberships[id]
	if !ok {
		return membership.ErrNotFound
	}
	if keepAdmin && m.db.lastAdmin(found) {
		return membership.ErrLastAdmin
	}
	delete(m.db.memberships, id)
	return nil
}

// Count returns the number of memberships in a group.
func (m *Memberships) Count(groupID string) int {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	n := 0
	for _, found := range m.db.memberships {
		if found.GroupID == groupID {
			n++
		}
	}
	return n
}

func (db *DB) lastAdmin(target *membership.Membership) bool {
	if target.Role != rbac.RoleAdmin {
		return false
	}
	admins := 0
	for _, other := range db.memberships {
		if other.GroupID == target.GroupID && other.Role == rbac.RoleAdmin {
			admins++
		}
	}
	return admins <= 1
}
