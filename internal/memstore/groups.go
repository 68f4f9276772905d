package memstore

import (
	"context"

	"github.com/safecollab/safecollab/internal/group"
	"github.com/safecollab/safecollab/internal/rbac"
)

// Groups implements group.Repository.
type Groups struct {
	db *DB
}

var _ group.Repository = (*Groups)(nil)

// Create inserts a group with its creator as admin.
func (g *Groups) Create(ctx context.Context, name, createdBy string) (*group.Group, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()

	created := &group.Group{ID: newID(), Name: name, CreatedBy: createdBy, CreatedAt: g.db.tick()}
	if _, err := g.db.createMembership(createdBy, created.ID, rbac.RoleAdmin); err != nil {
		return nil, err
	}
	g.db.groups[created.ID] = created
	if u, ok := g.db.users[createdBy]; ok && u.DefaultGroupID == nil {
		id := created.ID
		u.DefaultGroupID = &id
	}
	out := *created
	return &out, nil
}

// GetByID returns a group by id.
func (g *Groups) GetByID(ctx context.Context, id string) (*group.Group, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()

	found, ok := g.db.groups[id]
	if !ok {
		return nil, group.ErrNotFound
	}
	out := *found
	return &out, nil
}

// Delete removes a group with its memberships and, per policy, its records.
func (g *Groups) Delete(ctx context.Context, id string, policy group.RecordPolicy) (*group.DeleteResult, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()

	if _, ok := g.db.groups[id]; !ok {
		return nil, group.ErrNotFound
	}

	res := &group.DeleteResult{GroupID: id}
	for rid, r := range g.db.records {
		if r.GroupID != id {
			continue
		}
		if policy == group.Restrict {
			return nil, group.ErrHasRecords
		}
		delete(g.db.records, rid)
		res.Records++
	}
	for mid, m := range g.db.memberships {
		if m.GroupID == id {
			delete(g.db.memberships, mid)
			res.Memberships++
		}
	}
	for _, u := range g.db.users {
		if u.DefaultGroupID != nil && *u.DefaultGroupID == id {
			u.DefaultGroupID = nil
		}
	}
	delete(g.db.groups, id)
	return res, nil
}
