package memstore

import (
	"context"
	"sort"

	"github.com/safecollab/safecollab/internal/record"
)

// Records implements record.Repository.
type Records struct {
	db *DB
}

var _ record.Repository = (*Records)(nil)

// ListByGroup returns a group's records, newest first.
func (r *Records) ListByGroup(ctx context.Context, groupID string) ([]record.Record, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	records := []record.Record{}
	for _, found := range r.db.records {
		if found.GroupID == groupID {
			records = append(records, *found)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Create inserts a record.
func (r *Records) Create(ctx context.Context, groupID, createdBy string, in record.Input) (*record.Record, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.tick()
	created := &record.Record{
		ID:        newID(),
		GroupID:   groupID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.db.records[created.ID] = created
	out := *created
	return &out, nil
}

// Update replaces a record's fields when it belongs to groupID.
func (r *Records) Update(ctx context.Context, groupID, id string, in record.Input) (*record.Record, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	found, ok := r.db.records[id]
	if !ok || found.GroupID != groupID {
		return nil, record.ErrNotFound
	}
	found.Title = in.Title
	found.Content = in.Content
	found.UpdatedAt = r.db.tick()
	out := *found
	return &out, nil
}

// Delete removes a record when it belongs to groupID.
func (r *Records) Delete(ctx context.Context, groupID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	found, ok := r.db.records[id]
	if !ok || found.GroupID != groupID {
		return record.ErrNotFound
	}
	delete(r.db.records, id)
	return nil
}
