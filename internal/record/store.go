package record

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/safecollab/safecollab/internal/database"
)

// Store provides database operations for records. Every query is scoped to a
// group so a record can only be reached through the group that owns it.
type Store struct {
	db database.DBTX
}

// NewStore creates a new record store. db may be a pool or a transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

const recordColumns = `id, group_id, title, content, created_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	r := &Record{}
	if err := row.Scan(&r.ID, &r.GroupID, &r.Title, &r.Content, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByGroup returns the group's records, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+recordColumns+` FROM records
		 WHERE group_id = $1
		 ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// Create inserts a record into a group.
func (s *Store) Create(ctx context.Context, groupID, createdBy string, in Input) (*Record, error) {
	r, err := scanRecord(s.db.QueryRow(ctx,
		`INSERT INTO records (group_id, title, content, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+recordColumns,
		groupID, in.Title, in.Content, createdBy,
	))
	if err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}
	return r, nil
}

// Update replaces the title and content of a record in a group.
func (s *Store) Update(ctx context.Context, groupID, id string, in Input) (*Record, error) {
	r, err := scanRecord(s.db.QueryRow(ctx,
		`UPDATE records SET title = $3, content = $4, updated_at = now()
		 WHERE id = $1 AND group_id = $2
		 RETURNING `+recordColumns,
		id, groupID, in.Title, in.Content,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating record: %w", err)
	}
	return r, nil
}

// Delete removes a record from a group.
func (s *Store) Delete(ctx context.Context, groupID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM records WHERE id = $1 AND group_id = $2`, id, groupID)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForGroup removes every record of a group.
func (s *Store) DeleteAllForGroup(ctx context.Context, groupID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM records WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("deleting group records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountByGroup returns the number of records in a group.
func (s *Store) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM records WHERE group_id = $1`, groupID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
