package group

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/safecollab/safecollab/internal/database"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/record"
)

// Store provides database operations for groups. Multi-table writes run in a
// single transaction.
type Store struct {
	db database.DBTX
}

// NewStore creates a new group store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

const groupColumns = `id, name, created_by, created_at`

func scanGroup(row pgx.Row) (*Group, error) {
	g := &Group{}
	if err := row.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}

// Create inserts a group and makes its creator an admin of it. The creator's
// default group is set when they do not have one yet.
func (s *Store) Create(ctx context.Context, name, createdBy string) (*Group, error) {
	var g *Group
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		g, err = scanGroup(tx.QueryRow(ctx,
			`INSERT INTO groups (name, created_by)
			 VALUES ($1, $2)
			 RETURNING `+groupColumns,
			name, createdBy,
		))
		if err != nil {
			return fmt.Errorf("creating group: %w", err)
		}

		if _, err := membership.NewStore(tx).Create(ctx, createdBy, g.ID, rbac.RoleAdmin); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET default_group_id = $2
			 WHERE id = $1 AND default_group_id IS NULL`,
			createdBy, g.ID,
		)
		if err != nil {
			return fmt.Errorf("setting default group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetByID returns a group by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Group, error) {
	g, err := scanGroup(s.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting group: %w", err)
	}
	return g, nil
}

// Delete removes a group, its memberships and, depending on policy, its
// records in one transaction. Nothing is removed when any step fails.
func (s *Store) Delete(ctx context.Context, id string, policy RecordPolicy) (*DeleteResult, error) {
	res := &DeleteResult{GroupID: id}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if database.IsNoRows(err) {
				return ErrNotFound
			}
			return fmt.Errorf("locking group: %w", err)
		}

		records := record.NewStore(tx)
		if policy == Restrict {
			n, err := records.CountByGroup(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrHasRecords
			}
		} else {
			res.Records, err = records.DeleteAllForGroup(ctx, id)
			if err != nil {
				return err
			}
		}

		res.Memberships, err = membership.NewStore(tx).DeleteAllForGroup(ctx, id)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET default_group_id = NULL WHERE default_group_id = $1`, id); err != nil {
			return fmt.Errorf("clearing default groups: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting group: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
