package membership

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/safecollab/safecollab/internal/database"
	"github.com/safecollab/safecollab/internal/rbac"
)

// Store provides database operations for memberships.
type Store struct {
	db database.DBTX
}

// NewStore creates a new membership store. db may be a pool or a transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

const membershipColumns = `id, user_id, group_id, role, created_at, updated_at`

func scanMembership(row pgx.Row) (*Membership, error) {
	m := &Membership{}
	if err := row.Scan(&m.ID, &m.UserID, &m.GroupID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a membership. A second membership for the same user and
// group is rejected by the unique constraint and reported as ErrConflict.
func (s *Store) Create(ctx context.Context, userID, groupID string, role rbac.Role) (*Membership, error) {
	m, err := scanMembership(s.db.QueryRow(ctx,
		`INSERT INTO memberships (user_id, group_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING `+membershipColumns,
		userID, groupID, role,
	))
	if err != nil {
		if database.IsUniqueViolation(err, "memberships_user_group_key") {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("creating membership: %w", err)
	}
	return m, nil
}

// Find returns the membership of userID in groupID.
func (s *Store) Find(ctx context.Context, userID, groupID string) (*Membership, error) {
	m, err := scanMembership(s.db.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 AND group_id = $2`,
		userID, groupID,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding membership: %w", err)
	}
	return m, nil
}

// GetByID returns a membership by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Membership, error) {
	m, err := scanMembership(s.db.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting membership: %w", err)
	}
	return m, nil
}

// ListByGroup returns every member of a group with their email, oldest first.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]Member, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.user_id, m.group_id, m.role, m.created_at, m.updated_at, u.email
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.group_id = $1
		 ORDER BY m.created_at, m.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.Role, &m.CreatedAt, &m.UpdatedAt, &m.Email); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return members, nil
}

// ListByUser returns the groups a user belongs to with their role, by group name.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]UserGroup, error) {
	rows, err := s.db.Query(ctx,
		`SELECT g.id, g.name, m.role, g.created_at
		 FROM memberships m JOIN groups g ON g.id = m.group_id
		 WHERE m.user_id = $1
		 ORDER BY g.name, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user groups: %w", err)
	}
	defer rows.Close()

	groups := []UserGroup{}
	for rows.Next() {
		var g UserGroup
		if err := rows.Scan(&g.GroupID, &g.Name, &g.Role, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user groups: %w", err)
	}
	return groups, nil
}

// UpdateRole sets the role of a membership in a single statement. With
// keepAdmin set, the group row is locked and the change is refused when it
// would demote the group's last admin.
func (s *Store) UpdateRole(ctx context.Context, id string, role rbac.Role, keepAdmin bool) (*Membership, error) {
	if !keepAdmin || role == rbac.RoleAdmin {
		return s.updateRole(ctx, s.db, id, role)
	}

	var updated *Membership
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.checkLastAdmin(ctx, tx, id); err != nil {
			return err
		}
		var err error
		updated, err = s.updateRole(ctx, tx, id, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) updateRole(ctx context.Context, db database.DBTX, id string, role rbac.Role) (*Membership, error) {
	m, err := scanMembership(db.QueryRow(ctx,
		`UPDATE memberships SET role = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+membershipColumns,
		id, role,
	))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating membership role: %w", err)
	}
	return m, nil
}

// Delete removes a membership. keepAdmin behaves as in UpdateRole.
func (s *Store) Delete(ctx context.Context, id string, keepAdmin bool) error {
	if !keepAdmin {
		return s.delete(ctx, s.db, id)
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.checkLastAdmin(ctx, tx, id); err != nil {
			return err
		}
		return s.delete(ctx, tx, id)
	})
}

func (s *Store) delete(ctx context.Context, db database.DBTX, id string) error {
	tag, err := db.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// checkLastAdmin locks the membership's group and fails with ErrLastAdmin when
// the membership is the only admin left in it. The role is read after the
// lock so concurrent promotions and demotions are seen.
func (s *Store) checkLastAdmin(ctx context.Context, tx pgx.Tx, id string) error {
	var groupID string
	err := tx.QueryRow(ctx, `SELECT group_id FROM memberships WHERE id = $1`, id).Scan(&groupID)
	if err != nil {
		if database.IsNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("loading membership: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		return fmt.Errorf("locking group: %w", err)
	}

	var role rbac.Role
	err = tx.QueryRow(ctx, `SELECT role FROM memberships WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if database.IsNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("loading membership role: %w", err)
	}
	if role != rbac.RoleAdmin {
		return nil
	}

	var admins int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM memberships WHERE group_id = $1 AND role = $2`,
		groupID, rbac.RoleAdmin,
	).Scan(&admins)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// DeleteAllForGroup removes every membership of a group. It is meant to run
// on a transaction-bound store as part of group deletion.
func (s *Store) DeleteAllForGroup(ctx context.Context, groupID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM memberships WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("deleting group memberships: %w", err)
	}
	return tag.RowsAffected(), nil
}
