package membership_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/safecollab/safecollab/internal/apperr"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/memstore"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	db      *memstore.DB
	svc     *membership.Service
	admin   *user.User
	groupID string
	adminM  *membership.Membership
}

func setup(t *testing.T, opts ...membership.Option) *env {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()

	admin := mustUser(t, db, "admin@example.com")
	g, err := db.Groups().Create(ctx, "Team", admin.ID)
	require.NoError(t, err)
	m, err := db.Memberships().Find(ctx, admin.ID, g.ID)
	require.NoError(t, err)

	return &env{
		db:      db,
		svc:     membership.NewService(db.Memberships(), db.Users(), opts...),
		admin:   admin,
		groupID: g.ID,
		adminM:  m,
	}
}

func mustUser(t *testing.T, db *memstore.DB, email string) *user.User {
	t.Helper()
	u, err := db.Users().Create(context.Background(), user.CreateUserInput{Email: email, Password: "password1"})
	require.NoError(t, err)
	return u
}

func TestAdd(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	mustUser(t, e.db, "bob@example.com")
	mustUser(t, e.db, "carol@example.com")

	m, err := e.svc.Add(ctx, e.groupID, "  BOB@example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleViewer, m.Role, "role defaults to viewer")
	assert.Equal(t, e.groupID, m.GroupID)

	m, err = e.svc.Add(ctx, e.groupID, "carol@example.com", "Editor")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleEditor, m.Role)

	_, err = e.svc.Add(ctx, e.groupID, "bob@example.com", "admin")
	assert.ErrorIs(t, err, membership.ErrConflict)

	_, err = e.svc.Add(ctx, e.groupID, "", "viewer")
	assert.ErrorIs(t, err, membership.ErrEmailRequired)

	_, err = e.svc.Add(ctx, e.groupID, "nobody@example.com", "viewer")
	assert.ErrorIs(t, err, membership.ErrUserNotRegistered)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = e.svc.Add(ctx, e.groupID, "bob@example.com", "owner")
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	mustUser(t, e.db, "dave@example.com")
	_, err = e.svc.Add(ctx, e.groupID, "dave@example.com", "   ")
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err), "blank role is not the default")

	members, err := e.svc.List(ctx, e.groupID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "admin@example.com", members[0].Email)
}

// Concurrent adds of the same user produce exactly one membership.
func TestAdd_ConcurrentDuplicates(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	mustUser(t, e.db, "bob@example.com")

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Add(ctx, e.groupID, "bob@example.com", "editor")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, membership.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, e.db.Memberships().Count(e.groupID))
}

func TestUpdateRole_SelfDemotionBlocked(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	for _, role := range []string{"editor", "viewer"} {
		_, err := e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, e.adminM.ID, role)
		assert.ErrorIs(t, err, membership.ErrSelfDemotion)
		assert.Equal(t, apperr.InvalidOperation, apperr.KindOf(err))
	}

	m, err := e.db.Memberships().GetByID(ctx, e.adminM.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, m.Role, "role must be unchanged")

	// A second admin in the group does not lift the block, under either policy.
	mustUser(t, e.db, "co-admin@example.com")
	_, err = e.svc.Add(ctx, e.groupID, "co-admin@example.com", "admin")
	require.NoError(t, err)
	for _, policy := range []membership.AdminPolicy{membership.SelfOnly, membership.AtLeastOne} {
		svc := membership.NewService(e.db.Memberships(), e.db.Users(), membership.WithAdminPolicy(policy))
		for _, role := range []string{"editor", "viewer"} {
			_, err := svc.UpdateRole(ctx, e.admin.ID, e.groupID, e.adminM.ID, role)
			assert.ErrorIs(t, err, membership.ErrSelfDemotion, "policy %s, role %s", policy, role)
		}
	}
	m, err = e.db.Memberships().GetByID(ctx, e.adminM.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, m.Role)

	// Re-asserting admin on oneself is a no-op change and allowed.
	m, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, e.adminM.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, m.Role)
}

func TestUpdateRole(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	mustUser(t, e.db, "bob@example.com")
	bob, err := e.svc.Add(ctx, e.groupID, "bob@example.com", "viewer")
	require.NoError(t, err)

	m, err := e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, bob.ID, "editor")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleEditor, m.Role)

	_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, bob.ID, "superuser")
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, uuid.NewString(), "editor")
	assert.ErrorIs(t, err, membership.ErrNotFound)

	_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, "not-an-id", "editor")
	assert.ErrorIs(t, err, membership.ErrNotFound)
}

func TestUpdateRole_OtherGroupNotFound(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	other := mustUser(t, e.db, "other@example.com")
	g, err := e.db.Groups().Create(ctx, "Other", other.ID)
	require.NoError(t, err)
	otherM, err := e.db.Memberships().Find(ctx, other.ID, g.ID)
	require.NoError(t, err)

	_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, otherM.ID, "viewer")
	assert.ErrorIs(t, err, membership.ErrNotFound)
	err = e.svc.Remove(ctx, e.admin.ID, e.groupID, otherM.ID)
	assert.ErrorIs(t, err, membership.ErrNotFound)

	m, err := e.db.Memberships().GetByID(ctx, otherM.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, m.Role)
}

func TestRemove(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	mustUser(t, e.db, "bob@example.com")
	bob, err := e.svc.Add(ctx, e.groupID, "bob@example.com", "editor")
	require.NoError(t, err)

	err = e.svc.Remove(ctx, e.admin.ID, e.groupID, e.adminM.ID)
	assert.ErrorIs(t, err, membership.ErrSelfRemoval)
	assert.Equal(t, 2, e.db.Memberships().Count(e.groupID))

	require.NoError(t, e.svc.Remove(ctx, e.admin.ID, e.groupID, bob.ID))
	assert.Equal(t, 1, e.db.Memberships().Count(e.groupID))

	err = e.svc.Remove(ctx, e.admin.ID, e.groupID, bob.ID)
	assert.ErrorIs(t, err, membership.ErrNotFound)
}

func TestAdminPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("self only lets another admin demote the last admin", func(t *testing.T) {
		e := setup(t)
		mustUser(t, e.db, "bob@example.com")
		bob, err := e.svc.Add(ctx, e.groupID, "bob@example.com", "admin")
		require.NoError(t, err)

		_, err = e.svc.UpdateRole(ctx, bob.UserID, e.groupID, e.adminM.ID, "viewer")
		require.NoError(t, err)
		require.NoError(t, e.svc.Remove(ctx, e.admin.ID, e.groupID, bob.ID))
	})

	t.Run("at least one keeps an admin", func(t *testing.T) {
		e := setup(t, membership.WithAdminPolicy(membership.AtLeastOne))
		mustUser(t, e.db, "bob@example.com")
		bob, err := e.svc.Add(ctx, e.groupID, "bob@example.com", "admin")
		require.NoError(t, err)

		_, err = e.svc.UpdateRole(ctx, bob.UserID, e.groupID, e.adminM.ID, "viewer")
		require.NoError(t, err)

		// Bob is now the only admin.
		_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, bob.ID, "editor")
		assert.ErrorIs(t, err, membership.ErrLastAdmin)
		err = e.svc.Remove(ctx, e.admin.ID, e.groupID, bob.ID)
		assert.ErrorIs(t, err, membership.ErrLastAdmin)
	})
}

func TestParseAdminPolicy(t *testing.T) {
	p, err := membership.ParseAdminPolicy("")
	require.NoError(t, err)
	assert.Equal(t, membership.SelfOnly, p)

	p, err = membership.ParseAdminPolicy("at_least_one")
	require.NoError(t, err)
	assert.Equal(t, membership.AtLeastOne, p)

	_, err = membership.ParseAdminPolicy("none")
	assert.Error(t, err)
}

func TestObserver(t *testing.T) {
	type call struct {
		action string
		ok     bool
	}
	var calls []call
	e := setup(t, membership.WithObserver(func(action string, err error) {
		calls = append(calls, call{action, err == nil})
	}))
	ctx := context.Background()
	mustUser(t, e.db, "bob@example.com")

	bob, err := e.svc.Add(ctx, e.groupID, "bob@example.com", "")
	require.NoError(t, err)
	_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.groupID, e.adminM.ID, "viewer")
	require.Error(t, err)
	require.NoError(t, e.svc.Remove(ctx, e.admin.ID, e.groupID, bob.ID))

	assert.Equal(t, []call{
		{membership.ActionAdd, true},
		{membership.ActionUpdateRole, false},
		{membership.ActionRemove, true},
	}, calls)
}

func TestListForUser(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, err := e.db.Groups().Create(ctx, "Alpha", e.admin.ID)
	require.NoError(t, err)

	groups, err := e.svc.ListForUser(ctx, e.admin.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Alpha", groups[0].Name)
	assert.Equal(t, "Team", groups[1].Name)
	for _, g := range groups {
		assert.Equal(t, rbac.RoleAdmin, g.Role)
	}
}

func TestSentinelKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind apperr.Kind
	}{
		{membership.ErrNotFound, apperr.NotFound},
		{membership.ErrConflict, apperr.Conflict},
		{membership.ErrSelfDemotion, apperr.InvalidOperation},
		{membership.ErrSelfRemoval, apperr.InvalidOperation},
		{membership.ErrLastAdmin, apperr.InvalidOperation},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, apperr.KindOf(tt.err), tt.err.Error())
		assert.True(t, errors.Is(tt.err, tt.err))
	}
}
