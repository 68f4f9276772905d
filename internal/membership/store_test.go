package membership

import (
	"context"
	"testing"
	"time"

	"github.com/safecollab/safecollab/internal/database/dbtest"
	"github.com/safecollab/safecollab/internal/rbac"
)

func TestStore_DuplicateIsConflict(t *testing.T) {
	pool := dbtest.Pool(t)
	s := NewStore(pool)
	ctx := context.Background()
	userID := dbtest.User(t, pool, "dup@example.com")
	groupID := dbtest.Group(t, pool, userID)

	if _, err := s.Create(ctx, userID, groupID, rbac.RoleAdmin); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.Create(ctx, userID, groupID, rbac.RoleViewer); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestStore_LastAdminGuard(t *testing.T) {
	pool := dbtest.Pool(t)
	s := NewStore(pool)
	ctx := context.Background()
	userID := dbtest.User(t, pool, "last@example.com")
	groupID := dbtest.Group(t, pool, userID)

	m, err := s.Create(ctx, userID, groupID, rbac.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateRole(ctx, m.ID, rbac.RoleViewer, true); err != ErrLastAdmin {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
	if err := s.Delete(ctx, m.ID, true); err != ErrLastAdmin {
		t.Fatalf("expected ErrLastAdmin on delete, got %v", err)
	}

	got, err := s.Find(ctx, userID, groupID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != rbac.RoleAdmin {
		t.Errorf("role changed to %s", got.Role)
	}
}

func TestStore_UpdateRoleMissing(t *testing.T) {
	pool := dbtest.Pool(t)
	s := NewStore(pool)

	if _, err := s.UpdateRole(context.Background(), "00000000-0000-0000-0000-000000000000", rbac.RoleEditor, false); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_LastAdminGuardSeesConcurrentPromotion(t *testing.T) {
	pool := dbtest.Pool(t)
	s := NewStore(pool)
	ctx := context.Background()
	aliceID := dbtest.User(t, pool, "race-alice@example.com")
	bobID := dbtest.User(t, pool, "race-bob@example.com")
	groupID := dbtest.Group(t, pool, aliceID)

	alice, err := s.Create(ctx, aliceID, groupID, rbac.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	bob, err := s.Create(ctx, bobID, groupID, rbac.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}

	// Hold the group lock while bob is promoted and alice demoted.
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(tx).UpdateRole(ctx, bob.ID, rbac.RoleAdmin, false); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(tx).UpdateRole(ctx, alice.ID, rbac.RoleViewer, false); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Delete(ctx, bob.ID, true) }()

	time.Sleep(100 * time.Millisecond)
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err != ErrLastAdmin {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
	got, err := s.GetByID(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != rbac.RoleAdmin {
		t.Errorf("expected bob to remain admin, got %s", got.Role)
	}
}

func TestStore_LastAdminGuardSeesConcurrentDemotion(t *testing.T) {
	pool := dbtest.Pool(t)
	s := NewStore(pool)
	ctx := context.Background()
	aliceID := dbtest.User(t, pool, "demote-alice@example.com")
	bobID := dbtest.User(t, pool, "demote-bob@example.com")
	groupID := dbtest.Group(t, pool, aliceID)

	if _, err := s.Create(ctx, aliceID, groupID, rbac.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	bob, err := s.Create(ctx, bobID, groupID, rbac.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(tx).UpdateRole(ctx, bob.ID, rbac.RoleViewer, false); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Delete(ctx, bob.ID, true) }()

	time.Sleep(100 * time.Millisecond)
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	// bob is a viewer by the time the guard runs, so removing him is fine.
	if err := <-done; err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
}
