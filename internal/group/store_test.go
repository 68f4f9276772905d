package group

import (
	"context"
	"testing"

	"github.com/safecollab/safecollab/internal/database/dbtest"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/record"
)

func TestStore_CreateAndCascadeDelete(t *testing.T) {
	pool := dbtest.Pool(t)
	s := NewStore(pool)
	ctx := context.Background()
	userID := dbtest.User(t, pool, "owner@example.com")

	g, err := s.Create(ctx, "integration", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err := membership.NewStore(pool).Find(ctx, userID, g.ID)
	if err != nil {
		t.Fatalf("finding creator membership: %v", err)
	}
	if m.Role != rbac.RoleAdmin {
		t.Errorf("creator role = %s, want admin", m.Role)
	}

	if _, err := record.NewStore(pool).Create(ctx, g.ID, userID, record.Input{Title: "a", Content: "b"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Delete(ctx, g.ID, Restrict); err != ErrHasRecords {
		t.Fatalf("expected ErrHasRecords, got %v", err)
	}
	if _, err := s.GetByID(ctx, g.ID); err != nil {
		t.Fatalf("group must survive a refused delete: %v", err)
	}

	res, err := s.Delete(ctx, g.ID, Cascade)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Records != 1 || res.Memberships != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, err := s.GetByID(ctx, g.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
