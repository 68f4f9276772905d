package access_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/safecollab/safecollab/internal/access"
	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/memstore"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/user"
)

type fixture struct {
	db      *memstore.DB
	alice   *user.User
	bob     *user.User
	groupID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()

	alice, err := db.Users().Create(ctx, user.CreateUserInput{Email: "alice@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	bob, err := db.Users().Create(ctx, user.CreateUserInput{Email: "bob@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	g, err := db.Groups().Create(ctx, "Team", alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{db: db, alice: alice, bob: bob, groupID: g.ID}
}

type countingRecorder struct {
	allowed, denied map[rbac.Capability]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{allowed: map[rbac.Capability]int{}, denied: map[rbac.Capability]int{}}
}

func (c *countingRecorder) RecordDecision(capability rbac.Capability, allowed bool) {
	if allowed {
		c.allowed[capability]++
	} else {
		c.denied[capability]++
	}
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	r := access.NewResolver(f.db.Memberships())
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		groupID string
		wantErr error
	}{
		{"admin member", f.alice.ID, f.groupID, nil},
		{"missing group", f.alice.ID, "", access.ErrGroupMissing},
		{"blank group", f.alice.ID, "   ", access.ErrGroupMissing},
		{"malformed group", f.alice.ID, "not-a-uuid", access.ErrGroupInvalid},
		{"not a member", f.bob.ID, f.groupID, access.ErrNotMember},
		{"unknown group", f.alice.ID, uuid.NewString(), access.ErrNotMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := r.Resolve(ctx, tt.userID, tt.groupID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.Role != rbac.RoleAdmin || g.GroupID != f.groupID || g.UserID != f.alice.ID {
				t.Errorf("unexpected grant: %+v", g)
			}
		})
	}
}

// A role change takes effect on the very next resolution.
func TestResolve_RoleChangeVisibleImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ms := f.db.Memberships()
	r := access.NewResolver(ms)

	m, err := ms.Create(ctx, f.bob.ID, f.groupID, rbac.RoleEditor)
	if err != nil {
		t.Fatal(err)
	}

	g, err := r.Resolve(ctx, f.bob.ID, f.groupID)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Can(rbac.Update) {
		t.Fatal("editor should be able to update")
	}

	if _, err := ms.UpdateRole(ctx, m.ID, rbac.RoleViewer, false); err != nil {
		t.Fatal(err)
	}

	g, err = r.Resolve(ctx, f.bob.ID, f.groupID)
	if err != nil {
		t.Fatal(err)
	}
	if g.Can(rbac.Update) {
		t.Error("viewer must not be able to update after demotion")
	}

	if err := ms.Delete(ctx, m.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(ctx, f.bob.ID, f.groupID); !errors.Is(err, access.ErrNotMember) {
		t.Errorf("expected ErrNotMember after removal, got %v", err)
	}
}

func TestAuthorize_NilGrant(t *testing.T) {
	if err := access.Authorize(nil, rbac.Read); !errors.Is(err, access.ErrPermissionDenied) {
		t.Errorf("expected permission denied, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.db.Memberships().Create(ctx, f.bob.ID, f.groupID, rbac.RoleViewer); err != nil {
		t.Fatal(err)
	}

	rec := newCountingRecorder()
	gate := access.NewGate(access.NewResolver(f.db.Memberships()), rec)

	tests := []struct {
		name       string
		user       *user.User
		groupID    string
		capability rbac.Capability
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"admin deletes", f.alice, f.groupID, rbac.Delete, http.StatusOK, "", ""},
		{"viewer reads", f.bob, f.groupID, rbac.Read, http.StatusOK, "", ""},
		{"viewer creates", f.bob, f.groupID, rbac.Create, http.StatusForbidden, "forbidden", "permission denied"},
		{"viewer manages members", f.bob, f.groupID, rbac.ManageMembers, http.StatusForbidden, "forbidden", "permission denied"},
		{"missing header", f.alice, "", rbac.Read, http.StatusBadRequest, "bad_request", "group id missing"},
		{"bad header", f.alice, "xyz", rbac.Read, http.StatusBadRequest, "bad_request", "invalid group id"},
		{"other group", f.alice, uuid.NewString(), rbac.Read, http.StatusForbidden, "forbidden", "not a group member"},
		{"no identity", nil, f.groupID, rbac.Read, http.StatusUnauthorized, "unauthenticated", "authentication required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *access.Grant
			h := gate.Require(tt.capability)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = access.GrantFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.groupID != "" {
				req.Header.Set(access.GroupHeader, tt.groupID)
			}
			if tt.user != nil {
				req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: tt.user.ID, Email: tt.user.Email}))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.UserID != tt.user.ID {
					t.Errorf("handler did not receive the caller's grant: %+v", seen)
				}
				return
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Errorf("got %q/%q, want %q/%q", body.Error.Code, body.Error.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}

	if rec.allowed[rbac.Delete] != 1 || rec.allowed[rbac.Read] != 1 {
		t.Errorf("unexpected allowed counts: %v", rec.allowed)
	}
	if rec.denied[rbac.Create] != 1 || rec.denied[rbac.ManageMembers] != 1 {
		t.Errorf("unexpected denied counts: %v", rec.denied)
	}
}

// Require reuses a grant already resolved by ResolveGroup, e.g. from a path parameter.
func TestRequire_ReusesResolvedGrant(t *testing.T) {
	f := newFixture(t)
	gate := access.NewGate(access.NewResolver(f.db.Memberships()), nil)

	fromQuery := func(r *http.Request) string { return r.URL.Query().Get("group") }
	called := false
	h := gate.ResolveGroup(fromQuery)(gate.Require(rbac.DeleteGroup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodDelete, "/?group="+f.groupID, nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: f.alice.ID}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !called {
		t.Fatalf("expected handler to run, got %d: %s", w.Code, w.Body.String())
	}
}
