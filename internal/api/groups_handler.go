package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/safecollab/safecollab/internal/access"
	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/group"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/rbac"
	"github.com/safecollab/safecollab/internal/respond"
)

// groupsHandler groups group lifecycle HTTP handlers.
type groupsHandler struct {
	groups      *group.Service
	members     *membership.Service
	observe     func(action string, err error)
	maxBodySize int64
}

// List handles GET /api/v1/groups: the caller's groups with their role.
func (h *groupsHandler) List(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	groups, err := h.members.ListForUser(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// Create handles POST /api/v1/groups.
func (h *groupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	g, err := h.groups.Create(r.Context(), u.ID, req.Name)
	h.observe("create", err)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "create", "group", g.ID, "name", g.Name)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"group": g,
		"role":  rbac.RoleAdmin,
	})
}

// Delete handles DELETE /api/v1/groups/{groupID}. The path id must name the
// active group the caller was authorized against.
func (h *groupsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	target, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		respond.Error(w, r, access.ErrGroupInvalid)
		return
	}

	res, err := h.groups.Delete(r.Context(), grant.GroupID, target.String())
	h.observe("delete", err)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "delete", "group", res.GroupID,
		"memberships_deleted", res.Memberships,
		"records_deleted", res.Records,
	)
	respond.JSON(w, http.StatusOK, res)
}

// Role handles GET /api/v1/group/role: the caller's resolved role in the
// active group and what it allows.
func (h *groupsHandler) Role(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	respond.JSON(w, http.StatusOK, map[string]any{
		"group_id":      grant.GroupID,
		"membership_id": grant.MembershipID,
		"role":          grant.Role,
		"capabilities":  rbac.Capabilities(grant.Role),
	})
}
