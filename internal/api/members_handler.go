package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safecollab/safecollab/internal/access"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/respond"
)

// membersHandler groups membership management HTTP handlers. Every route is
// behind the manageMembers capability.
type membersHandler struct {
	members     *membership.Service
	maxBodySize int64
}

// List handles GET /api/v1/group/members.
func (h *membersHandler) List(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	members, err := h.members.List(r.Context(), grant.GroupID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"members": members})
}

// Add handles POST /api/v1/group/members.
func (h *membersHandler) Add(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := readJSON(r, &req, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	m, err := h.members.Add(r.Context(), grant.GroupID, req.Email, req.Role)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "add", "membership", m.ID, "member_user_id", m.UserID, "new_role", m.Role)
	respond.JSON(w, http.StatusCreated, m)
}

// UpdateRole handles PUT /api/v1/group/members/{membershipID}.
func (h *membersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	var req struct {
		Role string `json:"role"`
	}
	if err := readJSON(r, &req, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	m, err := h.members.UpdateRole(r.Context(), grant.UserID, grant.GroupID, chi.URLParam(r, "membershipID"), req.Role)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "update_role", "membership", m.ID, "member_user_id", m.UserID, "new_role", m.Role)
	respond.JSON(w, http.StatusOK, m)
}

// Remove handles DELETE /api/v1/group/members/{membershipID}.
func (h *membersHandler) Remove(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())
	id := chi.URLParam(r, "membershipID")

	if err := h.members.Remove(r.Context(), grant.UserID, grant.GroupID, id); err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "remove", "membership", id)
	w.WriteHeader(http.StatusNoContent)
}
