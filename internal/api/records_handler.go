package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safecollab/safecollab/internal/access"
	"github.com/safecollab/safecollab/internal/record"
	"github.com/safecollab/safecollab/internal/respond"
)

// recordsHandler groups data record HTTP handlers, all scoped to the active group.
type recordsHandler struct {
	records     *record.Service
	maxBodySize int64
}

// List handles GET /api/v1/records.
func (h *recordsHandler) List(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	records, err := h.records.List(r.Context(), grant.GroupID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"records": records})
}

// Create handles POST /api/v1/records.
func (h *recordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	var in record.Input
	if err := readJSON(r, &in, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	rec, err := h.records.Create(r.Context(), grant.GroupID, grant.UserID, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "create", "record", rec.ID)
	respond.JSON(w, http.StatusCreated, rec)
}

// Update handles PUT /api/v1/records/{recordID}.
func (h *recordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())

	var in record.Input
	if err := readJSON(r, &in, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	rec, err := h.records.Update(r.Context(), grant.GroupID, chi.URLParam(r, "recordID"), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "update", "record", rec.ID)
	respond.JSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/v1/records/{recordID}.
func (h *recordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	grant := access.GrantFromContext(r.Context())
	id := chi.URLParam(r, "recordID")

	if err := h.records.Delete(r.Context(), grant.GroupID, id); err != nil {
		respond.Error(w, r, err)
		return
	}

	auditLog(r, "delete", "record", id)
	w.WriteHeader(http.StatusNoContent)
}
