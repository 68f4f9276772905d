package api

import (
	"log/slog"
	"net/http"

	"github.com/safecollab/safecollab/internal/access"
	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/ratelimit"
)

// auditLog emits a structured audit log entry for a state-changing action.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", ratelimit.ClientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if u := auth.UserFromContext(r.Context()); u != nil {
		attrs = append(attrs, "user_id", u.ID)
	}
	if g := access.GrantFromContext(r.Context()); g != nil {
		attrs = append(attrs, "group_id", g.GroupID, "role", g.Role)
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
