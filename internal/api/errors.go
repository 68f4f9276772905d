package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/safecollab/safecollab/internal/respond"
)

// defaultMaxBodySize caps request bodies when no limit is configured (1 MB).
const defaultMaxBodySize = 1 << 20

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	lr := io.LimitReader(r.Body, limit)
	return json.NewDecoder(lr).Decode(v)
}

// writeBodyError reports an unreadable request body.
func writeBodyError(w http.ResponseWriter, err error) {
	msg := "failed to parse request body"
	if errors.Is(err, io.EOF) {
		msg = "request body is required"
	}
	respond.ErrorMessage(w, http.StatusBadRequest, "bad_request", msg)
}
