// Package group implements the group lifecycle: creation with an initial
// admin and transactional deletion.
package group

import (
	"fmt"
	"time"

	"github.com/safecollab/safecollab/internal/apperr"
)

// Group is a collaboration space. Every membership and record belongs to one.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordPolicy decides what deleting a group does with its data records.
type RecordPolicy string

const (
	// Cascade deletes the group's records with it.
	Cascade RecordPolicy = "cascade"
	// Restrict refuses to delete a group that still has records.
	Restrict RecordPolicy = "restrict"
)

// ParseRecordPolicy validates a configured record policy. Empty means Cascade.
func ParseRecordPolicy(s string) (RecordPolicy, error) {
	switch RecordPolicy(s) {
	case "", Cascade:
		return Cascade, nil
	case Restrict:
		return Restrict, nil
	}
	return "", fmt.Errorf("invalid record policy %q: must be %s or %s", s, Cascade, Restrict)
}

// DeleteResult reports what a group deletion removed.
type DeleteResult struct {
	GroupID     string `json:"group_id"`
	Memberships int64  `json:"memberships_deleted"`
	Records     int64  `json:"records_deleted"`
}

var (
	ErrNotFound     = apperr.New(apperr.NotFound, "group not found")
	ErrNameRequired = apperr.New(apperr.BadRequest, "group name is required")
	ErrHasRecords   = apperr.New(apperr.Conflict, "group still has data records")
	ErrIDMismatch   = apperr.New(apperr.BadRequest, "group id does not match active group")
)
