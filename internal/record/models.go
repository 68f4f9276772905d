// Package record manages the data records shared inside a group.
package record

import (
	"time"

	"github.com/safecollab/safecollab/internal/apperr"
)

// Record is a titled piece of content owned by exactly one group.
type Record struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input holds the writable fields of a record.
type Input struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var (
	ErrNotFound       = apperr.New(apperr.NotFound, "record not found")
	ErrFieldsRequired = apperr.New(apperr.BadRequest, "title and content are required")
)
