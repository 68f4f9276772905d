package user

import (
	"time"

	"github.com/safecollab/safecollab/internal/apperr"
)

// User is a registered account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	DefaultGroupID *string   `json:"default_group_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUserInput holds the fields required to register a user.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is an active login session. Only the token hash is stored.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	ErrNotFound   = apperr.New(apperr.NotFound, "user not found")
	ErrEmailTaken = apperr.New(apperr.Conflict, "email is already registered")
	ErrEmail      = apperr.New(apperr.BadRequest, "a valid email is required")
	ErrPassword   = apperr.New(apperr.BadRequest, "password must be at least 8 characters")
)
