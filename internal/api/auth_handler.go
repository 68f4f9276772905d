package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/safecollab/safecollab/internal/apperr"
	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/respond"
	"github.com/safecollab/safecollab/internal/user"
)

// UserStore is the user and session storage the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	CreateSession(ctx context.Context, userID string) (string, *user.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

var errBadCredentials = apperr.New(apperr.Unauthenticated, "invalid email or password")

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	users       UserStore
	members     *membership.Service
	onSuccess   func(kind string)
	onFailure   func(kind string)
	maxBodySize int64
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Register handles POST /api/v1/auth/register.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserInput
	if err := readJSON(r, &req, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	token, _, err := h.users.CreateSession(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.onSuccess("register")
	auditLog(r, "register", "user", u.ID)
	respond.JSON(w, http.StatusCreated, sessionResponse{Token: token, User: u})
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req, h.maxBodySize); err != nil {
		writeBodyError(w, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		respond.ErrorMessage(w, http.StatusBadRequest, string(apperr.BadRequest), "email and password are required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			respond.Error(w, r, err)
			return
		}
		h.onFailure("password")
		respond.Error(w, r, errBadCredentials)
		return
	}

	if !user.CheckPassword(u, req.Password) {
		h.onFailure("password")
		respond.Error(w, r, errBadCredentials)
		return
	}

	token, _, err := h.users.CreateSession(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.onSuccess("password")
	respond.JSON(w, http.StatusOK, sessionResponse{Token: token, User: u})
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident := auth.UserFromContext(r.Context())

	u, err := h.users.GetByID(r.Context(), ident.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	groups, err := h.members.ListForUser(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"id":               u.ID,
		"email":            u.Email,
		"default_group_id": u.DefaultGroupID,
		"groups":           groups,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteSession(r.Context(), auth.ExtractBearerToken(r)); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
