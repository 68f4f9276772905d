package user

import (
	"context"

	"github.com/safecollab/safecollab/internal/auth"
)

// SessionUserGetter is the part of Store the adapter needs.
type SessionUserGetter interface {
	GetSessionUser(ctx context.Context, token string) (*User, error)
}

// AuthAdapter adapts a user store to the auth.SessionLookup interface.
type AuthAdapter struct {
	store SessionUserGetter
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given user store.
func NewAuthAdapter(store SessionUserGetter) *AuthAdapter {
	return &AuthAdapter{store: store}
}

// LookupSession looks up a session token and returns the associated identity.
func (a *AuthAdapter) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	u, err := a.store.GetSessionUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return &auth.User{ID: u.ID, Email: u.Email}, nil
}
