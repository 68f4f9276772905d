package memstore

import (
	"context"
	"time"

	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// SessionTTL is the lifetime of sessions created by Users.
const SessionTTL = time.Hour

// Users implements the user and session store.
type Users struct {
	db *DB
}

// Create registers a user. Passwords are hashed with the minimum bcrypt cost.
func (u *Users) Create(ctx context.Context, in user.CreateUserInput) (*user.User, error) {
	if err := user.ValidateCreate(&in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	for _, existing := range u.db.users {
		if existing.Email == in.Email {
			return nil, user.ErrEmailTaken
		}
	}
	created := &user.User{
		ID:           newID(),
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    u.db.tick(),
	}
	u.db.users[created.ID] = created
	out := *created
	return &out, nil
}

// GetByID returns a user by id.
func (u *Users) GetByID(ctx context.Context, id string) (*user.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	found, ok := u.db.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	out := *found
	return &out, nil
}

// GetByEmail returns a user by email.
func (u *Users) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)

	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	for _, found := range u.db.users {
		if found.Email == email {
			out := *found
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

// CreateSession issues a session token for userID.
func (u *Users) CreateSession(ctx context.Context, userID string) (string, *user.Session, error) {
	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		return "", nil, err
	}

	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	now := u.db.now()
	sess := &user.Session{TokenHash: hash, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(SessionTTL)}
	u.db.sessions[hash] = sess
	out := *sess
	return plaintext, &out, nil
}

// GetSessionUser returns the user behind an unexpired session token.
func (u *Users) GetSessionUser(ctx context.Context, plaintext string) (*user.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	sess, ok := u.db.sessions[auth.HashToken(plaintext)]
	if !ok || !sess.ExpiresAt.After(u.db.now()) {
		return nil, user.ErrNotFound
	}
	found, ok := u.db.users[sess.UserID]
	if !ok {
		return nil, user.ErrNotFound
	}
	out := *found
	return &out, nil
}

// DeleteSession revokes a session token.
func (u *Users) DeleteSession(ctx context.Context, plaintext string) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	delete(u.db.sessions, auth.HashToken(plaintext))
	return nil
}
