package user

import (
	"context"
	"fmt"
	"time"

	"github.com/safecollab/safecollab/internal/auth"
	"github.com/safecollab/safecollab/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// Store provides database operations for users and sessions.
type Store struct {
	db         database.DBTX
	bcryptCost int
	sessionTTL time.Duration
}

// NewStore creates a new user store. A zero bcryptCost uses bcrypt.DefaultCost.
func NewStore(db database.DBTX, bcryptCost int, sessionTTL time.Duration) *Store {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{db: db, bcryptCost: bcryptCost, sessionTTL: sessionTTL}
}

const userColumns = `id, email, password_hash, default_group_id, created_at`

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	if err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.DefaultGroupID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// Create validates the input and inserts a user with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	if err := ValidateCreate(&in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`INSERT INTO users (email, password_hash)
			 VALUES ($1, $2)
			 RETURNING `+userColumns,
			in.Email, string(hash),
		).Scan(dest...)
	})
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email address.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email),
		).Scan(dest...)
	})
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CreateSession creates a new session for the given user. It returns the
// opaque plaintext token (to be sent to the client) and the stored session.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, *Session, error) {
	plaintext, tokenHash, err := auth.GenerateToken()
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	sess := &Session{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING token_hash, user_id, created_at, expires_at`,
		tokenHash, userID, now, now.Add(s.sessionTTL),
	).Scan(&sess.TokenHash, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}

	return plaintext, sess, nil
}

// GetSessionUser looks up an unexpired session by its plaintext token and
// returns the associated user.
func (s *Store) GetSessionUser(ctx context.Context, plaintext string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT u.id, u.email, u.password_hash, u.default_group_id, u.created_at
			 FROM sessions s JOIN users u ON s.user_id = u.id
			 WHERE s.token_hash = $1 AND s.expires_at > now()`,
			auth.HashToken(plaintext),
		).Scan(dest...)
	})
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting session user: %w", err)
	}
	return u, nil
}

// DeleteSession removes a session by its plaintext token.
func (s *Store) DeleteSession(ctx context.Context, plaintext string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, auth.HashToken(plaintext))
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CleanExpiredSessions deletes all sessions that have expired.
func (s *Store) CleanExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
