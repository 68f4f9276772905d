// Package dbtest gives integration tests a migrated Postgres pool.
package dbtest

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/safecollab/safecollab/internal/database"
)

// Pool connects to TEST_DATABASE_URL and applies migrations. The test is
// skipped when the variable is unset or the database is unreachable.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.Open(ctx, url)
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	t.Cleanup(pool.Close)

	m, err := database.NewMigrator(url)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("running migrations: %v", err)
	}
	return pool
}

// User inserts a throwaway user and removes it, with everything it created,
// when the test ends.
func User(t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	ctx := context.Background()
	email = time.Now().Format("20060102150405.000000000") + "-" + email

	var id string
	if err := pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id`, email,
	).Scan(&id); err != nil {
		t.Fatalf("inserting user: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		pool.Exec(ctx, `DELETE FROM records WHERE created_by = $1 OR group_id IN (SELECT id FROM groups WHERE created_by = $1)`, id)
		pool.Exec(ctx, `DELETE FROM memberships WHERE user_id = $1 OR group_id IN (SELECT id FROM groups WHERE created_by = $1)`, id)
		pool.Exec(ctx, `UPDATE users SET default_group_id = NULL WHERE id = $1`, id)
		pool.Exec(ctx, `DELETE FROM groups WHERE created_by = $1`, id)
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

// Group inserts a bare group owned by userID.
func Group(t *testing.T, pool *pgxpool.Pool, userID string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(context.Background(),
		`INSERT INTO groups (name, created_by) VALUES ('test', $1) RETURNING id`, userID,
	).Scan(&id); err != nil {
		t.Fatalf("inserting group: %v", err)
	}
	return id
}
