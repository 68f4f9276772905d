package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// User is the verified identity attached to a request. It carries no group
// role; roles are resolved per group by the access package.
type User struct {
	ID    string
	Email string
}

// SessionLookup resolves a bearer token to the user it was issued to.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}

// GenerateToken returns a new opaque session token and its storage hash.
func GenerateToken() (plaintext, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating session token: %w", err)
	}
	plaintext = hex.EncodeToString(b)
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the hex-encoded SHA-256 hash of a session token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
