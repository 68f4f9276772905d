package user

import (
	"net/mail"
	"strings"
)

const minPasswordLength = 8

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCreate normalizes in and checks the registration fields.
func ValidateCreate(in *CreateUserInput) error {
	in.Email = NormalizeEmail(in.Email)
	if in.Email == "" {
		return ErrEmail
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return ErrEmail
	}
	if len(in.Password) < minPasswordLength {
		return ErrPassword
	}
	return nil
}
