// Package identity authenticates accounts and publishes sign-in changes.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/username/vacation-calendar/internal/models"
)

// MinPasswordLength matches the hosted provider's own rule
const MinPasswordLength = 6

// Errors carry messages that can be shown to the user as is
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrTooManyAttempts    = errors.New("too many attempts, try again later")
	ErrUserDisabled       = errors.New("this account has been disabled")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// Provider is an identity backend.
// Register and Login return an identity carrying a bearer token.
type Provider interface {
	Register(ctx context.Context, email, password string) (*models.Identity, error)
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// ValidateCredentials rejects malformed input before any provider call
func ValidateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
