package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/username/vacation-calendar/internal/store/memory"
)

func TestLocalProvider_RegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(memory.New(), "test-secret", time.Hour)

	registered, err := p.Register(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.UID == "" || registered.Token == "" {
		t.Fatalf("Register() = %+v, want uid and token", registered)
	}

	if _, err := p.Register(ctx, "alice@example.com", "other-secret"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("second Register() error = %v, want %v", err, ErrEmailExists)
	}

	loggedIn, err := p.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.UID != registered.UID {
		t.Errorf("Login() uid = %s, want %s", loggedIn.UID, registered.UID)
	}

	verified, err := p.Verify(ctx, loggedIn.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified.UID != registered.UID || verified.Email != "alice@example.com" {
		t.Errorf("Verify() = %+v, want uid %s", verified, registered.UID)
	}
}

func TestLocalProvider_LoginFailures(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(memory.New(), "test-secret", time.Hour)

	if _, err := p.Register(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "Secret"},
		{"unknown email", "bob@example.com", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want %v", err, ErrInvalidCredentials)
			}
		})
	}
}

func TestLocalProvider_VerifyRejects(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	p := NewLocalProvider(docs, "test-secret", time.Hour)

	id, err := p.Register(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	other := NewLocalProvider(docs, "another-secret", time.Hour)
	if _, err := other.Verify(ctx, id.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Verify() with wrong secret = %v, want %v", err, ErrUnauthenticated)
	}

	if _, err := p.Verify(ctx, "not-a-jwt"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Verify(garbage) = %v, want %v", err, ErrUnauthenticated)
	}

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := p.Verify(ctx, id.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Verify() of expired token = %v, want %v", err, ErrUnauthenticated)
	}
}
