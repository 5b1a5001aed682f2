package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToolkitURL = "https://identitytoolkit.test/v1"

type stubVerifier struct {
	token *auth.Token
	err   error
}

func (s *stubVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return s.token, s.err
}

func newTestFirebaseProvider(v tokenVerifier) *FirebaseProvider {
	p := NewFirebaseProvider("test-key", testToolkitURL, v, time.Second, zap.NewNop())
	p.retryDelay = 0
	return p
}

func TestFirebaseProvider_Register(t *testing.T) {
	defer gock.Off()

	gock.New(testToolkitURL).
		Post("/accounts:signUp").
		MatchParam("key", "test-key").
		JSON(map[string]any{"email": "alice@example.com", "password": "secret", "returnSecureToken": true}).
		Reply(200).
		JSON(map[string]string{"idToken": "id-token", "email": "alice@example.com", "localId": "uid-1"})

	id, err := newTestFirebaseProvider(nil).Register(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "id-token", id.Token)
	assert.True(t, gock.IsDone())
}

func TestFirebaseProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{"EMAIL_EXISTS", ErrEmailExists},
		{"INVALID_PASSWORD", ErrInvalidCredentials},
		{"INVALID_LOGIN_CREDENTIALS", ErrInvalidCredentials},
		{"WEAK_PASSWORD : Password should be at least 6 characters", ErrWeakPassword},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled", ErrTooManyAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			defer gock.Off()

			gock.New(testToolkitURL).
				Post("/accounts:signInWithPassword").
				Reply(400).
				JSON(map[string]any{"error": map[string]any{"code": 400, "message": tt.message}})

			_, err := newTestFirebaseProvider(nil).Login(context.Background(), "alice@example.com", "secret")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFirebaseProvider_UnknownErrorIsReadable(t *testing.T) {
	defer gock.Off()

	gock.New(testToolkitURL).
		Post("/accounts:signInWithPassword").
		Reply(400).
		JSON(map[string]any{"error": map[string]any{"code": 400, "message": "OPERATION_NOT_ALLOWED"}})

	_, err := newTestFirebaseProvider(nil).Login(context.Background(), "alice@example.com", "secret")
	require.Error(t, err)
	assert.Equal(t, "operation not allowed", err.Error())
}

func TestFirebaseProvider_RetriesServerErrors(t *testing.T) {
	defer gock.Off()

	gock.New(testToolkitURL).
		Post("/accounts:signInWithPassword").
		Times(2).
		Reply(503)
	gock.New(testToolkitURL).
		Post("/accounts:signInWithPassword").
		Reply(200).
		JSON(map[string]string{"idToken": "id-token", "email": "alice@example.com", "localId": "uid-1"})

	id, err := newTestFirebaseProvider(nil).Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
}

func TestFirebaseProvider_GivesUpAfterRetries(t *testing.T) {
	defer gock.Off()

	gock.New(testToolkitURL).
		Post("/accounts:signUp").
		Times(defaultRetries).
		Reply(500)

	_, err := newTestFirebaseProvider(nil).Register(context.Background(), "alice@example.com", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestFirebaseProvider_Verify(t *testing.T) {
	v := &stubVerifier{token: &auth.Token{UID: "uid-1", Claims: map[string]any{"email": "alice@example.com"}}}

	id, err := newTestFirebaseProvider(v).Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "alice@example.com", id.Email)

	v.err = errors.New("signature mismatch")
	_, err = newTestFirebaseProvider(v).Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
