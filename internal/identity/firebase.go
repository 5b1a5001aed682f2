package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/username/vacation-calendar/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

	defaultHTTPTimeout = 15 * time.Second
	defaultRetries     = 3
)

// tokenVerifier is satisfied by *auth.Client
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseProvider signs users up and in through the Identity Toolkit REST
// API and verifies ID tokens with the Firebase Admin SDK
type FirebaseProvider struct {
	apiKey     string
	baseURL    string
	verifier   tokenVerifier
	httpClient *http.Client
	logger     *zap.Logger
	retryDelay time.Duration
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
	LocalID string `json:"localId"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// toolkitErrors maps Identity Toolkit error codes to user-facing errors
var toolkitErrors = map[string]error{
	"EMAIL_EXISTS":                ErrEmailExists,
	"EMAIL_NOT_FOUND":             ErrInvalidCredentials,
	"INVALID_PASSWORD":            ErrInvalidCredentials,
	"INVALID_LOGIN_CREDENTIALS":   ErrInvalidCredentials,
	"INVALID_EMAIL":               ErrInvalidEmail,
	"WEAK_PASSWORD":               ErrWeakPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": ErrTooManyAttempts,
	"USER_DISABLED":               ErrUserDisabled,
}

func NewFirebaseProvider(apiKey, baseURL string, verifier tokenVerifier, timeout time.Duration, logger *zap.Logger) *FirebaseProvider {
	if baseURL == "" {
		baseURL = DefaultIdentityToolkitURL
	}
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	return &FirebaseProvider{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		verifier: verifier,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		retryDelay: time.Second,
	}
}

func (p *FirebaseProvider) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	return p.passwordCall(ctx, "accounts:signUp", email, password)
}

func (p *FirebaseProvider) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	return p.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

func (p *FirebaseProvider) Verify(ctx context.Context, token string) (*models.Identity, error) {
	t, err := p.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}

	email, _ := t.Claims["email"].(string)
	return &models.Identity{UID: t.UID, Email: email, Token: token}, nil
}

func (p *FirebaseProvider) passwordCall(ctx context.Context, method, email, password string) (*models.Identity, error) {
	body, err := json.Marshal(passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", p.baseURL, method, p.apiKey)

	var resp passwordResponse
	if err := p.doRequest(ctx, url, body, &resp); err != nil {
		return nil, err
	}

	return &models.Identity{UID: resp.LocalID, Email: resp.Email, Token: resp.IDToken}, nil
}

// doRequest retries transport failures and 5xx answers; API errors are final
func (p *FirebaseProvider) doRequest(ctx context.Context, url string, body []byte, result any) error {
	var lastErr error
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		retry, err := p.doRequestOnce(ctx, url, body, result)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}

		lastErr = err
		p.logger.Warn("Identity request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", defaultRetries),
			zap.Error(err))

		if attempt < defaultRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}
	}

	return fmt.Errorf("identity request failed after %d attempts: %w", defaultRetries, lastErr)
}

func (p *FirebaseProvider) doRequestOnce(ctx context.Context, url string, body []byte, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("identity API returned status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, toolkitErr(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return false, nil
}

// toolkitErr turns an error body like {"error":{"message":"WEAK_PASSWORD : ..."}}
// into one of the package errors when the code is known
func toolkitErr(status int, body []byte) error {
	var te toolkitError
	if err := json.Unmarshal(body, &te); err != nil || te.Error.Message == "" {
		return fmt.Errorf("identity API returned status %d", status)
	}

	code, _, _ := strings.Cut(te.Error.Message, " ")
	if known, ok := toolkitErrors[code]; ok {
		return known
	}
	return errors.New(strings.ToLower(strings.ReplaceAll(code, "_", " ")))
}
