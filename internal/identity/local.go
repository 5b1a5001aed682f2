package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 24 * time.Hour

// LocalProvider keeps accounts in the document store and signs HS256 tokens
type LocalProvider struct {
	docs   store.DocumentStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	// serializes registration so two requests cannot claim one email
	registerMu sync.Mutex
}

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewLocalProvider(docs store.DocumentStore, secret string, ttl time.Duration) *LocalProvider {
	if ttl == 0 {
		ttl = defaultTokenTTL
	}
	return &LocalProvider{
		docs:   docs,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (p *LocalProvider) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	p.registerMu.Lock()
	defer p.registerMu.Unlock()

	existing, err := p.docs.Query(ctx, store.Accounts, store.Eq("email", email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uid, err := p.docs.Add(ctx, store.Accounts, store.Fields{
		"email":         email,
		"passwordHash":  string(hash),
		"createdAt":     p.now().UTC(),
		"schemaVersion": models.SchemaVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return p.issue(uid, email)
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	docs, err := p.docs.Query(ctx, store.Accounts, store.Eq("email", email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrInvalidCredentials
	}

	hash, _ := docs[0].Fields["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(docs[0].ID, email)
}

func (p *LocalProvider) Verify(_ context.Context, token string) (*models.Identity, error) {
	var claims localClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token without subject: %w", ErrUnauthenticated)
	}

	return &models.Identity{UID: claims.Subject, Email: claims.Email, Token: token}, nil
}

func (p *LocalProvider) issue(uid, email string) (*models.Identity, error) {
	now := p.now()
	claims := localClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.Identity{UID: uid, Email: email, Token: signed}, nil
}
