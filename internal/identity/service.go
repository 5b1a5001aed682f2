package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/username/vacation-calendar/internal/models"
	"go.uber.org/zap"
)

// revokedRetention outlives the token lifetimes of both providers
const revokedRetention = 48 * time.Hour

type EventType int

const (
	SignedIn EventType = iota + 1
	SignedOut
)

func (t EventType) String() string {
	switch t {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event reports an identity change
type Event struct {
	Type     EventType
	Identity models.Identity
}

// Service fronts a Provider, tracks logouts and notifies subscribers
type Service struct {
	provider Provider
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
	revoked map[string]time.Time
}

func NewService(provider Provider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
		now:      time.Now,
		subs:     make(map[int]func(Event)),
		revoked:  make(map[string]time.Time),
	}
}

// Subscribe registers fn for identity changes.
// The returned function unsubscribes; calling it twice is harmless.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	id, err := s.provider.Register(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("Account registered", zap.String("uid", id.UID))
	s.publish(Event{Type: SignedIn, Identity: *id})
	return id, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	id, err := s.provider.Login(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s.logger.Info("Signed in", zap.String("uid", id.UID))
	s.publish(Event{Type: SignedIn, Identity: *id})
	return id, nil
}

// Logout revokes the identity's token and notifies subscribers
func (s *Service) Logout(id models.Identity) {
	now := s.now()

	s.mu.Lock()
	for token, at := range s.revoked {
		if now.Sub(at) > revokedRetention {
			delete(s.revoked, token)
		}
	}
	if id.Token != "" {
		s.revoked[id.Token] = now
	}
	s.mu.Unlock()

	s.logger.Info("Signed out", zap.String("uid", id.UID))
	s.publish(Event{Type: SignedOut, Identity: id})
}

// Verify resolves a bearer token to its identity
func (s *Service) Verify(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.RLock()
	_, revoked := s.revoked[token]
	s.mu.RUnlock()
	if revoked {
		return nil, fmt.Errorf("token revoked: %w", ErrUnauthenticated)
	}

	return s.provider.Verify(ctx, token)
}

func (s *Service) publish(e Event) {
	s.mu.RLock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
