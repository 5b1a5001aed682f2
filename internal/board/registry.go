package board

import (
	"context"
	"sync"

	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/identity"
	"github.com/username/vacation-calendar/pkg/random"
	"go.uber.org/zap"
)

// Subscriber is the identity change feed; *identity.Service implements it
type Subscriber interface {
	Subscribe(fn func(identity.Event)) func()
}

// Registry owns one Board per signed-in account.
// A board is dropped when its account signs out.
type Registry struct {
	employees  EmployeeStore
	vacations  VacationStore
	classifier *calendar.Classifier
	rng        random.Source
	logger     *zap.Logger

	mu          sync.Mutex
	boards      map[string]*Board
	unsubscribe func()
}

func NewRegistry(events Subscriber, employees EmployeeStore, vacations VacationStore, classifier *calendar.Classifier, rng random.Source, logger *zap.Logger) *Registry {
	r := &Registry{
		employees:  employees,
		vacations:  vacations,
		classifier: classifier,
		rng:        rng,
		logger:     logger,
		boards:     make(map[string]*Board),
	}
	r.unsubscribe = events.Subscribe(r.handle)
	return r
}

func (r *Registry) handle(e identity.Event) {
	if e.Type == identity.SignedOut {
		r.Drop(e.Identity.UID)
	}
}

// Get returns the loaded board of an account, loading it on first use.
// A board that fails to load is not kept, so the next call retries.
func (r *Registry) Get(ctx context.Context, accountID string) (*Board, error) {
	r.mu.Lock()
	b, ok := r.boards[accountID]
	r.mu.Unlock()
	if ok {
		return b, nil
	}

	b = New(accountID, r.employees, r.vacations, r.classifier, r.rng, r.logger)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// a concurrent Get may have won the race
	if existing, ok := r.boards[accountID]; ok {
		return existing, nil
	}
	r.boards[accountID] = b
	r.logger.Info("Board opened", zap.String("account", accountID))
	return b, nil
}

// Drop forgets the board of an account
func (r *Registry) Drop(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[accountID]; ok {
		delete(r.boards, accountID)
		r.logger.Info("Board closed", zap.String("account", accountID))
	}
}

// Len reports the number of open boards
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Close stops listening for identity changes
func (r *Registry) Close() {
	r.unsubscribe()
}
