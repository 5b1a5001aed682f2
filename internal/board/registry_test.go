package board

import (
	"context"
	"testing"

	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/identity"
	"github.com/username/vacation-calendar/internal/store/memory"
	"github.com/username/vacation-calendar/pkg/random"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T, f *fixture, events Subscriber) *Registry {
	t.Helper()

	r := NewRegistry(events, f.employees, f.vacations,
		calendar.NewClassifier(weekdaySource{}, zap.NewNop()),
		random.New(1), zap.NewNop())
	t.Cleanup(r.Close)
	return r
}

func TestRegistry_GetReusesBoard(t *testing.T) {
	f := newFixture(t)
	f.seedEmployee(t, "Alice", "#AEC6CF")
	svc := identity.NewService(identity.NewLocalProvider(memory.New(), "secret", 0), zap.NewNop())
	r := newTestRegistry(t, f, svc)
	ctx := context.Background()

	first, err := r.Get(ctx, testAccount)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if n := len(first.Snapshot().Employees); n != 1 {
		t.Errorf("len(Employees) = %d, want 1", n)
	}

	second, _ := r.Get(ctx, testAccount)
	if first != second {
		t.Error("Get() returned a new board for the same account")
	}

	other, _ := r.Get(ctx, "acc-2")
	if other == first || len(other.Snapshot().Employees) != 0 {
		t.Error("accounts share a board")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_FailedLoadIsNotKept(t *testing.T) {
	f := newFixture(t)
	svc := identity.NewService(identity.NewLocalProvider(memory.New(), "secret", 0), zap.NewNop())
	r := newTestRegistry(t, f, svc)
	ctx := context.Background()

	f.docs.set(func(s *flakyStore) { s.failQuery = true })
	if _, err := r.Get(ctx, testAccount); err == nil {
		t.Fatal("Get() error = nil, want error")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}

	f.docs.set(func(s *flakyStore) { s.failQuery = false })
	if _, err := r.Get(ctx, testAccount); err != nil {
		t.Errorf("Get() after recovery error = %v", err)
	}
}

func TestRegistry_DropsBoardOnSignOut(t *testing.T) {
	f := newFixture(t)
	svc := identity.NewService(identity.NewLocalProvider(memory.New(), "secret", 0), zap.NewNop())
	r := newTestRegistry(t, f, svc)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := r.Get(ctx, id.UID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	svc.Logout(*id)
	if r.Len() != 0 {
		t.Errorf("Len() after sign-out = %d, want 0", r.Len())
	}
}

func TestRegistry_CloseStopsListening(t *testing.T) {
	f := newFixture(t)
	svc := identity.NewService(identity.NewLocalProvider(memory.New(), "secret", 0), zap.NewNop())
	r := NewRegistry(svc, f.employees, f.vacations,
		calendar.NewClassifier(weekdaySource{}, zap.NewNop()),
		random.New(1), zap.NewNop())
	ctx := context.Background()

	id, _ := svc.Register(ctx, "bob@example.com", "secret1")
	_, _ = r.Get(ctx, id.UID)

	r.Close()
	svc.Logout(*id)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after Close", r.Len())
	}
}
