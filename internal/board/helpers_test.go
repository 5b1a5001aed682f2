package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/repository"
	"github.com/username/vacation-calendar/internal/store"
	"github.com/username/vacation-calendar/internal/store/memory"
	"github.com/username/vacation-calendar/pkg/dateutil"
	"github.com/username/vacation-calendar/pkg/random"
	"go.uber.org/zap"
)

const testAccount = "acc-1"

var errUnavailable = errors.New("store unavailable")

// weekdaySource answers with the weekday rule and marks March 7 as short
type weekdaySource struct{}

func (weekdaySource) FetchYear(_ context.Context, year int) ([]calendar.DayType, error) {
	var days []calendar.DayType
	for d := dateutil.NewDate(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if d.Month() == time.March && d.Day() == 7 {
			days = append(days, calendar.DayShortened)
			continue
		}
		days = append(days, calendar.WeekdayType(d))
	}
	return days, nil
}

func (weekdaySource) FetchDay(_ context.Context, date time.Time) (calendar.DayType, error) {
	return calendar.WeekdayType(date), nil
}

// flakyStore wraps a DocumentStore with switchable failures
type flakyStore struct {
	store.DocumentStore

	mu         sync.Mutex
	failAdd    bool
	failDelete bool
	failQuery  bool
	failUpdate bool
	updates    int
	// when set, Add waits for it to be closed
	blockAdd chan struct{}
	// when set, runs after Add has saved the document
	afterAdd func()
	// when set, Delete waits for it to be closed
	blockDelete chan struct{}
}

func (f *flakyStore) set(fn func(f *flakyStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *flakyStore) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	f.mu.Lock()
	fail := f.failQuery
	f.mu.Unlock()
	if fail {
		return nil, errUnavailable
	}
	return f.DocumentStore.Query(ctx, collection, filters...)
}

func (f *flakyStore) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	f.mu.Lock()
	fail, block, after := f.failAdd, f.blockAdd, f.afterAdd
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if fail {
		return "", errUnavailable
	}
	id, err := f.DocumentStore.Add(ctx, collection, fields)
	if err == nil && after != nil {
		after()
	}
	return id, err
}

func (f *flakyStore) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	f.mu.Lock()
	f.updates++
	fail := f.failUpdate
	f.mu.Unlock()
	if fail {
		return errUnavailable
	}
	return f.DocumentStore.Update(ctx, collection, id, fields)
}

func (f *flakyStore) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	fail, block := f.failDelete, f.blockDelete
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if fail {
		return errUnavailable
	}
	return f.DocumentStore.Delete(ctx, collection, id)
}

// holdAfterAdd makes the next saves wait for release; saved receives one
// value per stored document
func (f *fixture) holdAfterAdd() (saved <-chan struct{}, release chan<- struct{}) {
	s := make(chan struct{}, 1)
	r := make(chan struct{})
	f.docs.set(func(fs *flakyStore) {
		fs.afterAdd = func() {
			s <- struct{}{}
			<-r
		}
	})
	return s, r
}

// waitFor polls cond until it holds or two seconds pass
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type fixture struct {
	docs      *flakyStore
	employees *repository.Employees
	vacations *repository.Vacations
	board     *Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	docs := &flakyStore{DocumentStore: memory.New()}
	f := &fixture{
		docs:      docs,
		employees: repository.NewEmployees(docs, zap.NewNop()),
		vacations: repository.NewVacations(docs, zap.NewNop()),
	}
	f.board = New(testAccount, f.employees, f.vacations,
		calendar.NewClassifier(weekdaySource{}, zap.NewNop()),
		random.New(1), zap.NewNop())
	f.board.now = func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// seedEmployee stores an employee directly and returns it
func (f *fixture) seedEmployee(t *testing.T, name, color string) models.Employee {
	t.Helper()

	e, err := f.employees.Add(context.Background(), models.Employee{Name: name, Color: color, AccountID: testAccount})
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return e
}

func (f *fixture) seedVacation(t *testing.T, employeeID string, start, end time.Time) models.VacationPeriod {
	t.Helper()

	v, err := f.vacations.Add(context.Background(), models.NewVacationPeriod(employeeID, testAccount, start, end))
	if err != nil {
		t.Fatalf("seed vacation: %v", err)
	}
	return v
}

func (f *fixture) load(t *testing.T) {
	t.Helper()

	if err := f.board.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func march(day int) time.Time {
	return dateutil.NewDate(2025, time.March, day)
}

func segmentOwners(d DayView) []string {
	var names []string
	for _, s := range d.Segments {
		names = append(names, s.Employee.Name)
	}
	return names
}
