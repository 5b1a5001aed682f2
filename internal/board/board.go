// Package board owns the employee and vacation state of one account.
//
// All mutations go through named transitions on Board. Store calls run
// outside the lock; deletions update local state first and re-fetch from
// the store when the remote call fails.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/palette"
	"github.com/username/vacation-calendar/internal/repository"
	"github.com/username/vacation-calendar/internal/vacation"
	"github.com/username/vacation-calendar/pkg/random"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBusy               = errors.New("another operation is in progress")
	ErrNoEmployeeSelected = errors.New("no employee selected")
	ErrNoVacationSelected = errors.New("no vacation selected")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrVacationNotFound   = errors.New("vacation not found")
	ErrInvalidColor       = errors.New("color must look like #RRGGBB")
)

// EmployeeStore is the persistence the board needs for employees
type EmployeeStore interface {
	List(ctx context.Context, accountID string) ([]models.Employee, error)
	Add(ctx context.Context, e models.Employee) (models.Employee, error)
	Update(ctx context.Context, id string, u repository.EmployeeUpdate) error
	Delete(ctx context.Context, id string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

// VacationStore is the persistence the board needs for vacations
type VacationStore interface {
	List(ctx context.Context, accountID string) ([]models.VacationPeriod, error)
	Add(ctx context.Context, v models.VacationPeriod) (models.VacationPeriod, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmployee(ctx context.Context, employeeID, accountID string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

// Busy flags are set while the matching operation waits for the store
type Busy struct {
	AddingEmployee   bool   `json:"addingEmployee"`
	DeletingEmployee string `json:"deletingEmployee,omitempty"`
	UpdatingEmployee bool   `json:"updatingEmployee"`
	DeletingVacation string `json:"deletingVacation,omitempty"`
	Resetting        bool   `json:"resetting"`
	Committing       bool   `json:"committing"`
}

func (b Busy) any() bool {
	return b.AddingEmployee || b.DeletingEmployee != "" || b.UpdatingEmployee ||
		b.DeletingVacation != "" || b.Resetting || b.Committing
}

// Draft is the new-employee name being typed
type Draft struct {
	Active bool   `json:"active"`
	Name   string `json:"name"`
}

// Board is the state owner of one account
type Board struct {
	accountID  string
	employees  EmployeeStore
	vacations  VacationStore
	classifier *calendar.Classifier
	rng        random.Source
	logger     *zap.Logger
	now        func() time.Time

	mu           sync.RWMutex
	employeeList []models.Employee
	vacationList []models.VacationPeriod
	selection    Selection
	draft        Draft
	busy         Busy
	loaded       bool
}

// New creates an empty board; call Load to fill it
func New(accountID string, employees EmployeeStore, vacations VacationStore, classifier *calendar.Classifier, rng random.Source, logger *zap.Logger) *Board {
	return &Board{
		accountID:  accountID,
		employees:  employees,
		vacations:  vacations,
		classifier: classifier,
		rng:        rng,
		logger:     logger.With(zap.String("account", accountID)),
		now:        time.Now,
	}
}

func (b *Board) AccountID() string {
	return b.accountID
}

// Load fetches employees and vacations concurrently and preloads the day
// types of the current year. On failure both lists are emptied.
func (b *Board) Load(ctx context.Context) error {
	var (
		employees []models.Employee
		vacations []models.VacationPeriod
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = b.employees.List(gctx, b.accountID)
		return err
	})
	g.Go(func() error {
		var err error
		vacations, err = b.vacations.List(gctx, b.accountID)
		return err
	})
	g.Go(func() error {
		// the classifier falls back to weekdays, so a failed preload is not fatal
		if err := b.classifier.Preload(ctx, b.now().Year()); err != nil {
			b.logger.Warn("Day type preload failed", zap.Error(err))
		}
		return nil
	})

	err := g.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.employeeList = nil
		b.vacationList = nil
		b.selection.clear()
		b.loaded = false
		b.logger.Error("Failed to load board", zap.Error(err))
		return fmt.Errorf("failed to load data: %w", err)
	}

	b.employeeList = employees
	b.vacationList = vacations
	b.loaded = true
	b.dropDanglingSelectionLocked()

	b.logger.Debug("Board loaded",
		zap.Int("employees", len(employees)),
		zap.Int("vacations", len(vacations)))
	return nil
}

// reconcile re-fetches after a failed optimistic write and returns cause
func (b *Board) reconcile(ctx context.Context, cause error) error {
	b.logger.Warn("Remote write failed, reloading state", zap.Error(cause))
	if err := b.Load(ctx); err != nil {
		b.logger.Error("Reload after failed write also failed", zap.Error(err))
	}
	return cause
}

// dropDanglingSelectionLocked clears selections that point at removed records
func (b *Board) dropDanglingSelectionLocked() {
	if b.selection.EmployeeID != "" && b.findEmployeeLocked(b.selection.EmployeeID) < 0 {
		b.selection.clear()
	}
	if d := b.selection.VacationForDelete; d != nil && b.findVacationLocked(d.Vacation.ID) < 0 {
		b.selection.VacationForDelete = nil
	}
}

// SelectEmployee makes id the selected employee, dropping any pending range
// and any vacation marked for deletion
func (b *Board) SelectEmployee(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findEmployeeLocked(id) < 0 {
		return ErrEmployeeNotFound
	}
	b.selection = Selection{EmployeeID: id}
	return nil
}

// ClickDay advances the range gesture.
// It returns the committed vacation when the click completes a range.
func (b *Board) ClickDay(ctx context.Context, date time.Time) (*models.VacationPeriod, error) {
	b.mu.Lock()

	switch b.selection.State() {
	case Idle:
		b.selection.VacationForDelete = nil
		b.mu.Unlock()
		return nil, nil

	case EmployeeSelected:
		defer b.mu.Unlock()
		if vacation.CoveredFor(date, b.selection.EmployeeID, b.vacationList) {
			return nil, nil
		}
		b.selection.VacationForDelete = nil
		b.selection.Start = datePtr(date)
		b.selection.Hover = nil
		return nil, nil
	}

	if b.busy.Committing || b.busy.Resetting {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	gesture := b.selection.clone()
	pending := models.NewVacationPeriod(gesture.EmployeeID, b.accountID, *gesture.Start, date)
	b.busy.Committing = true
	b.mu.Unlock()

	saved, err := b.vacations.Add(ctx, pending)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.busy.Committing = false
	// the user may have started another range while the store was busy
	if b.selection.sameRange(gesture) {
		b.selection.clearRange()
	}
	if err != nil {
		b.logger.Error("Failed to create vacation", zap.Error(err))
		return nil, fmt.Errorf("failed to create vacation: %w", err)
	}

	// a Load during the store call may already have fetched it
	if b.findVacationLocked(saved.ID) < 0 {
		b.vacationList = append(b.vacationList, saved)
	}
	b.logger.Info("Vacation created",
		zap.String("employee", saved.EmployeeID),
		zap.Time("start", saved.StartDate),
		zap.Time("end", saved.EndDate))
	return &saved, nil
}

// HoverDay moves the preview end while a range is pending
func (b *Board) HoverDay(date time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selection.State() == RangeStarted {
		b.selection.Hover = datePtr(date)
	}
}

// LeaveCalendar clears the hovered day but keeps the pending start
func (b *Board) LeaveCalendar() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.selection.Hover = nil
}

// CancelSelection drops the pending range; the employee stays selected
func (b *Board) CancelSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.selection.clearRange()
}

// ClickSegment handles a click on a vacation segment of a day.
// With no employee selected it marks the vacation for deletion. With
// another employee selected it acts as a click on the day; a segment of
// the selected employee is ignored.
func (b *Board) ClickSegment(ctx context.Context, vacationID string, date time.Time) (*models.VacationPeriod, error) {
	b.mu.Lock()

	i := b.findVacationLocked(vacationID)
	if i < 0 {
		b.mu.Unlock()
		return nil, ErrVacationNotFound
	}
	v := b.vacationList[i]

	if b.selection.EmployeeID == "" {
		defer b.mu.Unlock()
		j := b.findEmployeeLocked(v.EmployeeID)
		if j < 0 {
			return nil, ErrEmployeeNotFound
		}
		b.selection = Selection{VacationForDelete: &models.Coverage{Vacation: v, Employee: b.employeeList[j]}}
		return nil, nil
	}

	if v.EmployeeID == b.selection.EmployeeID {
		b.mu.Unlock()
		return nil, nil
	}
	b.mu.Unlock()

	return b.ClickDay(ctx, date)
}

// ClickOutside clears both the employee and the deletion selection
func (b *Board) ClickOutside() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.selection.clear()
}

// DeleteSelectedVacation removes the vacation marked for deletion
func (b *Board) DeleteSelectedVacation(ctx context.Context) error {
	b.mu.Lock()
	marked := b.selection.VacationForDelete
	if marked == nil {
		b.mu.Unlock()
		return ErrNoVacationSelected
	}
	if b.busy.DeletingVacation != "" || b.busy.Resetting {
		b.mu.Unlock()
		return ErrBusy
	}
	id := marked.Vacation.ID
	b.busy.DeletingVacation = id
	b.vacationList = removeVacations(b.vacationList, func(v models.VacationPeriod) bool { return v.ID == id })
	b.selection.VacationForDelete = nil
	b.mu.Unlock()

	err := b.vacations.Delete(ctx, id)

	b.mu.Lock()
	b.busy.DeletingVacation = ""
	b.mu.Unlock()

	if err != nil {
		return b.reconcile(ctx, fmt.Errorf("failed to delete vacation: %w", err))
	}

	b.logger.Info("Vacation deleted", zap.String("vacation", id))
	return nil
}

// DeleteAllEmployeeVacations removes every vacation of the selected employee
// and clears the selection
func (b *Board) DeleteAllEmployeeVacations(ctx context.Context) error {
	return b.deleteSelectedVacations(ctx, "")
}

// DeleteAllVacationsOf is DeleteAllEmployeeVacations that fails unless
// employeeID is the selected employee
func (b *Board) DeleteAllVacationsOf(ctx context.Context, employeeID string) error {
	if employeeID == "" {
		return ErrNoEmployeeSelected
	}
	return b.deleteSelectedVacations(ctx, employeeID)
}

func (b *Board) deleteSelectedVacations(ctx context.Context, expected string) error {
	b.mu.Lock()
	employeeID := b.selection.EmployeeID
	if employeeID == "" || (expected != "" && expected != employeeID) {
		b.mu.Unlock()
		return ErrNoEmployeeSelected
	}
	if b.busy.Resetting || b.busy.Committing {
		b.mu.Unlock()
		return ErrBusy
	}
	removed := len(vacation.ForEmployee(employeeID, b.vacationList))
	b.vacationList = removeVacations(b.vacationList, func(v models.VacationPeriod) bool { return v.EmployeeID == employeeID })
	b.selection.clear()
	b.mu.Unlock()

	if err := b.vacations.DeleteByEmployee(ctx, employeeID, b.accountID); err != nil {
		return b.reconcile(ctx, fmt.Errorf("failed to delete employee vacations: %w", err))
	}

	b.logger.Info("Employee vacations deleted",
		zap.String("employee", employeeID),
		zap.Int("vacations", removed))
	return nil
}

// DeleteEmployee removes the employee and, first, all of its vacations
func (b *Board) DeleteEmployee(ctx context.Context, id string) error {
	b.mu.Lock()
	if b.findEmployeeLocked(id) < 0 {
		b.mu.Unlock()
		return ErrEmployeeNotFound
	}
	if b.busy.DeletingEmployee != "" || b.busy.Resetting || b.busy.Committing {
		b.mu.Unlock()
		return ErrBusy
	}
	b.busy.DeletingEmployee = id
	b.employeeList = removeEmployee(b.employeeList, id)
	b.vacationList = removeVacations(b.vacationList, func(v models.VacationPeriod) bool { return v.EmployeeID == id })
	b.dropDanglingSelectionLocked()
	b.mu.Unlock()

	err := b.vacations.DeleteByEmployee(ctx, id, b.accountID)
	if err == nil {
		err = b.employees.Delete(ctx, id)
	}

	b.mu.Lock()
	b.busy.DeletingEmployee = ""
	b.mu.Unlock()

	if err != nil {
		return b.reconcile(ctx, fmt.Errorf("failed to delete employee: %w", err))
	}

	b.logger.Info("Employee deleted", zap.String("employee", id))
	return nil
}

// ResetAll deletes every vacation, then every employee of the account
func (b *Board) ResetAll(ctx context.Context) error {
	b.mu.Lock()
	if b.busy.any() {
		b.mu.Unlock()
		return ErrBusy
	}
	b.busy.Resetting = true
	b.employeeList = nil
	b.vacationList = nil
	b.selection.clear()
	b.mu.Unlock()

	err := b.vacations.DeleteByAccount(ctx, b.accountID)
	if err == nil {
		err = b.employees.DeleteByAccount(ctx, b.accountID)
	}

	b.mu.Lock()
	b.busy.Resetting = false
	b.mu.Unlock()

	if err != nil {
		return b.reconcile(ctx, fmt.Errorf("failed to reset data: %w", err))
	}

	b.logger.Info("Account data reset")
	return nil
}

// StartAddingEmployee opens the new-employee name entry
func (b *Board) StartAddingEmployee() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.draft.Active = true
}

// SetNewEmployeeName updates the typed name and opens the entry if needed
func (b *Board) SetNewEmployeeName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.draft.Active = true
	b.draft.Name = name
}

func (b *Board) CancelAddingEmployee() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.draft = Draft{}
}

// AddEmployee creates an employee named name, or the typed draft name when
// name is empty, with the next free palette color
func (b *Board) AddEmployee(ctx context.Context, name string) (models.Employee, error) {
	b.mu.Lock()
	if name == "" {
		name = b.draft.Name
	}
	name = strings.TrimSpace(name)
	if name == "" {
		b.mu.Unlock()
		return models.Employee{}, models.ErrEmptyName
	}
	if b.busy.AddingEmployee || b.busy.Resetting {
		b.mu.Unlock()
		return models.Employee{}, ErrBusy
	}

	colors := make([]string, 0, len(b.employeeList))
	for _, e := range b.employeeList {
		colors = append(colors, e.Color)
	}
	b.busy.AddingEmployee = true
	b.mu.Unlock()

	created, err := b.employees.Add(ctx, models.Employee{
		Name:      name,
		Color:     palette.Assign(colors, b.rng),
		AccountID: b.accountID,
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	b.busy.AddingEmployee = false
	if err != nil {
		b.logger.Error("Failed to add employee", zap.Error(err))
		return models.Employee{}, fmt.Errorf("failed to add employee: %w", err)
	}

	if b.findEmployeeLocked(created.ID) < 0 {
		b.employeeList = append(b.employeeList, created)
	}
	b.draft = Draft{}
	b.logger.Info("Employee added",
		zap.String("employee", created.ID),
		zap.String("color", created.Color))
	return created, nil
}

func (b *Board) RenameEmployee(ctx context.Context, id, name string) error {
	return b.UpdateEmployee(ctx, id, &name, nil)
}

func (b *Board) RecolorEmployee(ctx context.Context, id, color string) error {
	return b.UpdateEmployee(ctx, id, nil, &color)
}

// UpdateEmployee changes the non-nil fields with a single store write,
// so either both or neither are saved
func (b *Board) UpdateEmployee(ctx context.Context, id string, name, color *string) error {
	var u repository.EmployeeUpdate
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return models.ErrEmptyName
		}
		u.Name = &trimmed
	}
	if color != nil {
		if _, _, _, err := palette.Channels(*color); err != nil {
			return ErrInvalidColor
		}
		upper := strings.ToUpper(*color)
		u.Color = &upper
	}
	if u.Name == nil && u.Color == nil {
		return nil
	}

	return b.updateEmployee(ctx, id, u, func(e *models.Employee) {
		if u.Name != nil {
			e.Name = *u.Name
		}
		if u.Color != nil {
			e.Color = *u.Color
		}
	})
}

func (b *Board) updateEmployee(ctx context.Context, id string, u repository.EmployeeUpdate, apply func(*models.Employee)) error {
	b.mu.Lock()
	if b.findEmployeeLocked(id) < 0 {
		b.mu.Unlock()
		return ErrEmployeeNotFound
	}
	if b.busy.UpdatingEmployee || b.busy.Resetting {
		b.mu.Unlock()
		return ErrBusy
	}
	b.busy.UpdatingEmployee = true
	b.mu.Unlock()

	err := b.employees.Update(ctx, id, u)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.busy.UpdatingEmployee = false
	if err != nil {
		b.logger.Error("Failed to update employee", zap.String("employee", id), zap.Error(err))
		return fmt.Errorf("failed to update employee: %w", err)
	}

	if i := b.findEmployeeLocked(id); i >= 0 {
		apply(&b.employeeList[i])
		if d := b.selection.VacationForDelete; d != nil && d.Employee.ID == id {
			apply(&d.Employee)
		}
	}
	return nil
}

func (b *Board) findEmployeeLocked(id string) int {
	for i, e := range b.employeeList {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) findVacationLocked(id string) int {
	for i, v := range b.vacationList {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func removeEmployee(list []models.Employee, id string) []models.Employee {
	out := make([]models.Employee, 0, len(list))
	for _, e := range list {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func removeVacations(list []models.VacationPeriod, drop func(models.VacationPeriod) bool) []models.VacationPeriod {
	out := make([]models.VacationPeriod, 0, len(list))
	for _, v := range list {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
