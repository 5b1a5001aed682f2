package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/store"
	"go.uber.org/zap"
)

// EmployeeUpdate holds the fields to change; nil fields are left alone
type EmployeeUpdate struct {
	Name  *string
	Color *string
}

type Employees struct {
	docs   store.DocumentStore
	logger *zap.Logger
	now    func() time.Time
}

func NewEmployees(docs store.DocumentStore, logger *zap.Logger) *Employees {
	return &Employees{docs: docs, logger: logOrNop(logger), now: time.Now}
}

// List returns the employees of an account in creation order
func (r *Employees) List(ctx context.Context, accountID string) ([]models.Employee, error) {
	docs, err := r.docs.Query(ctx, store.Employees, store.Eq(fieldAccountID, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	sortByCreation(docs)

	employees := make([]models.Employee, 0, len(docs))
	for _, d := range docs {
		employees = append(employees, models.Employee{
			ID:        d.ID,
			Name:      toString(d.Fields[fieldName]),
			Color:     toString(d.Fields[fieldColor]),
			AccountID: toString(d.Fields[fieldAccountID]),
		})
	}
	return employees, nil
}

// Add stores a new employee and returns it with its id
func (r *Employees) Add(ctx context.Context, e models.Employee) (models.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return models.Employee{}, err
	}

	id, err := r.docs.Add(ctx, store.Employees, store.Fields{
		fieldName:          e.Name,
		fieldColor:         e.Color,
		fieldAccountID:     e.AccountID,
		fieldCreatedAt:     r.now().UTC(),
		fieldSchemaVersion: models.SchemaVersion,
	})
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to add employee: %w", err)
	}

	e.ID = id
	return e, nil
}

func (r *Employees) Update(ctx context.Context, id string, u EmployeeUpdate) error {
	if id == "" {
		return models.ErrMissingID
	}

	fields := store.Fields{}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return models.ErrEmptyName
		}
		fields[fieldName] = name
	}
	if u.Color != nil {
		fields[fieldColor] = *u.Color
	}
	if len(fields) == 0 {
		return nil
	}

	if err := r.docs.Update(ctx, store.Employees, id, fields); err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

func (r *Employees) Delete(ctx context.Context, id string) error {
	if id == "" {
		return models.ErrMissingID
	}
	if err := r.docs.Delete(ctx, store.Employees, id); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

// DeleteByAccount removes every employee of the account
func (r *Employees) DeleteByAccount(ctx context.Context, accountID string) error {
	docs, err := r.docs.Query(ctx, store.Employees, store.Eq(fieldAccountID, accountID))
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	r.logger.Info("Deleting account employees",
		zap.String("account", accountID),
		zap.Int("count", len(docs)))

	return deleteAll(ctx, r.docs, store.Employees, idsOf(docs))
}
