package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/store"
	"go.uber.org/zap"
)

type Vacations struct {
	docs   store.DocumentStore
	logger *zap.Logger
	now    func() time.Time
}

func NewVacations(docs store.DocumentStore, logger *zap.Logger) *Vacations {
	return &Vacations{docs: docs, logger: logOrNop(logger), now: time.Now}
}

// List returns the vacations of an account in creation order.
// Unreadable records are skipped with a warning.
func (r *Vacations) List(ctx context.Context, accountID string) ([]models.VacationPeriod, error) {
	docs, err := r.docs.Query(ctx, store.Vacations, store.Eq(fieldAccountID, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to list vacations: %w", err)
	}
	sortByCreation(docs)

	vacations := make([]models.VacationPeriod, 0, len(docs))
	for _, d := range docs {
		v, legacy, err := decodeVacation(d)
		if err != nil {
			r.logger.Warn("Skipping unreadable vacation record",
				zap.String("id", d.ID),
				zap.Error(err))
			continue
		}
		if legacy {
			r.migrate(ctx, v)
		}
		vacations = append(vacations, v)
	}
	return vacations, nil
}

// migrate rewrites a version 1 record; failures only cost another migration later
func (r *Vacations) migrate(ctx context.Context, v models.VacationPeriod) {
	err := r.docs.Update(ctx, store.Vacations, v.ID, store.Fields{
		fieldEmployeeID:    v.EmployeeID,
		fieldSchemaVersion: models.SchemaVersion,
	})
	if err != nil {
		r.logger.Warn("Failed to migrate legacy vacation record",
			zap.String("id", v.ID),
			zap.Error(err))
		return
	}
	r.logger.Info("Legacy vacation record migrated", zap.String("id", v.ID))
}

func decodeVacation(d store.Document) (models.VacationPeriod, bool, error) {
	v := models.VacationPeriod{
		ID:         d.ID,
		EmployeeID: toString(d.Fields[fieldEmployeeID]),
		AccountID:  toString(d.Fields[fieldAccountID]),
	}

	legacy := false
	if v.EmployeeID == "" {
		v.EmployeeID = toString(d.Fields[fieldLegacyUserID])
		legacy = v.EmployeeID != ""
	}

	var err error
	if v.StartDate, err = toDate(d.Fields[fieldStartDate]); err != nil {
		return v, false, fmt.Errorf("startDate: %w", err)
	}
	if v.EndDate, err = toDate(d.Fields[fieldEndDate]); err != nil {
		return v, false, fmt.Errorf("endDate: %w", err)
	}
	if err := v.Validate(); err != nil {
		return v, false, err
	}
	return v, legacy, nil
}

// Add stores a new vacation; dates are written as UTC midnight
func (r *Vacations) Add(ctx context.Context, v models.VacationPeriod) (models.VacationPeriod, error) {
	v = models.NewVacationPeriod(v.EmployeeID, v.AccountID, v.StartDate, v.EndDate)
	if err := v.Validate(); err != nil {
		return models.VacationPeriod{}, err
	}

	id, err := r.docs.Add(ctx, store.Vacations, store.Fields{
		fieldEmployeeID:    v.EmployeeID,
		fieldAccountID:     v.AccountID,
		fieldStartDate:     v.StartDate,
		fieldEndDate:       v.EndDate,
		fieldCreatedAt:     r.now().UTC(),
		fieldSchemaVersion: models.SchemaVersion,
	})
	if err != nil {
		return models.VacationPeriod{}, fmt.Errorf("failed to add vacation: %w", err)
	}

	v.ID = id
	return v, nil
}

func (r *Vacations) Delete(ctx context.Context, id string) error {
	if id == "" {
		return models.ErrMissingID
	}
	if err := r.docs.Delete(ctx, store.Vacations, id); err != nil {
		return fmt.Errorf("failed to delete vacation: %w", err)
	}
	return nil
}

// DeleteByEmployee removes all vacations of one employee concurrently
func (r *Vacations) DeleteByEmployee(ctx context.Context, employeeID, accountID string) error {
	if employeeID == "" {
		return models.ErrMissingID
	}

	docs, err := r.docs.Query(ctx, store.Vacations,
		store.Eq(fieldEmployeeID, employeeID),
		store.Eq(fieldAccountID, accountID))
	if err != nil {
		return fmt.Errorf("failed to list employee vacations: %w", err)
	}

	// version 1 records still carry the employee as userId
	legacy, err := r.docs.Query(ctx, store.Vacations,
		store.Eq(fieldLegacyUserID, employeeID),
		store.Eq(fieldAccountID, accountID))
	if err != nil {
		return fmt.Errorf("failed to list employee vacations: %w", err)
	}

	ids := idsOf(docs)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, d := range legacy {
		if !seen[d.ID] {
			ids = append(ids, d.ID)
		}
	}

	return deleteAll(ctx, r.docs, store.Vacations, ids)
}

// DeleteByAccount removes every vacation of the account concurrently
func (r *Vacations) DeleteByAccount(ctx context.Context, accountID string) error {
	docs, err := r.docs.Query(ctx, store.Vacations, store.Eq(fieldAccountID, accountID))
	if err != nil {
		return fmt.Errorf("failed to list vacations: %w", err)
	}

	r.logger.Info("Deleting account vacations",
		zap.String("account", accountID),
		zap.Int("count", len(docs)))

	return deleteAll(ctx, r.docs, store.Vacations, idsOf(docs))
}
