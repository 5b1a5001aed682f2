package models

import (
	"errors"
	"strings"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
)

// SchemaVersion is written with every stored record.
// Version 1 records used "userId" for the owning employee and had no "accountId".
const SchemaVersion = 2

var (
	ErrEmptyName     = errors.New("name must not be empty")
	ErrMissingID     = errors.New("id is required")
	ErrInvalidPeriod = errors.New("start date must not be after end date")
)

// Employee is a person who can be assigned vacation periods
type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	AccountID string `json:"accountId"`
}

// Validate checks fields required before the employee is stored
func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.AccountID == "" {
		return ErrMissingID
	}
	return nil
}

// VacationPeriod is an inclusive date range owned by one employee.
// Dates are UTC midnight; time of day is never significant.
type VacationPeriod struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	AccountID  string    `json:"accountId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

// NewVacationPeriod orders the two dates and normalizes them to midnight
func NewVacationPeriod(employeeID, accountID string, a, b time.Time) VacationPeriod {
	return VacationPeriod{
		EmployeeID: employeeID,
		AccountID:  accountID,
		StartDate:  dateutil.Date(dateutil.MinDate(a, b)),
		EndDate:    dateutil.Date(dateutil.MaxDate(a, b)),
	}
}

// Contains reports whether date falls within the period, bounds included
func (v VacationPeriod) Contains(date time.Time) bool {
	return dateutil.InRange(date, v.StartDate, v.EndDate)
}

// Days returns the inclusive length of the period
func (v VacationPeriod) Days() int {
	return dateutil.DaysCount(v.StartDate, v.EndDate)
}

func (v VacationPeriod) Validate() error {
	if v.EmployeeID == "" || v.AccountID == "" {
		return ErrMissingID
	}
	if dateutil.Date(v.StartDate).After(dateutil.Date(v.EndDate)) {
		return ErrInvalidPeriod
	}
	return nil
}

// Coverage pairs a vacation period with the employee owning it
type Coverage struct {
	Vacation VacationPeriod `json:"vacation"`
	Employee Employee       `json:"employee"`
}

// Identity is an authenticated user; UID scopes all employees and vacations
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}
