package api

import (
	"github.com/username/vacation-calendar/internal/board"
	"github.com/username/vacation-calendar/internal/models"
)

// CredentialsRequest is the body of register and login.
// Address and password rules are enforced by the identity service.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=128"`
}

type NameRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// UpdateEmployeeRequest changes the fields that are present
type UpdateEmployeeRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,len=7,hexcolor"`
}

type DateRequest struct {
	Date string `json:"date" validate:"required"`
}

type SegmentRequest struct {
	VacationID string `json:"vacationId" validate:"required"`
	Date       string `json:"date" validate:"required"`
}

// ActionResponse is returned by every board mutation
type ActionResponse struct {
	Vacation *models.VacationPeriod `json:"vacation,omitempty"`
	Employee *models.Employee       `json:"employee,omitempty"`
	Board    board.View             `json:"board"`
}

type CalendarResponse struct {
	Year   int               `json:"year"`
	Months []board.MonthView `json:"months"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
