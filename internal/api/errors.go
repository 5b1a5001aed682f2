package api

import (
	"errors"
	"net/http"

	"github.com/username/vacation-calendar/internal/board"
	"github.com/username/vacation-calendar/internal/identity"
	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/store"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrNothingToUpdate = errors.New("nothing to update")
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{ErrInvalidRequest, http.StatusBadRequest},
	{ErrNothingToUpdate, http.StatusBadRequest},
	{models.ErrEmptyName, http.StatusBadRequest},
	{models.ErrMissingID, http.StatusBadRequest},
	{models.ErrInvalidPeriod, http.StatusBadRequest},
	{board.ErrInvalidColor, http.StatusBadRequest},
	{board.ErrNoEmployeeSelected, http.StatusBadRequest},
	{board.ErrNoVacationSelected, http.StatusBadRequest},
	{identity.ErrInvalidEmail, http.StatusBadRequest},
	{identity.ErrWeakPassword, http.StatusBadRequest},

	{identity.ErrUnauthenticated, http.StatusUnauthorized},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized},
	{identity.ErrUserDisabled, http.StatusUnauthorized},

	{board.ErrEmployeeNotFound, http.StatusNotFound},
	{board.ErrVacationNotFound, http.StatusNotFound},
	{store.ErrNotFound, http.StatusNotFound},

	{board.ErrBusy, http.StatusConflict},
	{identity.ErrEmailExists, http.StatusConflict},

	{identity.ErrTooManyAttempts, http.StatusTooManyRequests},
}

// statusFor maps known errors to a status; anything else gets fallback
func statusFor(err error, fallback int) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fallback
}

// fail writes err with the mapped status. fallback is used for errors
// that are not recognised, typically 502 after a store call.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)

	message := http.StatusText(status)
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			message = e.err.Error()
			break
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Error: message, Details: err.Error()})
}
