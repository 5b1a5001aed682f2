package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/username/vacation-calendar/internal/board"
	"github.com/username/vacation-calendar/internal/identity"
	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	minYear = 1900
	maxYear = 2100
	// request bodies are tiny; anything bigger is a client bug
	maxBodyBytes = 64 << 10
)

// Authenticator is the identity surface the API needs; *identity.Service implements it
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*models.Identity, error)
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Logout(id models.Identity)
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// Boards hands out the board of an account; *board.Registry implements it
type Boards interface {
	Get(ctx context.Context, accountID string) (*board.Board, error)
}

// Handler holds all dependencies for HTTP handlers
type Handler struct {
	auth     Authenticator
	boards   Boards
	validate *validator.Validate
	logger   *zap.Logger
}

func NewHandler(auth Authenticator, boards Boards, logger *zap.Logger) *Handler {
	return &Handler{
		auth:     auth,
		boards:   boards,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// AUTH
// =============================================================================

// Register creates an account and signs it in.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}

	id, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, id)
}

// Login signs an existing account in.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}

	id, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// Logout revokes the current token.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(*identity.FromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in identity without its token.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := *identity.FromContext(r.Context())
	id.Token = ""
	writeJSON(w, http.StatusOK, id)
}

// =============================================================================
// BOARD AND CALENDAR
// =============================================================================

// GetBoard returns the board snapshot.
// GET /api/board
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b.Snapshot())
}

// ReloadBoard re-fetches employees and vacations from the store.
// POST /api/board/reload
func (h *Handler) ReloadBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.Load(r.Context()); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, b.Snapshot())
}

// GetCalendar renders a whole year.
// GET /api/calendar/{year}
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < minYear || year > maxYear {
		h.fail(w, r, fmt.Errorf("%w: year must be between %d and %d", ErrInvalidRequest, minYear, maxYear), http.StatusBadRequest)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CalendarResponse{Year: year, Months: b.LoadYear(r.Context(), year)})
}

// GetDay renders one day, asking the day type source when needed.
// GET /api/days/{date}
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b.LookupDay(r.Context(), date))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SetDraft opens the new employee entry and stores the typed name.
// POST /api/employees/draft
func (h *Handler) SetDraft(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		b.StartAddingEmployee()
	} else {
		b.SetNewEmployeeName(req.Name)
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// CancelDraft closes the new employee entry.
// DELETE /api/employees/draft
func (h *Handler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	b.CancelAddingEmployee()
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// AddEmployee creates an employee; an empty name submits the draft.
// POST /api/employees
func (h *Handler) AddEmployee(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	e, err := b.AddEmployee(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	h.respond(w, http.StatusCreated, b, ActionResponse{Employee: &e})
}

// UpdateEmployee renames and/or recolors an employee.
// PATCH /api/employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Name == nil && req.Color == nil {
		h.fail(w, r, ErrNothingToUpdate, http.StatusBadRequest)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}

	if err := b.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), req.Name, req.Color); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// DeleteEmployee removes an employee and all of its vacations.
// DELETE /api/employees/{id}
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// SelectEmployee makes the employee the target of day clicks.
// POST /api/employees/{id}/select
func (h *Handler) SelectEmployee(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.SelectEmployee(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// DeleteEmployeeVacations removes every vacation of the selected employee.
// DELETE /api/employees/{id}/vacations
func (h *Handler) DeleteEmployeeVacations(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.DeleteAllVacationsOf(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// =============================================================================
// SELECTION
// =============================================================================

// ClickDay advances the range gesture; the second click commits a vacation.
// POST /api/selection/day
func (h *Handler) ClickDay(w http.ResponseWriter, r *http.Request) {
	date, ok := h.decodeDate(w, r)
	if !ok {
		return
	}
	b, ok := h.board(w, r)
	if !ok {
		return
	}

	v, err := b.ClickDay(r.Context(), date)
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	status := http.StatusOK
	if v != nil {
		status = http.StatusCreated
	}
	h.respond(w, status, b, ActionResponse{Vacation: v})
}

// HoverDay moves the preview end.
// POST /api/selection/hover
func (h *Handler) HoverDay(w http.ResponseWriter, r *http.Request) {
	date, ok := h.decodeDate(w, r)
	if !ok {
		return
	}
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	b.HoverDay(date)
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// POST /api/selection/leave
func (h *Handler) LeaveCalendar(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, (*board.Board).LeaveCalendar)
}

// POST /api/selection/cancel
func (h *Handler) CancelSelection(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, (*board.Board).CancelSelection)
}

// POST /api/selection/outside
func (h *Handler) ClickOutside(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, (*board.Board).ClickOutside)
}

// ClickSegment handles a click on a vacation bar inside a day.
// POST /api/selection/segment
func (h *Handler) ClickSegment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}

	b, ok := h.board(w, r)
	if !ok {
		return
	}
	v, err := b.ClickSegment(r.Context(), req.VacationID, date)
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	status := http.StatusOK
	if v != nil {
		status = http.StatusCreated
	}
	h.respond(w, status, b, ActionResponse{Vacation: v})
}

// DeleteSelectedVacation removes the vacation marked for deletion.
// DELETE /api/selection/vacation
func (h *Handler) DeleteSelectedVacation(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.DeleteSelectedVacation(r.Context()); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// ResetAll deletes every employee and vacation of the account.
// POST /api/reset
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.ResetAll(r.Context()); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

// =============================================================================
// HELPERS
// =============================================================================

// board returns the board of the signed-in account, writing the error itself
func (h *Handler) board(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	id := identity.FromContext(r.Context())
	if id == nil {
		h.fail(w, r, identity.ErrUnauthenticated, http.StatusUnauthorized)
		return nil, false
	}

	b, err := h.boards.Get(r.Context(), id.UID)
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return nil, false
	}
	return b, true
}

func (h *Handler) simple(w http.ResponseWriter, r *http.Request, action func(*board.Board)) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	action(b)
	h.respond(w, http.StatusOK, b, ActionResponse{})
}

func (h *Handler) respond(w http.ResponseWriter, status int, b *board.Board, resp ActionResponse) {
	resp.Board = b.Snapshot()
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and validates it.
// An empty body leaves dst at its zero value.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if err := h.validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return err
		}
		fields := make([]string, 0, len(invalid))
		for _, fe := range invalid {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
	}
	return nil
}

func (h *Handler) decodeDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var req DateRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return time.Time{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}

func parseDate(s string) (time.Time, error) {
	date, err := dateutil.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return date, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
