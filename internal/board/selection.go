package board

import (
	"fmt"
	"time"

	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/pkg/dateutil"
)

// SelectionState is the phase of the two-click range gesture
type SelectionState int

const (
	Idle SelectionState = iota
	EmployeeSelected
	RangeStarted
)

func (s SelectionState) String() string {
	switch s {
	case EmployeeSelected:
		return "employee_selected"
	case RangeStarted:
		return "range_started"
	default:
		return "idle"
	}
}

func (s SelectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SelectionState) UnmarshalText(text []byte) error {
	for _, candidate := range []SelectionState{Idle, EmployeeSelected, RangeStarted} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown selection state %q", text)
}

// Selection is the transient per-account selection.
// An employee selection and a vacation marked for deletion never coexist.
type Selection struct {
	EmployeeID        string           `json:"employeeId,omitempty"`
	Start             *time.Time       `json:"start,omitempty"`
	Hover             *time.Time       `json:"hover,omitempty"`
	VacationForDelete *models.Coverage `json:"vacationForDelete,omitempty"`
}

func (s Selection) State() SelectionState {
	switch {
	case s.EmployeeID == "":
		return Idle
	case s.Start == nil:
		return EmployeeSelected
	default:
		return RangeStarted
	}
}

// Preview returns the inclusive span between the pending start and the
// hovered day, ordered. ok is false when there is nothing to preview.
func (s Selection) Preview() (from, to time.Time, ok bool) {
	if s.Start == nil || s.Hover == nil {
		return time.Time{}, time.Time{}, false
	}
	return dateutil.Date(dateutil.MinDate(*s.Start, *s.Hover)),
		dateutil.Date(dateutil.MaxDate(*s.Start, *s.Hover)),
		true
}

// InPreview reports whether date is highlighted by the pending range
func (s Selection) InPreview(date time.Time) bool {
	from, to, ok := s.Preview()
	return ok && dateutil.InRange(date, from, to)
}

// IsStart reports whether date is the pending start date
func (s Selection) IsStart(date time.Time) bool {
	return s.Start != nil && dateutil.IsSameDay(*s.Start, date)
}

func (s Selection) clone() Selection {
	out := Selection{EmployeeID: s.EmployeeID}
	if s.Start != nil {
		start := *s.Start
		out.Start = &start
	}
	if s.Hover != nil {
		hover := *s.Hover
		out.Hover = &hover
	}
	if s.VacationForDelete != nil {
		c := *s.VacationForDelete
		out.VacationForDelete = &c
	}
	return out
}

// sameRange reports whether s still holds the employee and start of other
func (s Selection) sameRange(other Selection) bool {
	if s.EmployeeID != other.EmployeeID || s.Start == nil || other.Start == nil {
		return false
	}
	return s.Start.Equal(*other.Start)
}

func (s *Selection) clearRange() {
	s.Start = nil
	s.Hover = nil
}

func (s *Selection) clear() {
	*s = Selection{}
}

func datePtr(t time.Time) *time.Time {
	d := dateutil.Date(t)
	return &d
}
