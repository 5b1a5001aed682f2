package board

import (
	"context"
	"time"

	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/internal/vacation"
	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// EmployeeView is an employee with its vacation day total
type EmployeeView struct {
	models.Employee
	VacationDays int `json:"vacationDays"`
}

// View is a consistent copy of the board state
type View struct {
	AccountID string                  `json:"accountId"`
	Loaded    bool                    `json:"loaded"`
	Employees []EmployeeView          `json:"employees"`
	Vacations []models.VacationPeriod `json:"vacations"`
	State     SelectionState          `json:"state"`
	Selection Selection               `json:"selection"`
	Draft     Draft                   `json:"draft"`
	Busy      Busy                    `json:"busy"`
}

// DayView is everything needed to render one calendar cell
type DayView struct {
	Date      string            `json:"date"`
	Type      calendar.DayType  `json:"type"`
	Holiday   bool              `json:"holiday"`
	ShortDay  bool              `json:"shortDay"`
	Segments  []models.Coverage `json:"segments"`
	InPreview bool              `json:"inPreview"`
	IsStart   bool              `json:"isStart"`
	// MarkedForDelete is set when a segment of this day is the vacation marked for deletion
	MarkedForDelete bool `json:"markedForDelete"`
}

// MonthView is one month of the rendered year
type MonthView struct {
	Year           int        `json:"year"`
	Month          time.Month `json:"month"`
	LeadingBlanks  int        `json:"leadingBlanks"`
	TrailingBlanks int        `json:"trailingBlanks"`
	Days           []DayView  `json:"days"`
}

func (b *Board) Snapshot() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	employees := make([]EmployeeView, 0, len(b.employeeList))
	for _, e := range b.employeeList {
		employees = append(employees, EmployeeView{
			Employee:     e,
			VacationDays: vacation.TotalDays(e.ID, b.vacationList),
		})
	}

	return View{
		AccountID: b.accountID,
		Loaded:    b.loaded,
		Employees: employees,
		Vacations: append([]models.VacationPeriod{}, b.vacationList...),
		State:     b.selection.State(),
		Selection: b.selection.clone(),
		Draft:     b.draft,
		Busy:      b.busy,
	}
}

// Day renders one date from the cache only
func (b *Board) Day(date time.Time) DayView {
	return b.dayView(date, b.classifier.Classify(date))
}

// LookupDay renders one date, asking the day type source on a cache miss
func (b *Board) LookupDay(ctx context.Context, date time.Time) DayView {
	return b.dayView(date, b.classifier.Lookup(ctx, date))
}

// LoadYear preloads the day types of year, then renders it.
// A failed preload leaves the weekday rule in place.
func (b *Board) LoadYear(ctx context.Context, year int) []MonthView {
	if err := b.classifier.Preload(ctx, year); err != nil {
		b.logger.Warn("Day type preload failed", zap.Int("year", year), zap.Error(err))
	}
	return b.Year(year)
}

// Year renders the full grid of year
func (b *Board) Year(year int) []MonthView {
	months := calendar.GenerateYear(year)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]MonthView, 0, len(months))
	for _, m := range months {
		days := make([]DayView, 0, len(m.Days))
		for _, d := range m.Days {
			days = append(days, b.dayViewLocked(d, b.classifier.Classify(d)))
		}
		out = append(out, MonthView{
			Year:           m.Year,
			Month:          m.Month,
			LeadingBlanks:  m.LeadingBlanks,
			TrailingBlanks: m.TrailingBlanks,
			Days:           days,
		})
	}
	return out
}

func (b *Board) dayView(date time.Time, t calendar.DayType) DayView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dayViewLocked(date, t)
}

func (b *Board) dayViewLocked(date time.Time, t calendar.DayType) DayView {
	segments := vacation.Covering(date, b.vacationList, b.employeeList)

	marked := false
	if d := b.selection.VacationForDelete; d != nil {
		for _, s := range segments {
			if s.Vacation.ID == d.Vacation.ID {
				marked = true
				break
			}
		}
	}

	return DayView{
		Date:            dateutil.Key(date),
		Type:            t,
		Holiday:         t == calendar.DayHoliday,
		ShortDay:        t == calendar.DayShortened,
		Segments:        segments,
		InPreview:       b.selection.InPreview(date),
		IsStart:         b.selection.IsStart(date),
		MarkedForDelete: marked,
	}
}
