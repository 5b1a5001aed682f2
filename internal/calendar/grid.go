package calendar

import (
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
)

const daysPerWeek = 7

// Month is one month of the year grid
type Month struct {
	Year  int
	Month time.Month
	Days  []time.Time

	// LeadingBlanks is the Monday-based weekday index of the 1st,
	// i.e. the number of empty cells before it in a 7-column grid.
	LeadingBlanks int
	// TrailingBlanks pads the final week row to 7 cells.
	TrailingBlanks int
}

// GenerateYear returns the 12 months of a year with every day at UTC midnight
func GenerateYear(year int) []Month {
	months := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, GenerateMonth(year, m))
	}
	return months
}

// GenerateMonth returns a single month of the grid
func GenerateMonth(year int, month time.Month) Month {
	n := dateutil.DaysInMonth(year, month)
	days := make([]time.Time, n)
	for i := range days {
		days[i] = dateutil.NewDate(year, month, i+1)
	}

	leading := dateutil.WeekdayIndex(days[0])
	trailing := (daysPerWeek - (leading+n)%daysPerWeek) % daysPerWeek

	return Month{
		Year:           year,
		Month:          month,
		Days:           days,
		LeadingBlanks:  leading,
		TrailingBlanks: trailing,
	}
}

// Weeks lays the month out in rows of 7 cells, Monday first.
// Blank cells hold the zero time.
func (m Month) Weeks() [][]time.Time {
	cells := make([]time.Time, 0, m.LeadingBlanks+len(m.Days)+m.TrailingBlanks)
	cells = append(cells, make([]time.Time, m.LeadingBlanks)...)
	cells = append(cells, m.Days...)
	cells = append(cells, make([]time.Time, m.TrailingBlanks)...)

	weeks := make([][]time.Time, 0, len(cells)/daysPerWeek)
	for i := 0; i < len(cells); i += daysPerWeek {
		weeks = append(weeks, cells[i:i+daysPerWeek])
	}
	return weeks
}
