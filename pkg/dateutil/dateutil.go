package dateutil

import (
	"fmt"
	"time"
)

const (
	// ISODate is the layout used for cache keys and the JSON API
	ISODate = "2006-01-02"
	// CompactDate is the layout of single-day isdayoff.ru queries
	CompactDate = "20060102"

	hoursPerDay = 24
)

// Date returns the calendar date of t as UTC midnight.
// The year, month and day are taken in t's own location, so a local
// 00:30 stays on the same day instead of shifting to the previous one.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds a UTC midnight date
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysCount returns the inclusive number of calendar days between start and end.
// Time-of-day components are ignored: DaysCount(d, d) == 1.
func DaysCount(start, end time.Time) int {
	diff := Date(end).Sub(Date(start))
	return int(diff.Hours()/hoursPerDay) + 1
}

// MinDate returns the earlier of two dates
func MinDate(a, b time.Time) time.Time {
	if Date(b).Before(Date(a)) {
		return b
	}
	return a
}

// MaxDate returns the later of two dates
func MaxDate(a, b time.Time) time.Time {
	if Date(b).After(Date(a)) {
		return b
	}
	return a
}

// InRange reports whether date lies within [start, end], inclusive, at day granularity
func InRange(date, start, end time.Time) bool {
	d := Date(date)
	return !d.Before(Date(start)) && !d.After(Date(end))
}

// WeekdayIndex returns the Monday-based weekday index (Monday=0 ... Sunday=6)
func WeekdayIndex(date time.Time) int {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	return weekday - 1
}

// IsLeapYear applies the Gregorian rule
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365 or 366
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in the month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// Key formats the date as YYYY-MM-DD
func Key(date time.Time) string {
	return date.Format(ISODate)
}

// FormatRU formats a date the way the UI shows it (dd.MM.yyyy)
func FormatRU(date time.Time) string {
	return date.Format("02.01.2006")
}

// ParseDate parses date string in various formats and returns the UTC date
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		ISODate,
		"02.01.2006",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return Date(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format: %q", dateStr)
}

// Today returns today's date as UTC midnight
func Today() time.Time {
	return Date(time.Now())
}
