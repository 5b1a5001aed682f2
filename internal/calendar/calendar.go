package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
)

// DayType represents the type of day
type DayType int

const (
	DayOrdinary DayType = iota + 1
	DayHoliday          // public holiday or weekend
	DayShortened        // shortened workday before a holiday
)

func (t DayType) String() string {
	switch t {
	case DayOrdinary:
		return "ordinary"
	case DayHoliday:
		return "holiday"
	case DayShortened:
		return "shortened"
	default:
		return "unknown"
	}
}

// MarshalText lets DayType render as a string in JSON
func (t DayType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DayType) UnmarshalText(text []byte) error {
	for _, candidate := range []DayType{DayOrdinary, DayHoliday, DayShortened} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown day type %q", text)
}

// ParseDayCode maps an isdayoff.ru digit to a DayType
// 0 = working day, 1 = non-working day (holiday/weekend), 2 = shortened day
func ParseDayCode(code rune) (DayType, error) {
	switch code {
	case '0':
		return DayOrdinary, nil
	case '1':
		return DayHoliday, nil
	case '2':
		return DayShortened, nil
	default:
		return 0, fmt.Errorf("unknown day code '%c'", code)
	}
}

// WeekdayType classifies a date by weekday only
func WeekdayType(date time.Time) DayType {
	if dateutil.IsWeekend(date) {
		return DayHoliday
	}
	return DayOrdinary
}

// Source provides day types from an external calendar
type Source interface {
	// FetchYear returns one DayType per day of the year, January 1st first
	FetchYear(ctx context.Context, year int) ([]DayType, error)

	// FetchDay returns the DayType of a single date
	FetchDay(ctx context.Context, date time.Time) (DayType, error)
}

// Summary represents day type statistics for a period
type Summary struct {
	Year      int `json:"year"`
	Days      int `json:"days"`
	Ordinary  int `json:"ordinary"`
	Holidays  int `json:"holidays"`
	Shortened int `json:"shortened"`
}

// Summarize counts day types of a FetchYear result
func Summarize(year int, days []DayType) Summary {
	s := Summary{Year: year, Days: len(days)}
	for _, t := range days {
		switch t {
		case DayOrdinary:
			s.Ordinary++
		case DayHoliday:
			s.Holidays++
		case DayShortened:
			s.Shortened++
		}
	}
	return s
}

// dayOfYear returns the zero-based index of date within its year
func dayOfYear(date time.Time) int {
	return dateutil.Date(date).YearDay() - 1
}
