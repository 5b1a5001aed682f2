package calendar

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

const testIsDayOffURL = "https://isdayoff.test"

// yearCodes builds a bulk response using the weekday rule plus overrides
func yearCodes(year int, overrides map[string]byte) string {
	var b strings.Builder
	for d := dateutil.NewDate(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if code, ok := overrides[dateutil.Key(d)]; ok {
			b.WriteByte(code)
			continue
		}
		if dateutil.IsWeekend(d) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func TestParseBulkResponse(t *testing.T) {
	data := yearCodes(2025, map[string]byte{
		"2025-01-01": '1',
		"2025-03-07": '2',
	})

	days, err := parseBulkResponse(2025, data)
	if err != nil {
		t.Fatalf("parseBulkResponse() error = %v", err)
	}

	if len(days) != 365 {
		t.Fatalf("len(days) = %d, want 365", len(days))
	}

	tests := []struct {
		date string
		want DayType
	}{
		{"2025-01-01", DayHoliday},   // Wednesday, holiday
		{"2025-01-04", DayHoliday},   // Saturday
		{"2025-01-09", DayOrdinary},  // Thursday
		{"2025-03-07", DayShortened}, // Friday before March 8
	}

	for _, tt := range tests {
		date, _ := dateutil.ParseDate(tt.date)
		if got := days[dayOfYear(date)]; got != tt.want {
			t.Errorf("day %s = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestParseBulkResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		year int
		data string
	}{
		{"too short", 2025, "0101"},
		{"leap year length", 2024, yearCodes(2025, nil)},
		{"unknown code", 2025, "9" + yearCodes(2025, nil)[1:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBulkResponse(tt.year, tt.data); err == nil {
				t.Error("parseBulkResponse() error = nil, want error")
			}
		})
	}
}

func TestIsDayOffSource_FetchYear(t *testing.T) {
	defer gock.Off()

	gock.New(testIsDayOffURL).
		Get("/api/getdata").
		MatchParam("year", "2024").
		MatchParam("cc", "ru").
		Reply(200).
		BodyString(yearCodes(2024, nil))

	src := NewIsDayOffSource(testIsDayOffURL, "", time.Second, zap.NewNop())
	days, err := src.FetchYear(context.Background(), 2024)
	if err != nil {
		t.Fatalf("FetchYear() error = %v", err)
	}

	if len(days) != 366 {
		t.Errorf("len(days) = %d, want 366", len(days))
	}
	if !gock.IsDone() {
		t.Error("expected request was not made")
	}
}

func TestIsDayOffSource_FetchYear_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", 500, "oops"},
		{"data not found", 404, "101"},
		{"service error code with 200", 200, "199"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			gock.New(testIsDayOffURL).
				Get("/api/getdata").
				Reply(tt.status).
				BodyString(tt.body)

			src := NewIsDayOffSource(testIsDayOffURL, "ru", time.Second, zap.NewNop())
			if _, err := src.FetchYear(context.Background(), 2025); err == nil {
				t.Error("FetchYear() error = nil, want error")
			}
		})
	}
}

func TestIsDayOffSource_FetchDay(t *testing.T) {
	tests := []struct {
		body string
		want DayType
	}{
		{"0", DayOrdinary},
		{"1", DayHoliday},
		{"2", DayShortened},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			defer gock.Off()

			gock.New(testIsDayOffURL).
				Get("/20250307").
				MatchParam("cc", "ru").
				Reply(200).
				BodyString(tt.body)

			src := NewIsDayOffSource(testIsDayOffURL, "ru", time.Second, zap.NewNop())
			got, err := src.FetchDay(context.Background(), dateutil.NewDate(2025, time.March, 7))
			if err != nil {
				t.Fatalf("FetchDay() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FetchDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDayOffSource_FetchDay_ErrorCode(t *testing.T) {
	defer gock.Off()

	gock.New(testIsDayOffURL).
		Get("/20250101").
		Reply(400).
		BodyString("100")

	src := NewIsDayOffSource(testIsDayOffURL, "ru", time.Second, zap.NewNop())
	_, err := src.FetchDay(context.Background(), dateutil.NewDate(2025, time.January, 1))
	if err == nil {
		t.Fatal("FetchDay() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "invalid date") {
		t.Errorf("FetchDay() error = %v, want invalid date", err)
	}
}
