package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

const DefaultXMLCalendarURL = "https://xmlcalendar.ru/data/ru/{year}/calendar.json"

// XMLCalendarSource implements Source using the xmlcalendar.ru yearly JSON
type XMLCalendarSource struct {
	urlTemplate string
	httpClient  *http.Client
	logger      *zap.Logger

	mu    sync.RWMutex
	years map[int][]DayType
}

// xmlCalendarYear represents xmlcalendar.ru JSON structure
type xmlCalendarYear struct {
	Year   int                `json:"year"`
	Months []xmlCalendarMonth `json:"months"`
}

type xmlCalendarMonth struct {
	Month int    `json:"month"`
	Days  string `json:"days"` // "1*,2,3+,4,8,9,..." where * = shortened, + = transferred
}

// NewXMLCalendarSource creates a new XMLCalendarSource; urlTemplate contains {year}
func NewXMLCalendarSource(urlTemplate string, timeout time.Duration, logger *zap.Logger) *XMLCalendarSource {
	if urlTemplate == "" {
		urlTemplate = DefaultXMLCalendarURL
	}
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	return &XMLCalendarSource{
		urlTemplate: urlTemplate,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		years:  make(map[int][]DayType),
	}
}

// FetchYear downloads (once) and parses the whole year
func (s *XMLCalendarSource) FetchYear(ctx context.Context, year int) ([]DayType, error) {
	s.mu.RLock()
	days, ok := s.years[year]
	s.mu.RUnlock()
	if ok {
		return days, nil
	}

	yearData, err := s.download(ctx, year)
	if err != nil {
		return nil, err
	}

	days, err = s.parseYear(year, yearData)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.years[year] = days
	s.mu.Unlock()

	return days, nil
}

// FetchDay returns the day from the downloaded year
func (s *XMLCalendarSource) FetchDay(ctx context.Context, date time.Time) (DayType, error) {
	days, err := s.FetchYear(ctx, date.Year())
	if err != nil {
		return 0, err
	}
	return days[dayOfYear(date)], nil
}

func (s *XMLCalendarSource) download(ctx context.Context, year int) (*xmlCalendarYear, error) {
	url := strings.ReplaceAll(s.urlTemplate, "{year}", strconv.Itoa(year))

	s.logger.Info("Downloading fallback calendar data",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fallback data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback API returned status %d", resp.StatusCode)
	}

	var yearData xmlCalendarYear
	if err := json.NewDecoder(resp.Body).Decode(&yearData); err != nil {
		return nil, fmt.Errorf("failed to parse fallback JSON: %w", err)
	}

	return &yearData, nil
}

// parseYear expands the compact month lists into one DayType per day.
// Days not listed in a month are ordinary workdays.
func (s *XMLCalendarSource) parseYear(year int, yearData *xmlCalendarYear) ([]DayType, error) {
	if len(yearData.Months) == 0 {
		return nil, fmt.Errorf("no months in fallback data for year %d", year)
	}

	days := make([]DayType, dateutil.DaysInYear(year))
	for i := range days {
		days[i] = DayOrdinary
	}

	for _, month := range yearData.Months {
		if month.Month < 1 || month.Month > 12 {
			return nil, fmt.Errorf("invalid month %d in fallback data", month.Month)
		}
		s.applyMonth(year, time.Month(month.Month), month.Days, days)
	}

	return days, nil
}

// applyMonth parses xmlcalendar.ru compact format
// Format: "1*,2,3+,4,8,9,15,16,22,23,29,30"
// * = shortened day, + = transferred day, others = weekends/holidays
func (s *XMLCalendarSource) applyMonth(year int, month time.Month, list string, days []DayType) {
	daysInMonth := dateutil.DaysInMonth(year, month)

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		dayType := DayHoliday
		dayStr := part
		if strings.HasSuffix(part, "*") {
			dayType = DayShortened
			dayStr = strings.TrimSuffix(part, "*")
		} else if strings.HasSuffix(part, "+") {
			dayStr = strings.TrimSuffix(part, "+")
		}

		day, err := strconv.Atoi(dayStr)
		if err != nil || day < 1 || day > daysInMonth {
			s.logger.Warn("Failed to parse day number",
				zap.String("part", part),
				zap.Int("month", int(month)))
			continue
		}

		days[dayOfYear(dateutil.NewDate(year, month, day))] = dayType
	}
}
