package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	DefaultIsDayOffURL = "https://isdayoff.ru"
	DefaultCountryCode = "ru"
	defaultHTTPTimeout = 10 * time.Second
)

// isdayoff.ru answers with a three digit code instead of day data on errors
var isDayOffErrors = map[string]string{
	"100": "invalid date",
	"101": "data not found",
	"199": "service error",
}

// IsDayOffSource implements Source using isdayoff.ru API
type IsDayOffSource struct {
	baseURL    string
	country    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIsDayOffSource creates a new IsDayOffSource instance
func NewIsDayOffSource(baseURL, country string, timeout time.Duration, logger *zap.Logger) *IsDayOffSource {
	if baseURL == "" {
		baseURL = DefaultIsDayOffURL
	}
	if country == "" {
		country = DefaultCountryCode
	}
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	return &IsDayOffSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchYear fetches the entire year from the isdayoff.ru bulk API
func (s *IsDayOffSource) FetchYear(ctx context.Context, year int) ([]DayType, error) {
	// Build URL: https://isdayoff.ru/api/getdata?year=2025&cc=ru&pre=1
	url := fmt.Sprintf("%s/api/getdata?year=%d&cc=%s&pre=1", s.baseURL, year, s.country)

	s.logger.Debug("Fetching year from isdayoff.ru",
		zap.String("url", url),
		zap.Int("year", year))

	body, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}

	days, err := parseBulkResponse(year, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bulk response: %w", err)
	}

	s.logger.Info("Year day types fetched from API",
		zap.Int("year", year),
		zap.Int("days", len(days)))

	return days, nil
}

// FetchDay fetches a single date: GET /{YYYYMMDD}?cc=ru&pre=1
func (s *IsDayOffSource) FetchDay(ctx context.Context, date time.Time) (DayType, error) {
	url := fmt.Sprintf("%s/%s?cc=%s&pre=1", s.baseURL, date.Format(dateutil.CompactDate), s.country)

	body, err := s.get(ctx, url)
	if err != nil {
		return 0, err
	}

	if len(body) != 1 {
		return 0, fmt.Errorf("unexpected single day response %q", body)
	}

	return ParseDayCode(rune(body[0]))
}

func (s *IsDayOffSource) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	body := strings.TrimSpace(string(raw))

	if msg, ok := isDayOffErrors[body]; ok {
		return "", fmt.Errorf("API returned error %s: %s", body, msg)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return body, nil
}

// parseBulkResponse parses isdayoff.ru bulk response string
// Format: "1111111100000110000011..." one digit per day of the year
func parseBulkResponse(year int, data string) ([]DayType, error) {
	want := dateutil.DaysInYear(year)
	if len(data) != want {
		return nil, fmt.Errorf("bulk data length mismatch: expected %d, got %d", want, len(data))
	}

	days := make([]DayType, 0, want)
	for i, code := range data {
		t, err := ParseDayCode(code)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		days = append(days, t)
	}

	return days, nil
}
