package calendar

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// FileSource implements Source using a local text file.
// Days missing from the file follow the weekday rule, but a year without
// a single entry in the file is reported as unavailable.
type FileSource struct {
	filePath string
	logger   *zap.Logger

	once    sync.Once
	loadErr error
	data    map[string]DayType // key: "YYYY-MM-DD"
	years   map[int]bool
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
		data:     make(map[string]DayType),
		years:    make(map[int]bool),
	}
}

// Load loads calendar data from file
func (fc *FileSource) Load() error {
	fc.once.Do(func() {
		fc.loadErr = fc.load()
	})
	return fc.loadErr
}

func (fc *FileSource) load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD type [note]
		// Example: 2025-01-01 holiday Новогодние каникулы
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 {
			fc.logger.Warn("Invalid line format", zap.String("line", line))
			continue
		}

		date, err := time.Parse(dateutil.ISODate, parts[0])
		if err != nil {
			fc.logger.Warn("Failed to parse date", zap.String("date", parts[0]), zap.Error(err))
			continue
		}

		var dayType DayType
		switch parts[1] {
		case "workday":
			dayType = DayOrdinary
		case "weekend", "holiday":
			dayType = DayHoliday
		case "shortened":
			dayType = DayShortened
		default:
			fc.logger.Warn("Unknown day type", zap.String("type", parts[1]))
			continue
		}

		fc.data[dateutil.Key(date)] = dayType
		fc.years[date.Year()] = true
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading calendar file: %w", err)
	}

	fc.logger.Info("Calendar file loaded",
		zap.String("file", fc.filePath),
		zap.Int("days", len(fc.data)))

	return nil
}

// FetchYear returns the year from the file
func (fc *FileSource) FetchYear(_ context.Context, year int) ([]DayType, error) {
	if err := fc.Load(); err != nil {
		return nil, err
	}
	if !fc.years[year] {
		return nil, fmt.Errorf("year %d not found in calendar file", year)
	}

	days := make([]DayType, 0, dateutil.DaysInYear(year))
	for d := dateutil.NewDate(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		days = append(days, fc.lookup(d))
	}
	return days, nil
}

// FetchDay returns a single day from the file
func (fc *FileSource) FetchDay(_ context.Context, date time.Time) (DayType, error) {
	if err := fc.Load(); err != nil {
		return 0, err
	}
	if !fc.years[date.Year()] {
		return 0, fmt.Errorf("year %d not found in calendar file", date.Year())
	}
	return fc.lookup(date), nil
}

func (fc *FileSource) lookup(date time.Time) DayType {
	if t, ok := fc.data[dateutil.Key(date)]; ok {
		return t
	}
	return WeekdayType(date)
}
