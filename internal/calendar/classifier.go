package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// Classifier answers day type questions from an in-memory cache.
// The cache is filled per year by Preload and is never evicted.
type Classifier struct {
	source Source
	logger *zap.Logger

	mu       sync.RWMutex
	holidays map[string]bool // key: "YYYY-MM-DD"
	short    map[string]bool
	years    map[int]bool
}

// NewClassifier creates a classifier backed by source
func NewClassifier(source Source, logger *zap.Logger) *Classifier {
	return &Classifier{
		source:   source,
		logger:   logger,
		holidays: make(map[string]bool),
		short:    make(map[string]bool),
		years:    make(map[int]bool),
	}
}

// Preload fetches a whole year with a single bulk call and fills both caches.
// On failure the cache stays cold and classification falls back to weekdays.
func (c *Classifier) Preload(ctx context.Context, year int) error {
	if c.Loaded(year) {
		return nil
	}

	days, err := c.source.FetchYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to preload year %d: %w", year, err)
	}
	if len(days) != dateutil.DaysInYear(year) {
		return fmt.Errorf("failed to preload year %d: got %d days", year, len(days))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	date := dateutil.NewDate(year, time.January, 1)
	for _, t := range days {
		key := dateutil.Key(date)
		c.holidays[key] = t == DayHoliday
		c.short[key] = t == DayShortened
		date = date.AddDate(0, 0, 1)
	}
	c.years[year] = true

	c.logger.Info("Day types preloaded", zap.Int("year", year), zap.Int("days", len(days)))
	return nil
}

// Loaded reports whether year has been preloaded
func (c *Classifier) Loaded(year int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.years[year]
}

// Classify returns the day type without doing any I/O
func (c *Classifier) Classify(date time.Time) DayType {
	t, ok := c.cached(date)
	if !ok {
		return WeekdayType(date)
	}
	return t
}

// IsHoliday reports whether date is a holiday or weekend
func (c *Classifier) IsHoliday(date time.Time) bool {
	return c.Classify(date) == DayHoliday
}

// IsShortDay reports whether date is a shortened workday; false when unknown
func (c *Classifier) IsShortDay(date time.Time) bool {
	return c.Classify(date) == DayShortened
}

// Lookup classifies a single date, asking the source when the cache is cold.
// The answer is cached; source failures fall back to the weekday rule.
func (c *Classifier) Lookup(ctx context.Context, date time.Time) DayType {
	if t, ok := c.cached(date); ok {
		return t
	}

	t, err := c.source.FetchDay(ctx, date)
	if err != nil {
		c.logger.Warn("Day type lookup failed, using weekday rule",
			zap.String("date", dateutil.Key(date)),
			zap.Error(err))
		return WeekdayType(date)
	}

	key := dateutil.Key(date)
	c.mu.Lock()
	c.holidays[key] = t == DayHoliday
	c.short[key] = t == DayShortened
	c.mu.Unlock()

	return t
}

func (c *Classifier) cached(date time.Time) (DayType, bool) {
	key := dateutil.Key(date)

	c.mu.RLock()
	defer c.mu.RUnlock()

	holiday, ok := c.holidays[key]
	if !ok {
		return 0, false
	}
	switch {
	case holiday:
		return DayHoliday, true
	case c.short[key]:
		return DayShortened, true
	default:
		return DayOrdinary, true
	}
}
