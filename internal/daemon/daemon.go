// Package daemon keeps the day-type cache warm on a daily schedule.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a preload is triggered while one is active
var ErrAlreadyRunning = errors.New("preload already in progress")

// Preloader fills the day-type cache for a year; *calendar.Classifier implements it
type Preloader interface {
	Preload(ctx context.Context, year int) error
}

// Daemon runs the preload once at start and then daily at a fixed time
type Daemon struct {
	preloader   Preloader
	dailyHour   int
	dailyMinute int
	location    *time.Location
	logger      *zap.Logger
	tick        time.Duration
	now         func() time.Time

	mu          sync.Mutex
	running     bool
	lastRunDate string
	lastRunTime time.Time
}

// New creates a daemon that preloads at dailyHour:dailyMinute in loc
func New(preloader Preloader, dailyHour, dailyMinute int, loc *time.Location, logger *zap.Logger) *Daemon {
	if loc == nil {
		loc = time.Local
	}
	return &Daemon{
		preloader:   preloader,
		dailyHour:   dailyHour,
		dailyMinute: dailyMinute,
		location:    loc,
		logger:      logger,
		tick:        time.Minute,
		now:         time.Now,
	}
}

// Run blocks until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("Preloader started",
		zap.Int("daily_hour", d.dailyHour),
		zap.Int("daily_minute", d.dailyMinute),
		zap.String("timezone", d.location.String()))

	// warm the cache right away so the first board load is classified
	if err := d.RunOnce(ctx); err != nil {
		d.logger.Error("Initial preload failed", zap.Error(err))
	}

	d.logger.Info("Next preload scheduled", zap.Time("next_run", d.NextRun()))

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Preloader stopped")
			return nil

		case <-ticker.C:
			now := d.now()
			if !d.shouldRunAt(now) || d.ranOn(now) {
				continue
			}

			d.logger.Info("Starting scheduled preload", zap.Time("time", now))
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("Scheduled preload failed", zap.Error(err))
				continue
			}
			d.logger.Info("Next preload scheduled", zap.Time("next_run", d.NextRun()))
		}
	}
}

// RunOnce preloads every year that may be viewed soon.
// All years are attempted; the first failure is returned.
func (d *Daemon) RunOnce(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	now := d.now().In(d.location)

	var firstErr error
	for _, year := range YearsToPreload(now) {
		if err := d.preloader.Preload(ctx, year); err != nil {
			d.logger.Warn("Year preload failed", zap.Int("year", year), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("preload %d: %w", year, err)
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}

	d.mu.Lock()
	d.lastRunDate = now.Format(dateutil.ISODate)
	d.lastRunTime = now
	d.mu.Unlock()

	d.logger.Info("Preload completed", zap.Time("time", now))
	return nil
}

// LastRun returns the time of the last successful preload
func (d *Daemon) LastRun() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRunTime
}

// NextRun calculates the next scheduled run time
func (d *Daemon) NextRun() time.Time {
	now := d.now().In(d.location)

	today := time.Date(now.Year(), now.Month(), now.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, d.location)

	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// YearsToPreload returns the current year, plus the next one in December
func YearsToPreload(now time.Time) []int {
	years := []int{now.Year()}
	if now.Month() == time.December {
		years = append(years, now.Year()+1)
	}
	return years
}

func (d *Daemon) shouldRunAt(now time.Time) bool {
	local := now.In(d.location)
	return local.Hour() == d.dailyHour && local.Minute() == d.dailyMinute
}

func (d *Daemon) ranOn(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRunDate == now.In(d.location).Format(dateutil.ISODate)
}
