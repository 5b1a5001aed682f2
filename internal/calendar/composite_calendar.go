package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// NamedSource labels a Source for logging
type NamedSource struct {
	Name   string
	Source Source
}

// CompositeSource implements Source with a fallback strategy:
// sources are tried in order and the first success wins.
type CompositeSource struct {
	sources []NamedSource
	logger  *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(logger *zap.Logger, sources ...NamedSource) *CompositeSource {
	return &CompositeSource{
		sources: sources,
		logger:  logger,
	}
}

// FetchYear tries each source in order
func (cc *CompositeSource) FetchYear(ctx context.Context, year int) ([]DayType, error) {
	var errs []error
	for _, s := range cc.sources {
		days, err := s.Source.FetchYear(ctx, year)
		if err == nil {
			return days, nil
		}

		cc.logger.Warn("Calendar source failed, falling back",
			zap.String("source", s.Name),
			zap.Int("year", year),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	return nil, fmt.Errorf("all calendar sources failed: %w", errors.Join(errs...))
}

// FetchDay tries each source in order
func (cc *CompositeSource) FetchDay(ctx context.Context, date time.Time) (DayType, error) {
	var errs []error
	for _, s := range cc.sources {
		dayType, err := s.Source.FetchDay(ctx, date)
		if err == nil {
			return dayType, nil
		}

		cc.logger.Warn("Calendar source failed, falling back",
			zap.String("source", s.Name),
			zap.Time("date", date),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	return 0, fmt.Errorf("all calendar sources failed: %w", errors.Join(errs...))
}
