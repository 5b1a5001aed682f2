package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/pkg/dateutil"
)

func calendarCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the yearly grid with holidays (*) and shortened days (~)",
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := calendar.NewClassifier(newDayTypeSource(cfg.Calendar), logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Calendar.GetTimeout())
			defer cancel()
			if err := classifier.Preload(ctx, year); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v; weekends only\n", err)
			}

			printYear(os.Stdout, year, classifier)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Calendar year")

	return cmd
}

func preloadCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Fetch day types for a year and print counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Calendar.GetTimeout())
			defer cancel()

			days, err := newDayTypeSource(cfg.Calendar).FetchYear(ctx, year)
			if err != nil {
				return fmt.Errorf("failed to fetch %d: %w", year, err)
			}

			s := calendar.Summarize(year, days)
			fmt.Printf("Year %d: %d days\n", s.Year, s.Days)
			fmt.Printf("  Working days:    %d\n", s.Ordinary+s.Shortened)
			fmt.Printf("  Non-working:     %d\n", s.Holidays)
			fmt.Printf("  Shortened days:  %d\n", s.Shortened)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Calendar year")

	return cmd
}

const weekdayHeader = "  Mo  Tu  We  Th  Fr  Sa  Su"

func printYear(w io.Writer, year int, classifier *calendar.Classifier) {
	for _, m := range calendar.GenerateYear(year) {
		fmt.Fprintf(w, "\n%s %d\n%s\n", m.Month, m.Year, weekdayHeader)
		for _, week := range m.Weeks() {
			var line strings.Builder
			for _, d := range week {
				if d.IsZero() {
					line.WriteString("    ")
					continue
				}
				line.WriteString(fmt.Sprintf(" %2d%s", d.Day(), dayMarker(classifier.Classify(d))))
			}
			fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
		}
	}
	fmt.Fprintf(w, "\n* holiday or weekend, ~ shortened day (generated %s)\n", dateutil.FormatRU(dateutil.Today()))
}

func dayMarker(t calendar.DayType) string {
	switch t {
	case calendar.DayHoliday:
		return "*"
	case calendar.DayShortened:
		return "~"
	default:
		return " "
	}
}
