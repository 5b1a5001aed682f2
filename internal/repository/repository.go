// Package repository maps employees and vacation periods onto documents.
//
// Records are written with schemaVersion 2. Version 1 records (the owning
// employee stored as "userId") are migrated when read.
package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/username/vacation-calendar/internal/store"
	"github.com/username/vacation-calendar/pkg/dateutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	fieldAccountID     = "accountId"
	fieldEmployeeID    = "employeeId"
	fieldLegacyUserID  = "userId"
	fieldName          = "name"
	fieldColor         = "color"
	fieldStartDate     = "startDate"
	fieldEndDate       = "endDate"
	fieldCreatedAt     = "createdAt"
	fieldSchemaVersion = "schemaVersion"

	// maxParallelDeletes bounds concurrent delete calls of one batch
	maxParallelDeletes = 16
)

// sortByCreation orders documents by createdAt; documents without it keep
// their relative order and come first
func sortByCreation(docs []store.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := toTime(docs[i].Fields[fieldCreatedAt])
		b, _ := toTime(docs[j].Fields[fieldCreatedAt])
		return a.Before(b)
	})
}

// deleteAll issues one delete per document concurrently and waits for all.
// There is no atomicity: the first error is returned after every call finished.
func deleteAll(ctx context.Context, docs store.DocumentStore, collection string, ids []string) error {
	var g errgroup.Group
	g.SetLimit(maxParallelDeletes)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			return docs.Delete(ctx, collection, id)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, nil
		}
		return dateutil.ParseDate(t)
	case nil:
		return time.Time{}, fmt.Errorf("missing timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

// toDate converts a stored timestamp to a UTC midnight date.
// It rounds to the nearest midnight so records written as local midnight
// in a zone within 12 hours of UTC keep their calendar date.
func toDate(v any) (time.Time, error) {
	t, err := toTime(v)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.Date(t.UTC().Add(12 * time.Hour)), nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func idsOf(docs []store.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func logOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
