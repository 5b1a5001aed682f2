// Package store defines the collection-scoped document store used for
// employees, vacations and local accounts.
package store

import (
	"context"
	"errors"
)

// Collection names
const (
	Employees = "employees"
	Vacations = "vacations"
	Accounts  = "accounts"
)

var ErrNotFound = errors.New("document not found")

// Fields is the body of a document
type Fields map[string]any

// Document is a stored record with its store-assigned id
type Document struct {
	ID     string
	Fields Fields
}

// Filter is an equality predicate on a top-level field
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// DocumentStore is the persistence boundary.
// Query returns documents matching every filter.
type DocumentStore interface {
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// Matches reports whether fields satisfy all filters.
// Values are compared after normalizing numeric types.
func Matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || !equal(v, f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
