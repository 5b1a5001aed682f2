/*
Package sqlite provides a SQLite-backed DocumentStore.

Every document lives in one table as a JSON body next to its collection
name. Equality filters are evaluated with json_extract, and results come
back in insertion order (the autoincrement seq column).

USAGE:

	docs, err := sqlite.New("./data/vacations.db")
	if err != nil {
		return err
	}
	defer docs.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/username/vacation-calendar/internal/store"
)

// field names end up inside a JSON path, so only plain identifiers are allowed
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements store.DocumentStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a second connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		body TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection
		ON documents(collection, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	query := `SELECT id, body FROM documents WHERE collection = ?`
	args := []any{collection}
	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		value, err := jsonValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid filter value for %s: %w", f.Field, err)
		}
		query += ` AND json_extract(body, ?) = ?`
		args = append(args, "$."+f.Field, value)
	}
	query += ` ORDER BY seq`

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var fields store.Fields
		if err := json.Unmarshal([]byte(body), &fields); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		docs = append(docs, store.Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

func (s *Store) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body) VALUES (?, ?, ?)`,
		id, collection, string(body))
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

// Update merges fields into the stored body
func (s *Store) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}

	var current store.Fields
	if err := json.Unmarshal([]byte(body), &current); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	for k, v := range fields {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`,
		string(merged), collection, id); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

// jsonValue converts v to the value json_extract yields for it
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if flag, ok := out.(bool); ok {
		if flag {
			return 1, nil
		}
		return 0, nil
	}
	return out, nil
}
