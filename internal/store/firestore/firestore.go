// Package firestore provides a DocumentStore on Cloud Firestore.
//
// Firestore does not keep insertion order; callers sort by a createdAt field.
// Deleting a missing document succeeds.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/username/vacation-calendar/internal/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store struct {
	client *firestore.Client
}

// New opens a Firestore client from an initialized Firebase app
func New(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	docs := make([]store.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, store.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]any(fields))
	if err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}

	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
