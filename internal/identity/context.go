package identity

import (
	"context"

	"github.com/username/vacation-calendar/internal/models"
)

type contextKey struct{}

// WithIdentity attaches the authenticated identity to ctx
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the current identity, or nil when signed out
func FromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(contextKey{}).(*models.Identity)
	return id
}
