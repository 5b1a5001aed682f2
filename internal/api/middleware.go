package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/vacation-calendar/internal/identity"
	"go.uber.org/zap"
)

// requestLogger logs one line per request with the chi request id
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// parseBearer returns the token of an "Authorization: Bearer" header.
// A missing header yields an empty token and no error.
func parseBearer(header http.Header) (string, error) {
	authorization := header.Get("Authorization")
	if authorization == "" {
		return "", nil
	}

	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("malformed authorization header: %w", identity.ErrUnauthenticated)
	}
	return strings.TrimSpace(token), nil
}

// authenticate resolves the bearer token and stores the identity in the context
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := parseBearer(r.Header)
		if err == nil && token == "" {
			err = identity.ErrUnauthenticated
		}
		if err != nil {
			h.fail(w, r, err, http.StatusUnauthorized)
			return
		}

		id, err := h.auth.Verify(r.Context(), token)
		if err != nil {
			h.fail(w, r, err, http.StatusUnauthorized)
			return
		}

		if id.Token == "" {
			verified := *id
			verified.Token = token
			id = &verified
		}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}
