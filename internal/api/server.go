// Package api exposes the board of the signed-in account as a JSON API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
// Everything under /api except register and login needs a bearer token.
func NewRouter(h *Handler, allowedOrigins []string, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)

			r.Get("/board", h.GetBoard)
			r.Post("/board/reload", h.ReloadBoard)
			r.Get("/calendar/{year}", h.GetCalendar)
			r.Get("/days/{date}", h.GetDay)

			r.Route("/employees", func(r chi.Router) {
				r.Post("/", h.AddEmployee)
				r.Post("/draft", h.SetDraft)
				r.Delete("/draft", h.CancelDraft)
				r.Patch("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
				r.Post("/{id}/select", h.SelectEmployee)
				r.Delete("/{id}/vacations", h.DeleteEmployeeVacations)
			})

			r.Route("/selection", func(r chi.Router) {
				r.Post("/day", h.ClickDay)
				r.Post("/hover", h.HoverDay)
				r.Post("/leave", h.LeaveCalendar)
				r.Post("/cancel", h.CancelSelection)
				r.Post("/outside", h.ClickOutside)
				r.Post("/segment", h.ClickSegment)
				r.Delete("/vacation", h.DeleteSelectedVacation)
			})

			r.Post("/reset", h.ResetAll)
		})
	})

	return r
}

// NewServer wraps the router in an http.Server
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
