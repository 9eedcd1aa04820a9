/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/spaces", func(r chi.Router) {
			r.Get("/", h.ListSpaces)
			r.Post("/", h.CreateSpace)
		})

		r.Route("/elements", func(r chi.Router) {
			r.Get("/", h.ListElements)
			r.Post("/", h.CreateElement)
			r.Get("/{id}", h.GetElement)
			r.Get("/{id}/condition", h.GetCondition)
			r.Post("/{id}/defects", h.CreateDefect)
			r.Delete("/{id}/defects/{defectID}", h.DeleteDefect)
			r.Put("/{id}/tasks/{taskID}/planned", h.UpdatePlannedWork)
		})

		r.Route("/taskgroups", func(r chi.Router) {
			r.Get("/", h.ListTaskGroups)
			r.Post("/generate", h.GenerateTaskGroups)
			r.Put("/{id}", h.EditTaskGroup)
			r.Delete("/{id}", h.DeleteTaskGroup)
		})

		r.Route("/offergroups", func(r chi.Router) {
			r.Get("/", h.ListOfferGroups)
			r.Put("/{id}", h.UpdateOfferGroup)
		})

		r.Get("/timeline", h.GetTimeline)

		r.Route("/general", func(r chi.Router) {
			r.Get("/", h.GetGeneral)
			r.Put("/", h.UpdateGeneral)
		})

		r.Post("/save", h.Save)
	})

	return r
}
