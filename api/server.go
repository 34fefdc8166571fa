/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests for frontend
  5. RequireAuth: Bearer-token verification (protected routes only)

ROUTE GROUPS:
  /api/auth/*       Registration and login (public)
  /api/fuelups/*    Fuel purchase records (authenticated)
  /api/users/*      Account management (authenticated)

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Bearer-token middleware
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
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		// Everything below requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.Tokens))

			r.Route("/fuelups", func(r chi.Router) {
				r.Post("/", h.CreateFuelUp)
				r.Put("/{id}", h.UpdateFuelUp)
				r.Delete("/{id}", h.DeleteFuelUp)
				r.Get("/user/{userId}", h.ListFuelUps)
				r.Get("/user/{userId}/range", h.ListFuelUpsInRange)
				r.Get("/user/{userId}/statistics", h.GetStatistics)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/{userId}", h.GetUser)
				r.Delete("/{userId}", h.DeleteUser)
			})
		})
	})

	return r
}
