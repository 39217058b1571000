package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saral/aadhaar-pulse/internal/config"
)

// SetupRoutes configures the router and all API routes.
func SetupRoutes(cfg config.ServerConfig, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/import/{dataType}", h.ImportCSV)

		r.Get("/states", h.ListStates)
		r.Get("/states/{state}", h.GetState)
		r.Get("/monthly", h.ListMonthly)
		r.Get("/summary", h.GetSummary)

		r.Post("/insights/narrative", h.GenerateNarrative)
		r.Post("/datagov/sync", h.SyncDataGov)
	})

	return r
}
