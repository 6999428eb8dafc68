package api

import (
	"encoding/json"
	"net/http"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/api/handlers"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/api/middleware"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Server, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/capabilities", h.Capabilities)

		r.Route("/context/{userID}", func(r chi.Router) {
			r.Get("/", h.GetContext)
			r.Put("/", h.PutContext)
			r.Get("/history", h.GetHistory)
		})
	})

	// A2A agent-to-agent protocol endpoint
	r.Post("/a2a", h.A2AEndpoint)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "maps-chat-control-plane",
	})
}

func versionHandler(cfg *config.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "maps-chat-control-plane",
		})
	}
}
