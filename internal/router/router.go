package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"interrogame-backend/internal/handlers"
	"interrogame-backend/internal/middleware"
)

// New builds the HTTP surface. chatLimiter may be nil to disable rate
// limiting on the chat endpoint.
func New(
	chatHandler *handlers.ChatHandler,
	chatLimiter func(http.Handler) http.Handler,
	cors middleware.CORSOptions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cors))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Get("/models", chatHandler.ListModels)

		r.Group(func(r chi.Router) {
			if chatLimiter != nil {
				r.Use(chatLimiter)
			}
			r.Post("/chat", chatHandler.Chat)
		})
	})

	return r
}
