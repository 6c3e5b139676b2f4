package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripflow/flightfinder/internal/airports"
	"github.com/tripflow/flightfinder/internal/config"
	"github.com/tripflow/flightfinder/internal/resolver"
	"github.com/tripflow/flightfinder/internal/search"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(searchService *search.Service, resolverService *resolver.Service, table *airports.Table, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(searchService, resolverService, table, cfg, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Natural-language flight search
		router.Post("/search", r.handler.Search)

		// Airport-code resolution
		router.Get("/resolve", r.handler.ResolvePlace)

		// Airport dataset
		router.Get("/airports/{code}", r.handler.GetAirportByCode)

		// Resolution cache maintenance, for dataset refreshes
		router.Post("/cache/purge", r.handler.PurgeCache)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	return router
}
