package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripflow/flightfinder/internal/airports"
	"github.com/tripflow/flightfinder/internal/config"
	"github.com/tripflow/flightfinder/internal/nlq"
	"github.com/tripflow/flightfinder/internal/resolver"
	"github.com/tripflow/flightfinder/internal/search"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	searchService   *search.Service
	resolverService *resolver.Service
	table           *airports.Table
	config          *config.Config
	logger          *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(searchService *search.Service, resolverService *resolver.Service, table *airports.Table, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		searchService:   searchService,
		resolverService: resolverService,
		table:           table,
		config:          cfg,
		logger:          log.Named("api-handler"),
	}
}

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error   string           `json:"error"`
	Details *search.Response `json:"details,omitempty"`
}

// Search handles a natural-language flight search request.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a non-empty query field"})
		return
	}

	response, err := h.searchService.Search(r.Context(), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, nlq.ErrMissingFields):
			h.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		case errors.Is(err, search.ErrEndpointUnresolved):
			h.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Details: response})
		default:
			h.logger.Error("Search failed", logger.Error(err))
			h.respondJSON(w, http.StatusBadGateway, errorResponse{Error: "flight search failed"})
		}
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// ResolvePlace handles a single place-to-code resolution request.
func (h *Handler) ResolvePlace(w http.ResponseWriter, r *http.Request) {
	place := strings.TrimSpace(r.URL.Query().Get("place"))
	if place == "" {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "place query parameter is required"})
		return
	}

	result, err := h.resolverService.Resolve(r.Context(), place)
	if err != nil {
		if errors.Is(err, resolver.ErrUnresolved) {
			h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "place could not be resolved to an airport code"})
			return
		}
		h.logger.Error("Resolution failed", logger.String("place", place), logger.Error(err))
		h.respondJSON(w, http.StatusBadGateway, errorResponse{Error: "resolution failed"})
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetAirportByCode returns a single airport record from the dataset.
func (h *Handler) GetAirportByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	record, ok := h.table.Get(code)
	if !ok {
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "unknown airport code"})
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// PurgeCache drops all cached resolutions. Meant for operators after
// replacing the airport dataset.
func (h *Handler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if err := h.resolverService.PurgeCache(r.Context()); err != nil {
		h.logger.Error("Cache purge failed", logger.Error(err))
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "cache purge failed"})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// GetHealth returns service health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"airports": h.table.Len(),
	})
}

// GetConfig returns the non-secret parts of the running configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"resolver": map[string]any{
			"acceptance_threshold": h.config.Resolver.AcceptanceThreshold,
			"fuzzy_threshold":      h.config.Resolver.FuzzyThreshold,
			"search_radius_km":     h.config.Resolver.SearchRadiusKM,
		},
		"llm": map[string]any{
			"model": h.config.LLM.Model,
		},
		"flights": map[string]any{
			"currency":   h.config.Flights.Currency,
			"max_offers": h.config.Flights.MaxOffers,
		},
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}
