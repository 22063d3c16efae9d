package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/api/response"
)

// defaultHistoryLimit bounds history queries without an explicit limit.
const defaultHistoryLimit = 50

// ProvidersHandler serves the aggregator's current assessments and
// scope history.
type ProvidersHandler struct {
	service *aggregator.Service
}

// NewProvidersHandler creates a new ProvidersHandler.
func NewProvidersHandler(service *aggregator.Service) *ProvidersHandler {
	return &ProvidersHandler{service: service}
}

// List handles GET /v1/providers - all current assessments.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]any{
		"providers": h.service.Snapshot(),
	})
}

// Get handles GET /v1/providers/{provider} - one assessment.
func (h *ProvidersHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	assessment, ok := h.service.Get(name)
	if !ok {
		response.NotFound(w, r, "no assessment for provider")
		return
	}
	response.JSON(w, r, http.StatusOK, assessment)
}

// History handles GET /v1/providers/{provider}/history - recorded scope
// events, newest first.
func (h *ProvidersHandler) History(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.service.History(r.Context(), name, limit)
	if err != nil {
		response.Error(w, r, problemFromErr(r, err))
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"provider": name,
		"events":   events,
	})
}
