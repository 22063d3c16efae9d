package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/api/middleware"
	"github.com/carrierwatch/carrierwatch/internal/api/models"
	"github.com/carrierwatch/carrierwatch/internal/api/response"
)

// AdminHandler serves authenticated operational actions.
type AdminHandler struct {
	service *aggregator.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *aggregator.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// ResetProvider handles POST /v1/admin/providers/{provider}/reset -
// drops the provider's scope state so classification starts clean.
func (h *AdminHandler) ResetProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	if name == "" {
		response.BadRequest(w, r, "provider is required")
		return
	}

	h.service.Reset(name)
	response.JSON(w, r, http.StatusOK, map[string]string{
		"provider": name,
		"status":   "reset",
	})
}

func problemFromErr(r *http.Request, err error) *models.Problem {
	p := models.NewInternalError(middleware.GetRequestID(r.Context()), err.Error())
	return p
}
