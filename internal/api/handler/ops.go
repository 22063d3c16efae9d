// Package handler provides HTTP handlers for the CarrierWatch
// aggregator API.
package handler

import (
	"net/http"

	"github.com/carrierwatch/carrierwatch/internal/api/models"
	"github.com/carrierwatch/carrierwatch/internal/api/response"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	ready     func() bool
}

// NewOpsHandler creates a new OpsHandler. The ready func reports
// whether the aggregator's dependencies are usable; nil means always
// ready.
func NewOpsHandler(version, buildTime string, ready func() bool) *OpsHandler {
	return &OpsHandler{version: version, buildTime: buildTime, ready: ready}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  "ok",
		Version: h.version,
		Details: map[string]any{"buildTime": h.buildTime},
	})
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		response.JSON(w, r, http.StatusServiceUnavailable, models.Health{Status: "unavailable"})
		return
	}
	response.JSON(w, r, http.StatusOK, models.Health{Status: "ok"})
}
