// Package rest is the HTTP boundary: request decoding and validation,
// status-code mapping, and nothing else. Round semantics live in the
// services and prep packages.
package rest

import (
	"net/http"

	"github.com/ewilliams-labs/undertow/internal/core/services"
	"github.com/ewilliams-labs/undertow/internal/logger"
	"github.com/ewilliams-labs/undertow/internal/prep"
)

// Handler manages the HTTP interface for the service.
type Handler struct {
	orch    *prep.Orchestrator
	gravity *services.GravityService
	log     *logger.Logger
	router  *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(orch *prep.Orchestrator, gravity *services.GravityService, log *logger.Logger) *Handler {
	h := &Handler{
		orch:    orch,
		gravity: gravity,
		log:     log.With("component", "rest"),
		router:  http.NewServeMux(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("POST /rounds", h.SubmitRound)
	h.router.HandleFunc("GET /rounds/jobs/{id}", h.GetRoundJob)
	h.router.HandleFunc("GET /sessions/{id}/gravity", h.GetGravity)
	h.router.HandleFunc("POST /sessions/{id}/gravity", h.CommitGravity)
	h.router.HandleFunc("POST /sessions/{id}/gravity/reset", h.ResetGravity)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
