package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

type commitGravityRequest struct {
	Player   string `json:"player"`
	Category string `json:"category"`
}

type gravityResponse struct {
	SessionID string                  `json:"sessionId"`
	Gravity   domain.PlayerGravityMap `json:"gravity"`
	Vicinity  bool                    `json:"vicinity"`
}

// GetGravity handles GET /sessions/{id}/gravity.
func (h *Handler) GetGravity(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}
	writeJSON(w, http.StatusOK, gravityResponse{
		SessionID: sessionID,
		Gravity:   h.gravity.Get(sessionID),
	})
}

// CommitGravity handles POST /sessions/{id}/gravity, the once-per-turn
// gravity update for a committed choice.
func (h *Handler) CommitGravity(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var body commitGravityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player := domain.Player(body.Player)
	updated, err := h.gravity.Commit(sessionID, player, domain.Category(body.Category))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gravityResponse{
		SessionID: sessionID,
		Gravity:   updated,
		Vicinity:  h.gravity.InVicinity(sessionID, player),
	})
}

// ResetGravity handles POST /sessions/{id}/gravity/reset, called at game
// start.
func (h *Handler) ResetGravity(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}
	writeJSON(w, http.StatusOK, gravityResponse{
		SessionID: sessionID,
		Gravity:   h.gravity.Reset(sessionID),
	})
}
