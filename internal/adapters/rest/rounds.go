package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/prep"
)

// playerState is one player's slice of the round request: the target they
// chose and, optionally, an explicit gravity override. When gravity is
// omitted the session's server-side value is used.
type playerState struct {
	Target  domain.ArtistRef `json:"target"`
	Gravity *float64         `json:"gravity,omitempty"`
}

type submitRoundRequest struct {
	SessionID      string                 `json:"sessionId"`
	SeedTrackID    string                 `json:"seedTrackId"`
	SeedArtistID   string                 `json:"seedArtistId"`
	PlayedTrackIDs []string               `json:"playedTrackIds,omitempty"`
	Round          int                    `json:"round"`
	ActivePlayer   string                 `json:"activePlayer"`
	Players        map[string]playerState `json:"players"`
}

func (r submitRoundRequest) toDomain(gravity domain.PlayerGravityMap) (domain.RoundRequest, error) {
	req := domain.RoundRequest{
		SessionID:      r.SessionID,
		SeedTrackID:    r.SeedTrackID,
		SeedArtistID:   r.SeedArtistID,
		PlayedTrackIDs: r.PlayedTrackIDs,
		Targets:        make(map[domain.Player]domain.ArtistRef, len(r.Players)),
		Round:          r.Round,
	}
	active, err := domain.ParsePlayer(r.ActivePlayer)
	if err != nil {
		return domain.RoundRequest{}, err
	}
	req.ActivePlayer = active

	for raw, state := range r.Players {
		player, err := domain.ParsePlayer(raw)
		if err != nil {
			return domain.RoundRequest{}, err
		}
		if !state.Target.IsZero() {
			req.Targets[player] = state.Target
		}
		if state.Gravity != nil {
			gravity = gravity.With(player, *state.Gravity)
		}
	}
	req.Gravity = gravity
	return req, req.Validate()
}

// SubmitRound handles POST /rounds.
func (h *Handler) SubmitRound(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var body submitRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := body.toDomain(h.gravity.Get(body.SessionID))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.orch.Submit(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, jobStatusCode(view), view)
}

// GetRoundJob handles GET /rounds/jobs/{id}.
func (h *Handler) GetRoundJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}
	view, err := h.orch.Lookup(id)
	if err != nil {
		if errors.Is(err, prep.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, jobStatusCode(view), view)
}

// jobStatusCode maps a prep view onto the HTTP status: warming jobs answer
// 202, everything else 200. A failed run is still a successful lookup; the
// failure lives in the view body.
func jobStatusCode(view prep.View) int {
	if view.Status == prep.StatusWarming {
		return http.StatusAccepted
	}
	return http.StatusOK
}
