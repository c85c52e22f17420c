package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/core/services"
	"github.com/ewilliams-labs/undertow/internal/logger"
	"github.com/ewilliams-labs/undertow/internal/prep"
)

// instantRunner resolves every round immediately.
type instantRunner struct {
	result *domain.RoundResult
}

func (r *instantRunner) Run(_ context.Context, _ domain.RoundRequest) (*domain.RoundResult, error) {
	return r.result, nil
}

// stalledRunner never finishes inside the sync window.
type stalledRunner struct{}

func (stalledRunner) Run(ctx context.Context, _ domain.RoundRequest) (*domain.RoundResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestHandler(t *testing.T, runner prep.Runner, syncWait time.Duration) *Handler {
	t.Helper()
	log := logger.NewNop()
	store := prep.NewStore(time.Minute, log)
	orch := prep.NewOrchestrator(context.Background(), store, runner, prep.Config{
		TTL:        time.Minute,
		SyncWait:   syncWait,
		RunTimeout: 5 * time.Second,
		Sweep:      time.Minute,
	}, log)
	gravity := services.NewGravityService(domain.DefaultGravityConfig(), log)
	return NewHandler(orch, gravity, log)
}

func roundBody() string {
	return `{
		"sessionId": "session-1",
		"seedTrackId": "track-1",
		"seedArtistId": "artist-1",
		"round": 2,
		"activePlayer": "player1",
		"players": {
			"player1": {"target": {"id": "target-1"}},
			"player2": {"target": {"name": "Some Band"}}
		}
	}`
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t, &instantRunner{result: &domain.RoundResult{}}, time.Second)
	rec := get(h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSubmitRoundReady(t *testing.T) {
	h := newTestHandler(t, &instantRunner{result: &domain.RoundResult{PoolSize: 120}}, time.Second)
	rec := postJSON(h, "/rounds", roundBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a ready round: %s", rec.Code, rec.Body.String())
	}

	var view prep.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Status != prep.StatusReady {
		t.Errorf("status = %s, want ready", view.Status)
	}
	if view.Payload == nil || view.Payload.PoolSize != 120 {
		t.Errorf("payload = %+v, want the pipeline result", view.Payload)
	}
	if view.JobID == "" {
		t.Error("response missing jobId")
	}
}

func TestSubmitRoundWarmingAndPoll(t *testing.T) {
	h := newTestHandler(t, stalledRunner{}, 10*time.Millisecond)
	rec := postJSON(h, "/rounds", roundBody())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 for a warming round", rec.Code)
	}

	var view prep.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Status != prep.StatusWarming || view.Payload != nil {
		t.Errorf("view = %+v, want warming without payload", view)
	}

	poll := get(h, "/rounds/jobs/"+view.JobID)
	if poll.Code != http.StatusAccepted {
		t.Errorf("poll status = %d, want 202 while warming", poll.Code)
	}
}

func TestSubmitRoundValidation(t *testing.T) {
	h := newTestHandler(t, &instantRunner{result: &domain.RoundResult{}}, time.Second)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing seed track", `{"sessionId":"s","seedArtistId":"a","activePlayer":"player1"}`, http.StatusBadRequest},
		{"bad active player", `{"sessionId":"s","seedTrackId":"t","seedArtistId":"a","activePlayer":"player9"}`, http.StatusBadRequest},
		{"malformed json", `{nope`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(h, "/rounds", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/rounds", strings.NewReader(roundBody()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d without a content type, want 415", rec.Code)
	}
}

func TestGetRoundJobNotFound(t *testing.T) {
	h := newTestHandler(t, &instantRunner{result: &domain.RoundResult{}}, time.Second)
	rec := get(h, "/rounds/jobs/no-such-job")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGravityEndpoints(t *testing.T) {
	h := newTestHandler(t, &instantRunner{result: &domain.RoundResult{}}, time.Second)

	rec := get(h, "/sessions/s1/gravity")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var resp gravityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Gravity.Player1 != 0.30 {
		t.Errorf("initial gravity = %f, want 0.30", resp.Gravity.Player1)
	}

	rec = postJSON(h, "/sessions/s1/gravity", `{"player":"player1","category":"CLOSER"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("commit status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := resp.Gravity.Player1 - 0.35; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("gravity after commit = %f, want 0.35", resp.Gravity.Player1)
	}

	// Enough committed CLOSER turns pushes the player into the warning zone.
	for i := 0; i < 5; i++ {
		rec = postJSON(h, "/sessions/s1/gravity", `{"player":"player1","category":"CLOSER"}`)
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Vicinity {
		t.Errorf("vicinity flag = false at gravity %f", resp.Gravity.Player1)
	}

	rec = postJSON(h, "/sessions/s1/gravity", `{"player":"player1","category":"SIDEWAYS"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad category status = %d, want 400", rec.Code)
	}

	rec = postJSON(h, "/sessions/s1/gravity/reset", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Gravity.Player1 != 0.30 {
		t.Errorf("gravity after reset = %f, want 0.30", resp.Gravity.Player1)
	}
}
