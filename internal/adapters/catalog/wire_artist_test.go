package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(http.DefaultClient, ts.URL, logger.NewNop()), ts
}

func TestClient_GetArtist(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/art-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "art-1",
			"name":       "Rock City",
			"genres":     []string{"rock", "indie rock"},
			"popularity": 64,
			"followers":  map[string]int{"total": 120000},
		})
	})

	got, err := client.GetArtist(context.Background(), "art-1")
	if err != nil {
		t.Fatalf("GetArtist: %v", err)
	}
	if got.ID != "art-1" || got.Name != "Rock City" {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if len(got.Genres) != 2 || got.Popularity != 64 || got.Followers != 120000 {
		t.Fatalf("unexpected profile fields: %+v", got)
	}
}

func TestClient_GetArtist_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetArtist(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected domain.ErrNotFound, got %v", err)
	}
}

func TestClient_GetSeveralArtists_SkipsNullEntries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "a,b,c" {
			t.Fatalf("unexpected ids param %q", got)
		}
		_, _ = w.Write([]byte(`{"artists":[{"id":"a","name":"A"},null,{"id":"c","name":"C"}]}`))
	})

	got, err := client.GetSeveralArtists(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetSeveralArtists: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected batch result: %+v", got)
	}
}

func TestClient_GetRelatedArtists(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/art-1/related-artists" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"artists":[{"id":"r1","name":"R1"},{"id":"r2","name":"R2"}]}`))
	})

	got, err := client.GetRelatedArtists(context.Background(), "art-1")
	if err != nil {
		t.Fatalf("GetRelatedArtists: %v", err)
	}
	if len(got) != 2 || got[0] != "r1" || got[1] != "r2" {
		t.Fatalf("unexpected related ids: %v", got)
	}
}

func TestClient_SearchArtist(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		items     string
		wantID    string
		wantErrIs error
	}{
		{
			name:   "picks best match above threshold",
			query:  "Indie Falls",
			items:  `[{"id":"x1","name":"Indie Falls"},{"id":"x2","name":"Indie Fells Tribute Orchestra"}]`,
			wantID: "x1",
		},
		{
			name:      "rejects weak matches",
			query:     "Indie Falls",
			items:     `[{"id":"x9","name":"Completely Different"}]`,
			wantErrIs: domain.ErrNotFound,
		},
		{
			name:      "empty result set",
			query:     "Indie Falls",
			items:     `[]`,
			wantErrIs: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Fatalf("unexpected path %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(`{"artists":{"items":` + tt.items + `}}`))
			})

			got, err := client.SearchArtist(context.Background(), tt.query)
			if tt.wantErrIs != nil {
				if !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("expected %v, got %v", tt.wantErrIs, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SearchArtist: %v", err)
			}
			if got.ID != tt.wantID {
				t.Fatalf("got artist %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestClient_GetArtistTopTracks(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/art-1/top-tracks" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"tracks":[
			{"id":"t1","name":"Song One","artists":[{"id":"art-1","name":"Rock City"}],"album":{"name":"First"},"duration_ms":201000},
			{"id":"t2","name":"Song Two","artists":[{"id":"art-1","name":"Rock City"}],"album":{"name":"Second"},"duration_ms":187000}
		]}`))
	})

	got, err := client.GetArtistTopTracks(context.Background(), "art-1")
	if err != nil {
		t.Fatalf("GetArtistTopTracks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(got))
	}
	if got[0].ID != "t1" || got[0].ArtistID != "art-1" || got[0].ArtistName != "Rock City" {
		t.Fatalf("unexpected track mapping: %+v", got[0])
	}
}

func TestClient_SampleArtists(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/sample" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "3" {
			t.Fatalf("unexpected limit %q", got)
		}
		_, _ = w.Write([]byte(`{"artists":[{"id":"s1"},{"id":"s2"},{"id":"s3"}]}`))
	})

	got, err := client.SampleArtists(context.Background(), 3)
	if err != nil {
		t.Fatalf("SampleArtists: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 ids, got %v", got)
	}
}
