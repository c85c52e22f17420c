package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// GetArtistTopTracks fetches an artist's top tracks.
func (c *Client) GetArtistTopTracks(ctx context.Context, id string) ([]domain.Track, error) {
	reqURL := fmt.Sprintf("%s/artists/%s/top-tracks", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: top tracks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("catalog adapter: top tracks for %s: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog adapter: top tracks status %d", resp.StatusCode)
	}

	var body struct {
		Tracks []catalogTrack `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog adapter: top tracks decode error: %w", err)
	}

	tracks := make([]domain.Track, 0, len(body.Tracks))
	for _, ct := range body.Tracks {
		tracks = append(tracks, mapTrackToDomain(ct))
	}
	return tracks, nil
}

// SampleArtists returns up to limit artist ids sampled across the catalog.
func (c *Client) SampleArtists(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	reqURL, err := url.Parse(fmt.Sprintf("%s/artists/sample", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: invalid sample url: %w", err)
	}
	query := reqURL.Query()
	query.Set("limit", strconv.Itoa(limit))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: sample request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog adapter: sample status %d", resp.StatusCode)
	}

	var body struct {
		Artists []catalogArtist `json:"artists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog adapter: sample decode error: %w", err)
	}

	ids := make([]string, 0, len(body.Artists))
	for _, ca := range body.Artists {
		if ca.ID != "" {
			ids = append(ids, ca.ID)
		}
	}
	return ids, nil
}
