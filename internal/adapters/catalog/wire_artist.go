package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// searchMatchThreshold is the minimum name similarity a search hit must
// reach to be accepted as the requested artist.
const searchMatchThreshold = 0.8

// GetArtist fetches one artist profile by id.
func (c *Client) GetArtist(ctx context.Context, id string) (domain.ArtistProfile, error) {
	reqURL := fmt.Sprintf("%s/artists/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: artist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: artist %s: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: artist status %d", resp.StatusCode)
	}

	var ca catalogArtist
	if err := json.NewDecoder(resp.Body).Decode(&ca); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: artist decode error: %w", err)
	}

	return mapArtistToDomain(ca), nil
}

// GetSeveralArtists fetches a batch of artist profiles in one request. Ids
// unknown to the catalog are omitted from the result.
func (c *Client) GetSeveralArtists(ctx context.Context, ids []string) ([]domain.ArtistProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	reqURL, err := url.Parse(fmt.Sprintf("%s/artists", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: invalid artists url: %w", err)
	}
	query := reqURL.Query()
	query.Set("ids", strings.Join(ids, ","))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: artists request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog adapter: artists status %d", resp.StatusCode)
	}

	var body struct {
		Artists []*catalogArtist `json:"artists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog adapter: artists decode error: %w", err)
	}

	profiles := make([]domain.ArtistProfile, 0, len(body.Artists))
	for _, ca := range body.Artists {
		// The catalog returns null entries for unknown ids.
		if ca == nil || ca.ID == "" {
			continue
		}
		profiles = append(profiles, mapArtistToDomain(*ca))
	}
	return profiles, nil
}

// GetRelatedArtists returns the ids of artists related to the given one.
func (c *Client) GetRelatedArtists(ctx context.Context, id string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/artists/%s/related-artists", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: related request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("catalog adapter: related for %s: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog adapter: related status %d", resp.StatusCode)
	}

	var body struct {
		Artists []catalogArtist `json:"artists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog adapter: related decode error: %w", err)
	}

	ids := make([]string, 0, len(body.Artists))
	for _, ca := range body.Artists {
		if ca.ID != "" {
			ids = append(ids, ca.ID)
		}
	}
	return ids, nil
}

// SearchArtist resolves an artist name to its best-matching profile. The
// winner must clear the similarity threshold against the requested name;
// otherwise the search reports not-found rather than guessing.
func (c *Client) SearchArtist(ctx context.Context, name string) (domain.ArtistProfile, error) {
	searchURL, err := url.Parse(fmt.Sprintf("%s/search", c.baseURL))
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: invalid search url: %w", err)
	}

	query := searchURL.Query()
	query.Set("q", name)
	query.Set("type", "artist")
	query.Set("limit", "5")
	searchURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: failed to create search request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: search status %d", resp.StatusCode)
	}

	var searchBody struct {
		Artists struct {
			Items []catalogArtist `json:"items"`
		} `json:"artists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchBody); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: search decode error: %w", err)
	}

	wanted := normalizeArtistName(name)
	bestScore := 0.0
	var best *catalogArtist
	for i := range searchBody.Artists.Items {
		item := &searchBody.Artists.Items[i]
		score := nameSimilarity(wanted, normalizeArtistName(item.Name))
		if score > bestScore {
			bestScore = score
			best = item
		}
	}

	if best == nil || bestScore < searchMatchThreshold {
		return domain.ArtistProfile{}, fmt.Errorf("catalog adapter: no artist matching %q: %w", name, domain.ErrNotFound)
	}

	return mapArtistToDomain(*best), nil
}
