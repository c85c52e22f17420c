package cache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/core/ports"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// stats counts tier outcomes. Read via Snapshot for diagnostics.
type stats struct {
	memoryHits  atomic.Int64
	storeHits   atomic.Int64
	catalogHits atomic.Int64
	misses      atomic.Int64
}

func (s *stats) snapshot() domain.CacheStats {
	return domain.CacheStats{
		MemoryHits:  s.memoryHits.Load(),
		StoreHits:   s.storeHits.Load(),
		CatalogHits: s.catalogHits.Load(),
		Misses:      s.misses.Load(),
	}
}

// Tiered is the read-through cache over artist profiles, related-artist
// lists, and top-track lists. Lookups fall through memory, then the
// persistent store, then the catalog API, writing results back to the faster
// tiers. A miss across all tiers returns absent and enqueues a self-healing
// backfill task; it never fails the caller.
type Tiered struct {
	store   ports.CatalogStore
	catalog ports.CatalogProvider
	healer  ports.Healer
	log     *logger.Logger

	profiles  *Memory[domain.ArtistProfile]
	related   *Memory[[]string]
	topTracks *Memory[[]domain.Track]
	searches  *Memory[domain.ArtistProfile]

	storeTTL time.Duration
	stats    stats
}

// NewTiered wires the three tiers together. memoryTTL bounds the in-process
// tier; storeTTL is the staleness horizon for rows in the persistent store.
func NewTiered(store ports.CatalogStore, catalog ports.CatalogProvider, healer ports.Healer, log *logger.Logger, memoryTTL, storeTTL time.Duration) *Tiered {
	if healer == nil {
		healer = ports.NopHealer{}
	}
	return &Tiered{
		store:     store,
		catalog:   catalog,
		healer:    healer,
		log:       log.With("component", "tiered-cache"),
		profiles:  NewMemory[domain.ArtistProfile](memoryTTL),
		related:   NewMemory[[]string](memoryTTL),
		topTracks: NewMemory[[]domain.Track](memoryTTL),
		searches:  NewMemory[domain.ArtistProfile](memoryTTL),
		storeTTL:  storeTTL,
	}
}

// Stats returns a snapshot of tier hit/miss counters.
func (t *Tiered) Stats() domain.CacheStats {
	return t.stats.snapshot()
}

func (t *Tiered) fresh(storedAt time.Time) bool {
	return !storedAt.IsZero() && time.Since(storedAt) < t.storeTTL
}

func (t *Tiered) heal(kind ports.BackfillKind, artistID, reason string) {
	if !t.healer.Enqueue(ports.BackfillTask{Kind: kind, ArtistID: artistID, Reason: reason}) {
		t.log.Warn("backfill task dropped", "kind", kind, "artist_id", artistID, "reason", reason)
	}
}

// ArtistProfile looks up one artist profile. The second return is false when
// the profile is absent from every tier.
func (t *Tiered) ArtistProfile(ctx context.Context, id string) (domain.ArtistProfile, bool) {
	if id == "" {
		return domain.ArtistProfile{}, false
	}
	if p, ok := t.profiles.Get(id); ok {
		t.stats.memoryHits.Add(1)
		return p, true
	}

	stored, storeErr := t.store.GetArtistProfile(ctx, id)
	if storeErr == nil && t.fresh(stored.FetchedAt) {
		t.stats.storeHits.Add(1)
		t.profiles.Set(id, stored)
		return stored, true
	}
	if storeErr != nil && !errors.Is(storeErr, domain.ErrNotFound) {
		t.log.Warn("store read failed", "kind", "artist-profile", "artist_id", id, "error", storeErr)
	}

	fetched, catalogErr := t.catalog.GetArtist(ctx, id)
	if catalogErr == nil {
		t.stats.catalogHits.Add(1)
		fetched.FetchedAt = time.Now()
		t.writeBackProfile(ctx, fetched)
		return fetched, true
	}

	// Stale store data beats nothing when the catalog is unavailable.
	if storeErr == nil {
		t.stats.storeHits.Add(1)
		t.log.Warn("serving stale profile, catalog unavailable", "artist_id", id, "error", catalogErr)
		t.profiles.Set(id, stored)
		return stored, true
	}

	t.stats.misses.Add(1)
	t.heal(ports.BackfillArtistProfile, id, missReason(catalogErr))
	return domain.ArtistProfile{}, false
}

// SeveralArtistProfiles resolves a batch of ids, serving what it can from
// the fast tiers and fetching the remainder from the catalog in one call.
// Ids absent everywhere are dropped from the result and queued for healing.
func (t *Tiered) SeveralArtistProfiles(ctx context.Context, ids []string) map[string]domain.ArtistProfile {
	out := make(map[string]domain.ArtistProfile, len(ids))
	var remainder []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if p, ok := t.profiles.Get(id); ok {
			t.stats.memoryHits.Add(1)
			out[id] = p
			continue
		}
		if stored, err := t.store.GetArtistProfile(ctx, id); err == nil && t.fresh(stored.FetchedAt) {
			t.stats.storeHits.Add(1)
			t.profiles.Set(id, stored)
			out[id] = stored
			continue
		}
		remainder = append(remainder, id)
	}
	if len(remainder) == 0 {
		return out
	}

	fetched, err := t.catalog.GetSeveralArtists(ctx, remainder)
	if err != nil {
		t.log.Warn("batch profile fetch failed", "count", len(remainder), "error", err)
		for _, id := range remainder {
			t.stats.misses.Add(1)
			t.heal(ports.BackfillArtistProfile, id, missReason(err))
		}
		return out
	}
	now := time.Now()
	for _, p := range fetched {
		t.stats.catalogHits.Add(1)
		p.FetchedAt = now
		t.writeBackProfile(ctx, p)
		out[p.ID] = p
	}
	for _, id := range remainder {
		if _, ok := out[id]; !ok {
			t.stats.misses.Add(1)
			t.heal(ports.BackfillArtistProfile, id, "absent-from-catalog")
		}
	}
	return out
}

// RelatedArtists returns the related-artist ids for an artist.
func (t *Tiered) RelatedArtists(ctx context.Context, id string) ([]string, bool) {
	if id == "" {
		return nil, false
	}
	if ids, ok := t.related.Get(id); ok {
		t.stats.memoryHits.Add(1)
		return ids, true
	}

	stored, storedAt, storeErr := t.store.GetRelatedIDs(ctx, id)
	if storeErr == nil && t.fresh(storedAt) {
		t.stats.storeHits.Add(1)
		t.related.Set(id, stored)
		return stored, true
	}
	if storeErr != nil && !errors.Is(storeErr, domain.ErrNotFound) {
		t.log.Warn("store read failed", "kind", "related-artists", "artist_id", id, "error", storeErr)
	}

	fetched, catalogErr := t.catalog.GetRelatedArtists(ctx, id)
	if catalogErr == nil {
		t.stats.catalogHits.Add(1)
		t.related.Set(id, fetched)
		if err := t.store.SaveRelatedIDs(ctx, id, fetched); err != nil {
			t.log.Warn("store write failed", "kind", "related-artists", "artist_id", id, "error", err)
		}
		return fetched, true
	}

	if storeErr == nil {
		t.stats.storeHits.Add(1)
		t.related.Set(id, stored)
		return stored, true
	}

	t.stats.misses.Add(1)
	t.heal(ports.BackfillRelatedArtists, id, missReason(catalogErr))
	return nil, false
}

// TopTracks returns the top-track list for an artist.
func (t *Tiered) TopTracks(ctx context.Context, id string) ([]domain.Track, bool) {
	if id == "" {
		return nil, false
	}
	if tracks, ok := t.topTracks.Get(id); ok {
		t.stats.memoryHits.Add(1)
		return tracks, true
	}

	stored, storedAt, storeErr := t.store.GetTopTracks(ctx, id)
	if storeErr == nil && t.fresh(storedAt) {
		t.stats.storeHits.Add(1)
		t.topTracks.Set(id, stored)
		return stored, true
	}
	if storeErr != nil && !errors.Is(storeErr, domain.ErrNotFound) {
		t.log.Warn("store read failed", "kind", "top-tracks", "artist_id", id, "error", storeErr)
	}

	fetched, catalogErr := t.catalog.GetArtistTopTracks(ctx, id)
	if catalogErr == nil {
		t.stats.catalogHits.Add(1)
		t.topTracks.Set(id, fetched)
		if err := t.store.SaveTopTracks(ctx, id, fetched); err != nil {
			t.log.Warn("store write failed", "kind", "top-tracks", "artist_id", id, "error", err)
		}
		return fetched, true
	}

	if storeErr == nil {
		t.stats.storeHits.Add(1)
		t.topTracks.Set(id, stored)
		return stored, true
	}

	t.stats.misses.Add(1)
	t.heal(ports.BackfillTopTracks, id, missReason(catalogErr))
	return nil, false
}

// SearchArtist resolves an artist name through the catalog, memoizing the
// result in the memory tier only; searches have no persistent row of their
// own, but the profile they produce is written through.
func (t *Tiered) SearchArtist(ctx context.Context, name string) (domain.ArtistProfile, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return domain.ArtistProfile{}, false
	}
	if p, ok := t.searches.Get(key); ok {
		t.stats.memoryHits.Add(1)
		return p, true
	}
	p, err := t.catalog.SearchArtist(ctx, name)
	if err != nil {
		t.stats.misses.Add(1)
		if !errors.Is(err, domain.ErrNotFound) {
			t.log.Warn("artist search failed", "name", name, "error", err)
		}
		return domain.ArtistProfile{}, false
	}
	t.stats.catalogHits.Add(1)
	p.FetchedAt = time.Now()
	t.searches.Set(key, p)
	t.writeBackProfile(ctx, p)
	return p, true
}

// SampleArtists passes through to the catalog; samples are intentionally not
// cached so consecutive rounds see different slices of the catalog.
func (t *Tiered) SampleArtists(ctx context.Context, limit int) []string {
	ids, err := t.catalog.SampleArtists(ctx, limit)
	if err != nil {
		t.log.Warn("sample fetch failed", "limit", limit, "error", err)
		return nil
	}
	return ids
}

// RequestBackfill queues a self-healing refresh outside the read path, for
// callers that found cached data present but unusable.
func (t *Tiered) RequestBackfill(kind ports.BackfillKind, artistID, reason string) {
	t.heal(kind, artistID, reason)
}

func (t *Tiered) writeBackProfile(ctx context.Context, p domain.ArtistProfile) {
	t.profiles.Set(p.ID, p)
	if err := t.store.SaveArtistProfile(ctx, p); err != nil {
		t.log.Warn("store write failed", "kind", "artist-profile", "artist_id", p.ID, "error", err)
	}
}

func missReason(err error) string {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return "miss-all-tiers"
	}
	return "catalog-error"
}
