package services

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// poolResult is the pool builder's output: the deduplicated seed set, the
// hydrated profiles, the relationship edges gathered along the way, and the
// degradation flags.
type poolResult struct {
	pool              *domain.CandidatePool
	profiles          map[string]domain.ArtistProfile
	related           map[string][]string
	fallbackTriggered bool
	missingProfiles   []string
}

// buildPool assembles candidates from the three source categories, enforces
// the minimum pool size with a widened random-sample fallback, and hydrates
// profiles in bounded batches. It never fails: a degraded pool is returned
// with its shortcomings flagged.
func (p *Pipeline) buildPool(ctx context.Context, req domain.RoundRequest, targets map[domain.Player]domain.TargetProfile) *poolResult {
	pool := domain.NewCandidatePool()
	related := make(map[string][]string)

	// Neighbors of the currently playing artist.
	if ids, ok := p.data.RelatedArtists(ctx, req.SeedArtistID); ok {
		related[req.SeedArtistID] = ids
		pool.AddAll(ids, domain.SourceRelatedToCurrent)
	} else {
		p.log.Warn("no related artists for current track", "artist_id", req.SeedArtistID)
	}

	// Neighbors of each resolved target.
	for player, target := range targets {
		if !target.Resolved || target.Profile == nil {
			continue
		}
		if ids, ok := p.data.RelatedArtists(ctx, target.Profile.ID); ok {
			related[target.Profile.ID] = ids
			pool.AddAll(ids, domain.SourceRelatedToTarget)
		} else {
			p.log.Warn("no related artists for target", "player", player, "artist_id", target.Profile.ID)
		}
	}

	// Random catalog sample for breadth.
	pool.AddAll(p.data.SampleArtists(ctx, p.cfg.SampleSize), domain.SourceRandomSample)

	fallback := false
	if pool.Size() < p.cfg.MinPoolSize {
		shortfall := p.cfg.MinPoolSize - pool.Size()
		p.log.Info("pool below minimum, widening sample", "size", pool.Size(), "shortfall", shortfall)
		pool.AddAll(p.data.SampleArtists(ctx, shortfall*2), domain.SourceRandomSample)
		fallback = true
		if pool.Size() < p.cfg.MinPoolSize {
			p.log.Warn("pool still below minimum after fallback", "size", pool.Size(), "minimum", p.cfg.MinPoolSize)
		}
	}

	profiles, missing := p.hydrateProfiles(ctx, pool.IDs())

	// Relationship edges known from hydrated profiles enrich the graph.
	for id, profile := range profiles {
		if len(profile.RelatedIDs) > 0 {
			if _, ok := related[id]; !ok {
				related[id] = profile.RelatedIDs
			}
		}
	}

	return &poolResult{
		pool:              pool,
		profiles:          profiles,
		related:           related,
		fallbackTriggered: fallback,
		missingProfiles:   missing,
	}
}

// hydrateProfiles fetches profiles for the pool in bounded parallel batches
// so a large pool does not turn into unbounded catalog fan-out. A failed
// batch shrinks the pool instead of failing the round.
func (p *Pipeline) hydrateProfiles(ctx context.Context, ids []string) (map[string]domain.ArtistProfile, []string) {
	profiles := make(map[string]domain.ArtistProfile, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.BatchWorkers)

	for start := 0; start < len(ids); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		g.Go(func() error {
			got := p.data.SeveralArtistProfiles(gctx, batch)
			mu.Lock()
			for id, profile := range got {
				profiles[id] = profile
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers only record degradations; the group never carries an error.
	_ = g.Wait()

	var missing []string
	for _, id := range ids {
		if _, ok := profiles[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return profiles, missing
}
