package services

import (
	"context"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/core/ports"
)

// materialize turns each selected artist into one concrete, unplayed track.
// An artist with no eligible tracks loses its slot: the artist is queued for
// a top-tracks backfill and a backup candidate from the same bucket takes
// its place when one exists, otherwise the round goes out with fewer
// options. Unused backups are returned for the result payload.
func (p *Pipeline) materialize(ctx context.Context, req domain.RoundRequest, plan domain.SelectionPlan, diag *domain.Diagnostics) ([]domain.DgsOptionTrack, []domain.CandidateTrackMetrics) {
	excluded := req.ExcludedTrackSet()
	backups := append([]domain.CandidateTrackMetrics(nil), plan.Backup...)

	options := make([]domain.DgsOptionTrack, 0, len(plan.Selected))
	for _, candidate := range plan.Selected {
		track, ok := p.pickTrack(ctx, candidate.ArtistID, excluded)
		if !ok {
			diag.DroppedArtists = append(diag.DroppedArtists, candidate.ArtistID)
			p.data.RequestBackfill(ports.BackfillTopTracks, candidate.ArtistID, "no-eligible-tracks")
			replacement, rest, found := p.takeBackup(ctx, backups, candidate.Category, excluded)
			backups = rest
			if !found {
				continue
			}
			candidate = replacement.metrics
			track = replacement.track
		}
		excluded[track.ID] = struct{}{}
		options = append(options, domain.DgsOptionTrack{Track: track, Metrics: candidate})
	}
	return options, backups
}

// pickTrack fetches the artist's top tracks through the tiered cache, drops
// excluded ids, and picks one of the rest at random.
func (p *Pipeline) pickTrack(ctx context.Context, artistID string, excluded map[string]struct{}) (domain.Track, bool) {
	tracks, ok := p.data.TopTracks(ctx, artistID)
	if !ok {
		return domain.Track{}, false
	}
	eligible := tracks[:0:0]
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		if _, skip := excluded[t.ID]; skip {
			continue
		}
		eligible = append(eligible, t)
	}
	if len(eligible) == 0 {
		return domain.Track{}, false
	}
	return eligible[p.pickIndex(len(eligible))], true
}

type materialized struct {
	metrics domain.CandidateTrackMetrics
	track   domain.Track
}

// takeBackup finds the first backup candidate that materializes, preferring
// candidates from the dropped artist's own bucket so the category split
// survives the substitution. The consumed candidate is removed from the
// returned backup list; backups that also fail to materialize are dropped
// and queued for healing like the original.
func (p *Pipeline) takeBackup(ctx context.Context, backups []domain.CandidateTrackMetrics, category domain.Category, excluded map[string]struct{}) (materialized, []domain.CandidateTrackMetrics, bool) {
	tryOrder := make([]int, 0, len(backups))
	for i, b := range backups {
		if b.Category == category {
			tryOrder = append(tryOrder, i)
		}
	}
	for i, b := range backups {
		if b.Category != category {
			tryOrder = append(tryOrder, i)
		}
	}

	consumed := map[int]struct{}{}
	for _, i := range tryOrder {
		track, ok := p.pickTrack(ctx, backups[i].ArtistID, excluded)
		consumed[i] = struct{}{}
		if !ok {
			p.data.RequestBackfill(ports.BackfillTopTracks, backups[i].ArtistID, "no-eligible-tracks")
			continue
		}
		rest := make([]domain.CandidateTrackMetrics, 0, len(backups)-len(consumed))
		for j, b := range backups {
			if _, used := consumed[j]; !used {
				rest = append(rest, b)
			}
		}
		return materialized{metrics: backups[i], track: track}, rest, true
	}

	rest := make([]domain.CandidateTrackMetrics, 0, len(backups)-len(consumed))
	for j, b := range backups {
		if _, used := consumed[j]; !used {
			rest = append(rest, b)
		}
	}
	return materialized{}, rest, false
}
