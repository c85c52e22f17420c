package services

import (
	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// scoreAndClassify scores every pool candidate against the active player's
// target, computes the delta from the baseline (the currently playing
// artist's own attraction), and assigns a category. Baselines for both
// players are recorded for diagnostics.
func (p *Pipeline) scoreAndClassify(req domain.RoundRequest, targets map[domain.Player]domain.TargetProfile, pool *poolResult, graph domain.RelatedGraph, diag *domain.Diagnostics) []domain.CandidateTrackMetrics {
	var currentProfile *domain.ArtistProfile
	if profile, ok := pool.profiles[req.SeedArtistID]; ok {
		currentProfile = &profile
	}

	for _, player := range []domain.Player{domain.Player1, domain.Player2} {
		baseline, _ := domain.Attraction(currentProfile, targets[player], graph, p.cfg.Weights)
		diag.Baselines[player] = baseline
	}

	activeTarget := targets[req.ActivePlayer]
	baseline := diag.Baselines[req.ActivePlayer]

	ids := pool.pool.IDs()
	candidates := make([]domain.CandidateTrackMetrics, 0, len(ids))
	for _, id := range ids {
		var profile *domain.ArtistProfile
		name := ""
		if hydrated, ok := pool.profiles[id]; ok {
			profile = &hydrated
			name = hydrated.Name
		}

		score, comps := domain.Attraction(profile, activeTarget, graph, p.cfg.Weights)
		delta := score - baseline
		candidates = append(candidates, domain.CandidateTrackMetrics{
			ArtistID:   id,
			ArtistName: name,
			Score:      score,
			Components: comps,
			Delta:      delta,
			Category:   domain.Classify(delta, p.cfg.Tolerance),
			Sources:    pool.pool.Sources(id),
		})
	}
	return candidates
}
