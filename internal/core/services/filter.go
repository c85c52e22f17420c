package services

import (
	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// filterCandidates marks ineligible candidates in place. The currently
// playing artist is always dropped. A candidate that is one of the players'
// targets is suppressed so the answer never shows up on the board, unless
// the game has converged far enough that hiding it would be more revealing
// than showing it: a late round, a hard-converged acting player, or a
// candidate that sits close to the currently playing artist anyway.
func (p *Pipeline) filterCandidates(req domain.RoundRequest, targets map[domain.Player]domain.TargetProfile, pool *poolResult, graph domain.RelatedGraph, candidates []domain.CandidateTrackMetrics) {
	var currentTarget domain.TargetProfile
	if profile, ok := pool.profiles[req.SeedArtistID]; ok {
		currentTarget = domain.TargetProfile{
			Ref:      domain.ArtistRef{ID: profile.ID, Name: profile.Name},
			Profile:  &profile,
			Resolved: true,
		}
	}

	activeGravity := req.Gravity.Get(req.ActivePlayer)
	lateRound := req.Round >= p.cfg.ConvergenceRound
	converged := p.cfg.Gravity.HardConverged(activeGravity)

	for i := range candidates {
		c := &candidates[i]
		if c.ArtistID == req.SeedArtistID {
			c.Filtered = true
			c.FilterReason = "current-artist"
			continue
		}

		for _, player := range []domain.Player{domain.Player1, domain.Player2} {
			if !targets[player].Matches(c.ArtistID, c.ArtistName) {
				continue
			}
			if lateRound || converged || p.nearCurrent(c.ArtistID, pool, currentTarget, graph) {
				break
			}
			c.Filtered = true
			c.FilterReason = "target-artist"
			break
		}
	}
}

// nearCurrent reports whether the candidate's attraction to the currently
// playing artist exceeds the similarity threshold. Similarity to the current
// artist is what makes a target candidate unremarkable; target-to-target
// similarity says nothing, so the comparison is deliberately one-sided.
func (p *Pipeline) nearCurrent(artistID string, pool *poolResult, current domain.TargetProfile, graph domain.RelatedGraph) bool {
	if !current.Resolved {
		return false
	}
	profile, ok := pool.profiles[artistID]
	if !ok {
		return false
	}
	similarity, _ := domain.Attraction(&profile, current, graph, p.cfg.Weights)
	return similarity > p.cfg.SimilarityThreshold
}
