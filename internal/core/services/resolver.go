package services

import (
	"context"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// resolveTargets turns each player's raw artist reference into a
// TargetProfile through the tiered cache. A target resolves only when a
// profile with at least one genre was obtained; anything less leaves the
// reference in place with Resolved=false so scoring degrades to zero
// attraction instead of aborting the round.
func (p *Pipeline) resolveTargets(ctx context.Context, req domain.RoundRequest, diag *domain.Diagnostics) map[domain.Player]domain.TargetProfile {
	targets := make(map[domain.Player]domain.TargetProfile, 2)
	for _, player := range []domain.Player{domain.Player1, domain.Player2} {
		ref := req.Targets[player]
		target := domain.TargetProfile{Ref: ref}
		td := domain.TargetDiagnostic{Player: player, Ref: ref}

		switch {
		case ref.IsZero():
			td.Error = "no target chosen"
		default:
			profile, ok := p.lookupTarget(ctx, ref)
			if !ok {
				td.Error = "target artist not resolvable"
				p.log.Warn("target resolution failed", "player", player, "artist_id", ref.ID, "artist_name", ref.Name)
			} else if !profile.HasGenres() {
				target.Profile = profile
				td.Error = "profile has no genres"
				p.log.Warn("target resolved without genres", "player", player, "artist_id", profile.ID)
			} else {
				target.Profile = profile
				target.Resolved = true
			}
		}

		td.Resolved = target.Resolved
		targets[player] = target
		diag.Targets = append(diag.Targets, td)
	}
	return targets
}

func (p *Pipeline) lookupTarget(ctx context.Context, ref domain.ArtistRef) (*domain.ArtistProfile, bool) {
	if ref.ID != "" {
		if profile, ok := p.data.ArtistProfile(ctx, ref.ID); ok {
			return &profile, true
		}
	}
	if ref.Name != "" {
		if profile, ok := p.data.SearchArtist(ctx, ref.Name); ok {
			return &profile, true
		}
	}
	return nil, false
}
