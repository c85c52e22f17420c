package ports

import (
	"context"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// CatalogProvider is the external music catalog API, the slowest tier of the
// data cache. Absence is reported as domain.ErrNotFound; anything else is a
// transport or catalog failure.
type CatalogProvider interface {
	// SearchArtist resolves an artist name to its best-matching profile.
	SearchArtist(ctx context.Context, name string) (domain.ArtistProfile, error)
	// GetArtist fetches one artist profile by id.
	GetArtist(ctx context.Context, id string) (domain.ArtistProfile, error)
	// GetSeveralArtists fetches a batch of profiles. Ids the catalog does
	// not know are simply missing from the result, not errors.
	GetSeveralArtists(ctx context.Context, ids []string) ([]domain.ArtistProfile, error)
	// GetRelatedArtists returns the ids of artists related to the given one.
	GetRelatedArtists(ctx context.Context, id string) ([]string, error)
	// GetArtistTopTracks returns the artist's current top tracks.
	GetArtistTopTracks(ctx context.Context, id string) ([]domain.Track, error)
	// SampleArtists returns up to limit artist ids sampled across the
	// catalog, used to seed the random-sample pool category.
	SampleArtists(ctx context.Context, limit int) ([]string, error)
}
