package ports

import (
	"context"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// CatalogStore is the persistent middle tier of the data cache. Reads return
// domain.ErrNotFound when the row is absent; the stored-at timestamp lets the
// tiered cache decide staleness.
type CatalogStore interface {
	GetArtistProfile(ctx context.Context, id string) (domain.ArtistProfile, error)
	SaveArtistProfile(ctx context.Context, profile domain.ArtistProfile) error

	GetRelatedIDs(ctx context.Context, artistID string) ([]string, time.Time, error)
	SaveRelatedIDs(ctx context.Context, artistID string, relatedIDs []string) error

	GetTopTracks(ctx context.Context, artistID string) ([]domain.Track, time.Time, error)
	SaveTopTracks(ctx context.Context, artistID string, tracks []domain.Track) error
}
