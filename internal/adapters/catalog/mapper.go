package catalog

import "github.com/ewilliams-labs/undertow/internal/core/domain"

// mapArtistToDomain converts a raw catalog artist to a domain profile.
func mapArtistToDomain(ca catalogArtist) domain.ArtistProfile {
	return domain.ArtistProfile{
		ID:         ca.ID,
		Name:       ca.Name,
		Genres:     ca.Genres,
		Popularity: ca.Popularity,
		Followers:  ca.Followers.Total,
	}
}

// mapTrackToDomain converts a raw catalog track to a domain track, taking
// the first listed artist as the primary.
func mapTrackToDomain(ct catalogTrack) domain.Track {
	dt := domain.Track{
		ID:         ct.ID,
		Title:      ct.Name,
		Album:      ct.Album.Name,
		DurationMs: ct.DurationMs,
		PreviewURL: ct.PreviewURL,
	}
	if len(ct.Artists) > 0 {
		dt.ArtistID = ct.Artists[0].ID
		dt.ArtistName = ct.Artists[0].Name
	}
	return dt
}
