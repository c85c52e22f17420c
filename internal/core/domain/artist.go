package domain

import (
	"strings"
	"time"
)

// ArtistRef is the raw artist reference a player supplies when choosing a
// target. Either field may be empty; resolution fills in whatever is missing.
type ArtistRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the reference carries no usable information.
func (r ArtistRef) IsZero() bool {
	return r.ID == "" && strings.TrimSpace(r.Name) == ""
}

// ArtistProfile is the catalog view of an artist. Profiles are fetched once
// per TTL window and treated as immutable between refreshes.
type ArtistProfile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres"`
	Popularity int       `json:"popularity"` // 0-100
	Followers  int       `json:"followers"`
	RelatedIDs []string  `json:"related_ids,omitempty"`
	FetchedAt  time.Time `json:"fetched_at,omitempty"`
}

// HasGenres reports whether the profile carries at least one genre, the
// minimum needed for attraction scoring to say anything useful.
func (p *ArtistProfile) HasGenres() bool {
	return p != nil && len(p.Genres) > 0
}

// TargetProfile wraps an optional resolved profile together with the raw
// reference the player supplied. The reference outlives a failed fetch so
// scoring can degrade to zero attraction instead of aborting the round.
type TargetProfile struct {
	Ref      ArtistRef      `json:"ref"`
	Profile  *ArtistProfile `json:"profile,omitempty"`
	Resolved bool           `json:"resolved"`
}

// Matches reports whether the given artist is the target itself, by id when
// both sides have one, falling back to a case-insensitive name comparison.
func (t TargetProfile) Matches(artistID, artistName string) bool {
	if t.Ref.IsZero() {
		return false
	}
	targetID := t.Ref.ID
	if t.Profile != nil && t.Profile.ID != "" {
		targetID = t.Profile.ID
	}
	if targetID != "" && artistID != "" {
		return targetID == artistID
	}
	targetName := t.Ref.Name
	if t.Profile != nil && t.Profile.Name != "" {
		targetName = t.Profile.Name
	}
	return SameArtistName(targetName, artistName)
}

// SameArtistName compares two artist names case-insensitively after trimming
// and collapsing internal whitespace.
func SameArtistName(a, b string) bool {
	na := strings.Join(strings.Fields(strings.TrimSpace(a)), " ")
	nb := strings.Join(strings.Fields(strings.TrimSpace(b)), " ")
	if na == "" || nb == "" {
		return false
	}
	return strings.EqualFold(na, nb)
}
