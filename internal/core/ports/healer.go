package ports

// BackfillKind identifies which keyed datum a self-healing task should
// re-fetch.
type BackfillKind string

const (
	BackfillArtistProfile  BackfillKind = "artist-profile"
	BackfillRelatedArtists BackfillKind = "related-artists"
	BackfillTopTracks      BackfillKind = "top-tracks"
)

// BackfillTask asks the self-healing worker to re-acquire a datum that was
// missing across every cache tier.
type BackfillTask struct {
	Kind     BackfillKind
	ArtistID string
	Reason   string
}

// Healer accepts backfill tasks. Enqueue must never block the caller; it
// reports false when the task was dropped (queue full or shut down).
type Healer interface {
	Enqueue(task BackfillTask) bool
}

// NopHealer discards every task. Useful in tests and when healing is
// disabled.
type NopHealer struct{}

func (NopHealer) Enqueue(BackfillTask) bool { return false }
