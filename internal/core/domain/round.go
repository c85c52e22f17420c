package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches catalog ids: non-empty, URL-safe, bounded length.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether a raw id is a well-formed catalog id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// RoundRequest is everything the selection pipeline needs to prepare one
// round. It is assembled at the boundary from playback state and game state
// and validated before any pipeline stage runs.
type RoundRequest struct {
	SessionID      string               `json:"session_id"`
	SeedTrackID    string               `json:"seed_track_id"`
	SeedArtistID   string               `json:"seed_artist_id"`
	PlayedTrackIDs []string             `json:"played_track_ids,omitempty"`
	Targets        map[Player]ArtistRef `json:"targets"`
	Gravity        PlayerGravityMap     `json:"gravity"`
	Round          int                  `json:"round"`
	ActivePlayer   Player               `json:"active_player"`
}

// Validate rejects malformed requests before they enter the pipeline.
func (r RoundRequest) Validate() error {
	if r.SeedTrackID == "" {
		return errors.New("domain: seed track id is required")
	}
	if !ValidID(r.SeedTrackID) {
		return fmt.Errorf("domain: invalid seed track id %q", r.SeedTrackID)
	}
	if r.SeedArtistID == "" {
		return errors.New("domain: seed artist id is required")
	}
	if !ValidID(r.SeedArtistID) {
		return fmt.Errorf("domain: invalid seed artist id %q", r.SeedArtistID)
	}
	if _, err := ParsePlayer(string(r.ActivePlayer)); err != nil {
		return err
	}
	if r.Round < 0 {
		return fmt.Errorf("domain: invalid round number %d", r.Round)
	}
	for player, ref := range r.Targets {
		if _, err := ParsePlayer(string(player)); err != nil {
			return err
		}
		if ref.ID != "" && !ValidID(ref.ID) {
			return fmt.Errorf("domain: invalid target artist id %q", ref.ID)
		}
	}
	for _, id := range r.PlayedTrackIDs {
		if id != "" && !ValidID(id) {
			return fmt.Errorf("domain: invalid played track id %q", id)
		}
	}
	return nil
}

// Fingerprint derives the deterministic prep cache key from the seed track,
// both target references, and the active player. Two requests with the same
// fingerprint describe the same round preparation.
func (r RoundRequest) Fingerprint() string {
	var b strings.Builder
	b.WriteString(r.SeedTrackID)
	for _, p := range []Player{Player1, Player2} {
		ref := r.Targets[p]
		b.WriteByte('|')
		b.WriteString(ref.ID)
		b.WriteByte(':')
		b.WriteString(strings.ToLower(strings.TrimSpace(ref.Name)))
	}
	b.WriteByte('|')
	b.WriteString(string(r.ActivePlayer))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ExcludedTrackSet returns the played track ids plus the seed track as a set.
func (r RoundRequest) ExcludedTrackSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.PlayedTrackIDs)+1)
	set[r.SeedTrackID] = struct{}{}
	for _, id := range r.PlayedTrackIDs {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// RoundResult is the payload handed back to the game-state collaborator: the
// resolved targets, the option set, and the diagnostic contract. A result
// attached to a ready prep job is never mutated.
type RoundResult struct {
	Targets           map[Player]TargetProfile `json:"targets"`
	Gravity           PlayerGravityMap         `json:"gravity"`
	Options           []DgsOptionTrack         `json:"options"`
	Backup            []CandidateTrackMetrics  `json:"backup,omitempty"`
	PoolSize          int                      `json:"pool_size"`
	FallbackTriggered bool                     `json:"fallback_triggered"`
	Vicinity          bool                     `json:"vicinity"`
	Diagnostics       Diagnostics              `json:"diagnostics"`
}
