package domain

import "strings"

// ZeroReason distinguishes the ways an attraction score can be zero, so that
// a zero in the diagnostic dump is explainable.
type ZeroReason string

const (
	ZeroReasonNone           ZeroReason = ""
	ZeroReasonMissingProfile ZeroReason = "missing-profile"
	ZeroReasonNullTarget     ZeroReason = "null-target"
)

// ScoreWeights are the relative weights of the attraction sub-scores. They
// are tunable configuration, not a fixed contract; the weighted sum is
// normalized by the total weight so the score stays in [0,1] for any
// positive weighting.
type ScoreWeights struct {
	GenreOverlap        float64 `json:"genre_overlap" koanf:"genre_overlap"`
	GraphProximity      float64 `json:"graph_proximity" koanf:"graph_proximity"`
	PopularityProximity float64 `json:"popularity_proximity" koanf:"popularity_proximity"`
}

// DefaultScoreWeights returns the default attraction weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{GenreOverlap: 0.5, GraphProximity: 0.3, PopularityProximity: 0.2}
}

func (w ScoreWeights) total() float64 {
	return w.GenreOverlap + w.GraphProximity + w.PopularityProximity
}

// ScoringComponents is the per-sub-score breakdown behind an attraction
// score, kept for diagnostics.
type ScoringComponents struct {
	GenreOverlap        float64    `json:"genre_overlap"`
	GraphProximity      float64    `json:"graph_proximity"`
	PopularityProximity float64    `json:"popularity_proximity"`
	ZeroReason          ZeroReason `json:"zero_reason,omitempty"`
}

// RelatedGraph holds the relationship edges known to a round: artist id to
// the set of related artist ids gathered while the pool was assembled.
type RelatedGraph map[string]map[string]struct{}

// BuildRelatedGraph constructs a graph from per-artist related-id lists.
func BuildRelatedGraph(related map[string][]string) RelatedGraph {
	g := make(RelatedGraph, len(related))
	for id, neighbors := range related {
		set := make(map[string]struct{}, len(neighbors))
		for _, n := range neighbors {
			if n != "" {
				set[n] = struct{}{}
			}
		}
		g[id] = set
	}
	return g
}

// Direct reports whether an edge exists between a and b in either direction.
// An artist is always directly related to itself.
func (g RelatedGraph) Direct(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if set, ok := g[a]; ok {
		if _, hit := set[b]; hit {
			return true
		}
	}
	if set, ok := g[b]; ok {
		if _, hit := set[a]; hit {
			return true
		}
	}
	return false
}

// SharedNeighbor reports whether a and b have at least one related artist in
// common.
func (g RelatedGraph) SharedNeighbor(a, b string) bool {
	sa, oka := g[a]
	sb, okb := g[b]
	if !oka || !okb {
		return false
	}
	small, large := sa, sb
	if len(sb) < len(sa) {
		small, large = sb, sa
	}
	for n := range small {
		if _, hit := large[n]; hit {
			return true
		}
	}
	return false
}

// Attraction computes the bounded similarity of an artist to a target
// profile. It is a pure function of its inputs: identical inputs always
// produce the identical score and component breakdown.
//
// A missing artist profile or an unresolved target yields zero with the
// corresponding ZeroReason rather than an error.
func Attraction(artist *ArtistProfile, target TargetProfile, graph RelatedGraph, weights ScoreWeights) (float64, ScoringComponents) {
	if !target.Resolved || target.Profile == nil {
		return 0, ScoringComponents{ZeroReason: ZeroReasonNullTarget}
	}
	if artist == nil {
		return 0, ScoringComponents{ZeroReason: ZeroReasonMissingProfile}
	}

	comps := ScoringComponents{
		GenreOverlap:        genreOverlap(artist.Genres, target.Profile.Genres),
		GraphProximity:      graphProximity(graph, artist.ID, target.Profile.ID),
		PopularityProximity: popularityProximity(artist.Popularity, target.Profile.Popularity),
	}

	total := weights.total()
	if total <= 0 {
		weights = DefaultScoreWeights()
		total = weights.total()
	}

	score := (weights.GenreOverlap*comps.GenreOverlap +
		weights.GraphProximity*comps.GraphProximity +
		weights.PopularityProximity*comps.PopularityProximity) / total

	return clamp01(score), comps
}

// genreOverlap is the Jaccard similarity of the two genre sets, compared
// case-insensitively.
func genreOverlap(a, b []string) float64 {
	sa := genreSet(a)
	sb := genreSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}
	intersection := 0
	for g := range sa {
		if _, ok := sb[g]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func genreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			set[g] = struct{}{}
		}
	}
	return set
}

// graphProximity scores relationship-graph closeness: 1.0 for a direct edge,
// 0.5 for a shared neighbor, 0 otherwise. The levels are deliberately coarse;
// the graph only carries the edges the round happened to fetch.
func graphProximity(graph RelatedGraph, a, b string) float64 {
	switch {
	case graph.Direct(a, b):
		return 1.0
	case graph.SharedNeighbor(a, b):
		return 0.5
	default:
		return 0
	}
}

func popularityProximity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff > 100 {
		diff = 100
	}
	return 1 - float64(diff)/100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
