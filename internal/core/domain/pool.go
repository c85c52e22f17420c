package domain

import "sort"

// SourceCategory labels where a candidate seed entered the pool from.
type SourceCategory string

const (
	SourceRelatedToCurrent SourceCategory = "related-to-current"
	SourceRelatedToTarget  SourceCategory = "related-to-target"
	SourceRandomSample     SourceCategory = "random-sample"
)

// CandidateSeed is one pool entry: an artist id plus the set of source
// categories that produced it.
type CandidateSeed struct {
	ArtistID string
	Sources  map[SourceCategory]struct{}
}

// CandidatePool is a set of candidate seeds keyed by artist id. Adding an id
// that is already present unions the source tags instead of duplicating the
// entry.
type CandidatePool struct {
	seeds map[string]*CandidateSeed
}

// NewCandidatePool returns an empty pool.
func NewCandidatePool() *CandidatePool {
	return &CandidatePool{seeds: make(map[string]*CandidateSeed)}
}

// Add inserts an artist id under the given source category. Empty ids are
// ignored.
func (p *CandidatePool) Add(artistID string, source SourceCategory) {
	if artistID == "" {
		return
	}
	seed, ok := p.seeds[artistID]
	if !ok {
		seed = &CandidateSeed{ArtistID: artistID, Sources: make(map[SourceCategory]struct{})}
		p.seeds[artistID] = seed
	}
	seed.Sources[source] = struct{}{}
}

// AddAll inserts every id in the slice under the given source category.
func (p *CandidatePool) AddAll(artistIDs []string, source SourceCategory) {
	for _, id := range artistIDs {
		p.Add(id, source)
	}
}

// Has reports whether the artist id is already in the pool.
func (p *CandidatePool) Has(artistID string) bool {
	_, ok := p.seeds[artistID]
	return ok
}

// Size returns the number of distinct artist ids in the pool.
func (p *CandidatePool) Size() int {
	return len(p.seeds)
}

// IDs returns the pool's artist ids in sorted order so that downstream
// iteration is deterministic.
func (p *CandidatePool) IDs() []string {
	ids := make([]string, 0, len(p.seeds))
	for id := range p.seeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sources returns the source categories recorded for an artist id, sorted.
func (p *CandidatePool) Sources(artistID string) []SourceCategory {
	seed, ok := p.seeds[artistID]
	if !ok {
		return nil
	}
	out := make([]SourceCategory, 0, len(seed.Sources))
	for s := range seed.Sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SourceCounts returns how many pool entries carry each source tag. An entry
// with multiple tags counts once per tag.
func (p *CandidatePool) SourceCounts() map[SourceCategory]int {
	counts := make(map[SourceCategory]int)
	for _, seed := range p.seeds {
		for s := range seed.Sources {
			counts[s]++
		}
	}
	return counts
}
