package domain

// CacheStats summarizes tiered-cache behavior over one pipeline run.
type CacheStats struct {
	MemoryHits  int64 `json:"memory_hits"`
	StoreHits   int64 `json:"store_hits"`
	CatalogHits int64 `json:"catalog_hits"`
	Misses      int64 `json:"misses"`
}

// HitRate returns the fraction of lookups answered by any tier.
func (s CacheStats) HitRate() float64 {
	hits := s.MemoryHits + s.StoreHits + s.CatalogHits
	total := hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// TargetDiagnostic records the outcome of resolving one player's target.
type TargetDiagnostic struct {
	Player   Player    `json:"player"`
	Ref      ArtistRef `json:"ref"`
	Resolved bool      `json:"resolved"`
	Error    string    `json:"error,omitempty"`
}

// Diagnostics is the structured observability payload produced with every
// round. It is a first-class output contract consumed by operators, not
// incidental logging: per-stage timings, cache behavior, and the full
// per-candidate score dump.
type Diagnostics struct {
	StageMillis       map[string]int64        `json:"stage_millis"`
	Cache             CacheStats              `json:"cache"`
	CacheHitRate      float64                 `json:"cache_hit_rate"`
	PoolSize          int                     `json:"pool_size"`
	PoolSources       map[SourceCategory]int  `json:"pool_sources"`
	FallbackTriggered bool                    `json:"fallback_triggered"`
	BackfillOccurred  bool                    `json:"backfill_occurred"`
	Baselines         map[Player]float64      `json:"baselines"`
	Targets           []TargetDiagnostic      `json:"targets"`
	Candidates        []CandidateTrackMetrics `json:"candidates"`
	DroppedArtists    []string                `json:"dropped_artists,omitempty"`
}
