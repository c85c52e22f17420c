package domain

import (
	"math"
	"sort"
)

// CandidateTrackMetrics is the scored, classified view of one candidate
// artist, the unit the diversity selector works on and the unit dumped into
// diagnostics.
type CandidateTrackMetrics struct {
	ArtistID     string            `json:"artist_id"`
	ArtistName   string            `json:"artist_name"`
	Score        float64           `json:"score"`
	Components   ScoringComponents `json:"components"`
	Delta        float64           `json:"delta"`
	Category     Category          `json:"category"`
	Sources      []SourceCategory  `json:"sources"`
	Filtered     bool              `json:"filtered,omitempty"`
	FilterReason string            `json:"filter_reason,omitempty"`
}

// DgsOptionTrack is one player-facing choice: a concrete track plus the
// metrics of the artist it was materialized from.
type DgsOptionTrack struct {
	Track   Track                 `json:"track"`
	Metrics CandidateTrackMetrics `json:"metrics"`
}

// SelectionPlan is the diversity selector's output: the chosen candidates in
// presentation order, the remaining candidates kept as backups for
// materialization failures, and whether any bucket had to be backfilled.
type SelectionPlan struct {
	Selected         []CandidateTrackMetrics
	Backup           []CandidateTrackMetrics
	BackfillOccurred bool
}

// bucketOrder is the presentation order and, rotated, the backfill
// preference: a short bucket borrows from its nearest neighbor first.
var bucketOrder = []Category{CategoryCloser, CategoryNeutral, CategoryFurther}

var backfillOrder = map[Category][]Category{
	CategoryCloser:  {CategoryNeutral, CategoryFurther},
	CategoryNeutral: {CategoryCloser, CategoryFurther},
	CategoryFurther: {CategoryNeutral, CategoryCloser},
}

// SelectDiverse picks up to total candidates split across the three
// categories per the quota map. Filtered candidates, duplicates, and the
// currently playing artist never make the cut. Within a bucket candidates
// are ranked by |delta| descending, score descending, then id for stability.
// A short bucket backfills from its neighbors so the total is preserved
// whenever enough eligible candidates exist.
func SelectDiverse(candidates []CandidateTrackMetrics, total int, quota map[Category]int, currentArtistID string) SelectionPlan {
	buckets := map[Category][]CandidateTrackMetrics{}
	seen := map[string]struct{}{}
	for _, c := range candidates {
		if c.Filtered || c.ArtistID == "" || c.ArtistID == currentArtistID {
			continue
		}
		if _, dup := seen[c.ArtistID]; dup {
			continue
		}
		seen[c.ArtistID] = struct{}{}
		cat := c.Category
		if !cat.Valid() {
			cat = CategoryNeutral
		}
		buckets[cat] = append(buckets[cat], c)
	}

	for cat := range buckets {
		sortBucket(buckets[cat])
	}

	plan := SelectionPlan{}
	taken := map[string]struct{}{}

	take := func(cat Category, n int) int {
		got := 0
		for _, c := range buckets[cat] {
			if got == n {
				break
			}
			if _, ok := taken[c.ArtistID]; ok {
				continue
			}
			taken[c.ArtistID] = struct{}{}
			plan.Selected = append(plan.Selected, c)
			got++
		}
		return got
	}

	for _, cat := range bucketOrder {
		want := quota[cat]
		got := take(cat, want)
		shortfall := want - got
		for _, donor := range backfillOrder[cat] {
			if shortfall == 0 {
				break
			}
			borrowed := take(donor, shortfall)
			if borrowed > 0 {
				plan.BackfillOccurred = true
				shortfall -= borrowed
			}
		}
	}

	// Honor the overall total even if the quotas do not add up to it.
	if len(plan.Selected) < total {
		for _, cat := range bucketOrder {
			if len(plan.Selected) >= total {
				break
			}
			if take(cat, total-len(plan.Selected)) > 0 {
				plan.BackfillOccurred = true
			}
		}
	}
	if len(plan.Selected) > total {
		for _, c := range plan.Selected[total:] {
			delete(taken, c.ArtistID)
		}
		plan.Selected = plan.Selected[:total]
	}

	for _, cat := range bucketOrder {
		for _, c := range buckets[cat] {
			if _, ok := taken[c.ArtistID]; !ok {
				plan.Backup = append(plan.Backup, c)
			}
		}
	}

	return plan
}

func sortBucket(bucket []CandidateTrackMetrics) {
	sort.Slice(bucket, func(i, j int) bool {
		di, dj := math.Abs(bucket[i].Delta), math.Abs(bucket[j].Delta)
		if di != dj {
			return di > dj
		}
		if bucket[i].Score != bucket[j].Score {
			return bucket[i].Score > bucket[j].Score
		}
		return bucket[i].ArtistID < bucket[j].ArtistID
	})
}
