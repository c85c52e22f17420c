// Package services holds the round-preparation pipeline and the gravity
// service, the coordination layer between the domain algorithms and the
// tiered data cache.
package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ewilliams-labs/undertow/internal/cache"
	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// PipelineConfig carries the selection tunables. Zero values are replaced
// with the documented defaults by NewPipeline.
type PipelineConfig struct {
	MinPoolSize         int
	SampleSize          int
	OptionCount         int
	BucketQuota         int
	Tolerance           float64
	Weights             domain.ScoreWeights
	SimilarityThreshold float64
	ConvergenceRound    int
	BatchSize           int
	BatchWorkers        int
	Gravity             domain.GravityConfig
}

func (c *PipelineConfig) applyDefaults() {
	if c.MinPoolSize <= 0 {
		c.MinPoolSize = 100
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 40
	}
	if c.OptionCount <= 0 {
		c.OptionCount = 9
	}
	if c.BucketQuota <= 0 {
		c.BucketQuota = c.OptionCount / 3
		if c.BucketQuota == 0 {
			c.BucketQuota = 1
		}
	}
	if c.Tolerance == 0 {
		c.Tolerance = 0.05
	}
	if c.Weights.GenreOverlap == 0 && c.Weights.GraphProximity == 0 && c.Weights.PopularityProximity == 0 {
		c.Weights = domain.DefaultScoreWeights()
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.5
	}
	if c.ConvergenceRound == 0 {
		c.ConvergenceRound = 8
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = 4
	}
	if c.Gravity == (domain.GravityConfig{}) {
		c.Gravity = domain.DefaultGravityConfig()
	}
}

// Pipeline prepares one round: resolve targets, build the pool, score,
// classify, filter, select, materialize. It owns no shared mutable state
// beyond the tiered cache it is handed; runs may execute concurrently.
type Pipeline struct {
	data *cache.Tiered
	cfg  PipelineConfig
	log  *logger.Logger

	// pickIndex selects a track slot during materialization; overridable in
	// tests, defaults to the shared math/rand source.
	pickIndex func(n int) int
}

// NewPipeline constructs the round-preparation pipeline.
func NewPipeline(data *cache.Tiered, cfg PipelineConfig, log *logger.Logger) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		data:      data,
		cfg:       cfg,
		log:       log.With("component", "pipeline"),
		pickIndex: rand.IntN,
	}
}

// Run executes the full selection pipeline for one validated request.
// Degradations (unresolved targets, short pools, missing profiles, missing
// tracks) narrow the result and are recorded in diagnostics; Run fails only
// on malformed input or context cancellation.
func (p *Pipeline) Run(ctx context.Context, req domain.RoundRequest) (*domain.RoundResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	statsBefore := p.data.Stats()
	diag := domain.Diagnostics{
		StageMillis: make(map[string]int64),
		PoolSources: make(map[domain.SourceCategory]int),
		Baselines:   make(map[domain.Player]float64),
	}

	// 1. Resolve both targets (failure is non-fatal).
	done := stageTimer(&diag, "resolve_targets")
	targets := p.resolveTargets(ctx, req, &diag)
	done()

	// 2. Assemble the candidate pool and hydrate profiles.
	done = stageTimer(&diag, "build_pool")
	pool := p.buildPool(ctx, req, targets)
	done()
	diag.PoolSize = pool.pool.Size()
	diag.PoolSources = pool.pool.SourceCounts()
	diag.FallbackTriggered = pool.fallbackTriggered
	diag.DroppedArtists = pool.missingProfiles

	graph := domain.BuildRelatedGraph(pool.related)
	activeTarget := targets[req.ActivePlayer]

	// 3. Score and classify against the active player's target.
	done = stageTimer(&diag, "score_classify")
	candidates := p.scoreAndClassify(req, targets, pool, graph, &diag)
	done()

	// 4. Eligibility filtering.
	done = stageTimer(&diag, "filter")
	p.filterCandidates(req, targets, pool, graph, candidates)
	done()
	diag.Candidates = candidates

	// 5. Diversity selection.
	quota := map[domain.Category]int{
		domain.CategoryCloser:  p.cfg.BucketQuota,
		domain.CategoryNeutral: p.cfg.BucketQuota,
		domain.CategoryFurther: p.cfg.BucketQuota,
	}
	done = stageTimer(&diag, "select")
	plan := domain.SelectDiverse(candidates, p.cfg.OptionCount, quota, req.SeedArtistID)
	done()
	diag.BackfillOccurred = plan.BackfillOccurred

	// 6. Materialize one unplayed track per selected artist.
	done = stageTimer(&diag, "materialize")
	options, backup := p.materialize(ctx, req, plan, &diag)
	done()

	stats := deltaStats(statsBefore, p.data.Stats())
	diag.Cache = stats
	diag.CacheHitRate = stats.HitRate()

	result := &domain.RoundResult{
		Targets:           targets,
		Gravity:           req.Gravity,
		Options:           options,
		Backup:            backup,
		PoolSize:          pool.pool.Size(),
		FallbackTriggered: pool.fallbackTriggered,
		Vicinity:          p.cfg.Gravity.InVicinity(req.Gravity.Get(req.ActivePlayer.Other())),
		Diagnostics:       diag,
	}

	p.log.Info("round prepared",
		"session_id", req.SessionID,
		"round", req.Round,
		"active_player", req.ActivePlayer,
		"pool_size", result.PoolSize,
		"options", len(result.Options),
		"fallback", result.FallbackTriggered,
		"cache_hit_rate", diag.CacheHitRate,
		"active_target_resolved", activeTarget.Resolved,
	)
	return result, nil
}

// stageTimer records a stage's wall time into diagnostics when the returned
// func runs.
func stageTimer(diag *domain.Diagnostics, stage string) func() {
	start := time.Now()
	return func() {
		diag.StageMillis[stage] = time.Since(start).Milliseconds()
	}
}

func deltaStats(before, after domain.CacheStats) domain.CacheStats {
	return domain.CacheStats{
		MemoryHits:  after.MemoryHits - before.MemoryHits,
		StoreHits:   after.StoreHits - before.StoreHits,
		CatalogHits: after.CatalogHits - before.CatalogHits,
		Misses:      after.Misses - before.Misses,
	}
}
