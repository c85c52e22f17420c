package prep

import (
	"context"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// Runner is the round-preparation pipeline as the orchestrator sees it.
type Runner interface {
	Run(ctx context.Context, req domain.RoundRequest) (*domain.RoundResult, error)
}

// Config holds the orchestrator's timing knobs.
type Config struct {
	TTL        time.Duration `koanf:"ttl"`
	SyncWait   time.Duration `koanf:"sync_wait"`
	RunTimeout time.Duration `koanf:"run_timeout"`
	Sweep      time.Duration `koanf:"sweep"`
}

// DefaultConfig returns the default prep timing.
func DefaultConfig() Config {
	return Config{
		TTL:        5 * time.Minute,
		SyncWait:   10 * time.Second,
		RunTimeout: 60 * time.Second,
		Sweep:      30 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = def.TTL
	}
	if c.SyncWait <= 0 {
		c.SyncWait = def.SyncWait
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = def.RunTimeout
	}
	if c.Sweep <= 0 {
		c.Sweep = def.Sweep
	}
}

// Orchestrator coordinates prep jobs around the pipeline: deduplicated
// launches, the synchronous wait window, and detached background completion.
type Orchestrator struct {
	store  *Store
	runner Runner
	cfg    Config
	log    *logger.Logger

	// base is the lifetime context for background runs; a run outlives the
	// submitting request but not the process.
	base context.Context
}

// NewOrchestrator constructs the orchestrator. base bounds background runs
// and is typically the server's shutdown context.
func NewOrchestrator(base context.Context, store *Store, runner Runner, cfg Config, log *logger.Logger) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		store:  store,
		runner: runner,
		cfg:    cfg,
		log:    log.With("component", "prep"),
		base:   base,
	}
}

// Submit deduplicates the request by fingerprint and waits up to SyncWait
// for the pipeline. A run that finishes inside the window yields a ready
// (or failed) view with the payload inline; otherwise the warming view is
// returned and the run keeps going in the background, transitioning the same
// job when it lands. Re-submitting an identical request attaches to the live
// job instead of launching a second run.
func (o *Orchestrator) Submit(ctx context.Context, req domain.RoundRequest) (View, error) {
	if err := req.Validate(); err != nil {
		return View{}, err
	}

	job, created := o.store.CreateOrAttach(req.Fingerprint())
	if created {
		go o.run(job, req)
	}

	timer := time.NewTimer(o.cfg.SyncWait)
	defer timer.Stop()
	select {
	case <-job.Done():
	case <-timer.C:
	case <-ctx.Done():
	}
	return o.store.Snapshot(job), nil
}

// Lookup returns the current view of a job by id.
func (o *Orchestrator) Lookup(id string) (View, error) {
	return o.store.Get(id)
}

func (o *Orchestrator) run(job *Job, req domain.RoundRequest) {
	ctx, cancel := context.WithTimeout(o.base, o.cfg.RunTimeout)
	defer cancel()

	started := time.Now()
	result, err := o.runner.Run(ctx, req)
	if err != nil {
		o.log.Warn("prep run failed",
			"job_id", job.ID,
			"session_id", req.SessionID,
			"elapsed_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		o.store.Fail(job.ID, err.Error())
		return
	}
	o.store.Complete(job.ID, result)
	o.log.Info("prep run complete",
		"job_id", job.ID,
		"session_id", req.SessionID,
		"elapsed_ms", time.Since(started).Milliseconds(),
		"options", len(result.Options),
	)
}
