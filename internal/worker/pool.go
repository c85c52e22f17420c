// Package worker provides the background self-healing pool that re-acquires
// catalog data found missing across every cache tier.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/ports"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// dedupeWindow suppresses re-enqueues of a task that was accepted recently,
// so a burst of misses for one artist becomes one backfill.
const dedupeWindow = 5 * time.Minute

// Pool manages background workers for self-healing backfill tasks. Enqueue
// never blocks the selection path: when the queue is full the task is
// dropped and logged.
type Pool struct {
	store       ports.CatalogStore
	catalog     ports.CatalogProvider
	log         *logger.Logger
	taskTimeout time.Duration

	tasks chan ports.BackfillTask
	wg    sync.WaitGroup

	mu     sync.Mutex
	recent map[string]time.Time
	closed bool
}

var _ ports.Healer = (*Pool)(nil)

// NewPool creates a backfill pool with the given queue size.
func NewPool(store ports.CatalogStore, catalog ports.CatalogProvider, log *logger.Logger, queueSize int, taskTimeout time.Duration) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	if taskTimeout <= 0 {
		taskTimeout = 15 * time.Second
	}
	return &Pool{
		store:       store,
		catalog:     catalog,
		log:         log.With("component", "healing-pool"),
		taskTimeout: taskTimeout,
		tasks:       make(chan ports.BackfillTask, queueSize),
		recent:      make(map[string]time.Time),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				p.process(task)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.tasks)
	p.wg.Wait()
}

// Enqueue queues a task without blocking. Returns false when the task was
// dropped or suppressed as a recent duplicate.
func (p *Pool) Enqueue(task ports.BackfillTask) bool {
	if task.ArtistID == "" {
		return false
	}

	key := string(task.Kind) + ":" + task.ArtistID
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	if last, ok := p.recent[key]; ok && now.Sub(last) < dedupeWindow {
		p.mu.Unlock()
		return true // already scheduled; caller does not need to care
	}
	p.recent[key] = now
	for k, at := range p.recent {
		if now.Sub(at) > dedupeWindow {
			delete(p.recent, k)
		}
	}
	p.mu.Unlock()

	select {
	case p.tasks <- task:
		return true
	default:
		p.log.Warn("dropping backfill task, queue full", "kind", task.Kind, "artist_id", task.ArtistID)
		return false
	}
}

func (p *Pool) process(task ports.BackfillTask) {
	ctx, cancel := context.WithTimeout(context.Background(), p.taskTimeout)
	defer cancel()

	var err error
	switch task.Kind {
	case ports.BackfillArtistProfile:
		fetched, ferr := p.catalog.GetArtist(ctx, task.ArtistID)
		if ferr != nil {
			err = ferr
			break
		}
		fetched.FetchedAt = time.Now()
		err = p.store.SaveArtistProfile(ctx, fetched)
	case ports.BackfillRelatedArtists:
		ids, ferr := p.catalog.GetRelatedArtists(ctx, task.ArtistID)
		if ferr != nil {
			err = ferr
			break
		}
		err = p.store.SaveRelatedIDs(ctx, task.ArtistID, ids)
	case ports.BackfillTopTracks:
		tracks, ferr := p.catalog.GetArtistTopTracks(ctx, task.ArtistID)
		if ferr != nil {
			err = ferr
			break
		}
		err = p.store.SaveTopTracks(ctx, task.ArtistID, tracks)
	default:
		p.log.Warn("unknown backfill kind", "kind", task.Kind)
		return
	}

	if err != nil {
		p.log.Warn("backfill failed", "kind", task.Kind, "artist_id", task.ArtistID, "reason", task.Reason, "error", err)
		return
	}
	p.log.Debug("backfill complete", "kind", task.Kind, "artist_id", task.ArtistID, "reason", task.Reason)
}
