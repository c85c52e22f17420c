package prep

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// Store is the in-memory prep job table, indexed by id and by fingerprint.
// All transitions happen under its lock; CreateOrAttach is the atomic
// create-if-absent that guarantees at most one live job per fingerprint.
type Store struct {
	ttl time.Duration
	log *logger.Logger
	now func() time.Time

	mu            sync.Mutex
	byID          map[string]*Job
	byFingerprint map[string]*Job
}

// NewStore constructs a job store whose entries expire ttl after creation.
func NewStore(ttl time.Duration, log *logger.Logger) *Store {
	return &Store{
		ttl:           ttl,
		log:           log.With("component", "prep-store"),
		now:           time.Now,
		byID:          make(map[string]*Job),
		byFingerprint: make(map[string]*Job),
	}
}

// CreateOrAttach returns the live job for the fingerprint, creating a fresh
// warming job when none exists or the existing one has expired. The second
// return reports whether this call created the job, which is the caller's
// signal to launch the pipeline run.
func (s *Store) CreateOrAttach(fingerprint string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.byFingerprint[fingerprint]; ok && now.Before(existing.ExpiresAt) {
		return existing, false
	}

	job := &Job{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		Status:      StatusWarming,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		done:        make(chan struct{}),
	}
	s.byID[job.ID] = job
	s.byFingerprint[fingerprint] = job
	return job, true
}

// Get returns a snapshot of the job with the given id, or ErrJobNotFound
// when the id is unknown or the job has expired.
func (s *Store) Get(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[id]
	if !ok || !s.now().Before(job.ExpiresAt) {
		return View{}, ErrJobNotFound
	}
	return snapshot(job), nil
}

// Complete transitions a warming job to ready and attaches its payload.
// Transitions on jobs already out of warming are ignored.
func (s *Store) Complete(id string, payload *domain.RoundResult) {
	s.transition(id, StatusReady, payload, "")
}

// Fail transitions a warming job to failed with the given error string.
func (s *Store) Fail(id string, errMsg string) {
	s.transition(id, StatusFailed, nil, errMsg)
}

func (s *Store) transition(id string, status Status, payload *domain.RoundResult, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[id]
	if !ok || job.Status != StatusWarming {
		return
	}
	job.Status = status
	job.Payload = payload
	job.Err = errMsg
	close(job.done)
}

// Snapshot returns a consistent view of a job pointer obtained from
// CreateOrAttach.
func (s *Store) Snapshot(job *Job) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(job)
}

func snapshot(job *Job) View {
	return View{
		JobID:     job.ID,
		Status:    job.Status,
		ExpiresAt: job.ExpiresAt,
		Payload:   job.Payload,
		Error:     job.Err,
	}
}

// Sweep removes expired jobs from both indexes and returns how many it
// dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, job := range s.byID {
		if now.Before(job.ExpiresAt) {
			continue
		}
		delete(s.byID, id)
		if s.byFingerprint[job.Fingerprint] == job {
			delete(s.byFingerprint, job.Fingerprint)
		}
		removed++
	}
	return removed
}

// Janitor sweeps expired jobs on the given interval until the context is
// canceled. Run it as a goroutine.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.log.Debug("swept expired prep jobs", "removed", removed)
			}
		}
	}
}
