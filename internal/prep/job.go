// Package prep owns round-preparation jobs: deduplication by request
// fingerprint, the warming/ready/failed lifecycle, and TTL-based cleanup.
package prep

import (
	"errors"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// ErrJobNotFound is returned when a job id is unknown or already expired.
var ErrJobNotFound = errors.New("prep: job not found")

// Status is the lifecycle state of a prep job. A job transitions exactly
// once, from warming to either ready or failed.
type Status string

const (
	StatusWarming Status = "warming"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Job is one round-preparation attempt. The done channel closes on the
// warming→ready|failed transition so synchronous callers can race it against
// their wait budget. Payload is set once and never mutated afterwards.
type Job struct {
	ID          string
	Fingerprint string
	Status      Status
	Payload     *domain.RoundResult
	Err         string
	CreatedAt   time.Time
	ExpiresAt   time.Time

	done chan struct{}
}

// Done returns a channel that closes when the job leaves the warming state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// View is the immutable response-shaped snapshot of a job. Snapshots are
// taken under the store lock; callers never see a job mid-transition.
type View struct {
	JobID     string              `json:"jobId"`
	Status    Status              `json:"status"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Payload   *domain.RoundResult `json:"payload,omitempty"`
	Error     string              `json:"error,omitempty"`
}
