package prep

import (
	"errors"
	"testing"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

func newTestStore(ttl time.Duration) *Store {
	return NewStore(ttl, logger.NewNop())
}

func TestCreateOrAttachDeduplicates(t *testing.T) {
	store := newTestStore(time.Minute)

	first, created := store.CreateOrAttach("fp-1")
	if !created {
		t.Fatal("first CreateOrAttach did not create")
	}
	second, created := store.CreateOrAttach("fp-1")
	if created {
		t.Error("second CreateOrAttach created a duplicate job")
	}
	if first.ID != second.ID {
		t.Errorf("attached to job %s, want %s", second.ID, first.ID)
	}

	other, created := store.CreateOrAttach("fp-2")
	if !created || other.ID == first.ID {
		t.Error("distinct fingerprint did not get its own job")
	}
}

func TestCreateOrAttachReplacesExpired(t *testing.T) {
	store := newTestStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	first, _ := store.CreateOrAttach("fp")
	current = current.Add(2 * time.Minute)
	second, created := store.CreateOrAttach("fp")
	if !created {
		t.Fatal("expired job was attached to instead of replaced")
	}
	if first.ID == second.ID {
		t.Error("replacement job reused the expired id")
	}
}

func TestTransitionIsSingleShot(t *testing.T) {
	store := newTestStore(time.Minute)
	job, _ := store.CreateOrAttach("fp")

	payload := &domain.RoundResult{PoolSize: 42}
	store.Complete(job.ID, payload)
	store.Fail(job.ID, "too late") // ignored: already ready

	view, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if view.Status != StatusReady {
		t.Errorf("status = %s, want ready", view.Status)
	}
	if view.Payload == nil || view.Payload.PoolSize != 42 {
		t.Errorf("payload = %+v, want the completed result", view.Payload)
	}

	select {
	case <-job.Done():
	default:
		t.Error("done channel still open after the transition")
	}
}

func TestFailRecordsError(t *testing.T) {
	store := newTestStore(time.Minute)
	job, _ := store.CreateOrAttach("fp")
	store.Fail(job.ID, "pipeline exploded")

	view, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if view.Status != StatusFailed || view.Error != "pipeline exploded" {
		t.Errorf("view = %+v, want failed with the error string", view)
	}
}

func TestGetUnknownOrExpired(t *testing.T) {
	store := newTestStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	if _, err := store.Get("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrJobNotFound", err)
	}

	job, _ := store.CreateOrAttach("fp")
	current = current.Add(2 * time.Minute)
	if _, err := store.Get(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrJobNotFound", err)
	}
}

func TestSweepDropsExpired(t *testing.T) {
	store := newTestStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.CreateOrAttach("fp-old")
	current = current.Add(2 * time.Minute)
	keep, _ := store.CreateOrAttach("fp-new")

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if _, err := store.Get(keep.ID); err != nil {
		t.Errorf("live job swept: %v", err)
	}
}
