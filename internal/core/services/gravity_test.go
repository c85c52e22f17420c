package services

import (
	"sync"
	"testing"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

func newTestGravity() *GravityService {
	return NewGravityService(domain.DefaultGravityConfig(), logger.NewNop())
}

func TestGravityServiceInitializesToInitial(t *testing.T) {
	svc := newTestGravity()
	got := svc.Get("session-1")
	want := domain.PlayerGravityMap{Player1: 0.30, Player2: 0.30}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestGravityServiceCommit(t *testing.T) {
	svc := newTestGravity()

	updated, err := svc.Commit("session-1", domain.Player1, domain.CategoryCloser)
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if diff := updated.Player1 - 0.35; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("player1 gravity = %f, want 0.35", updated.Player1)
	}
	if updated.Player2 != 0.30 {
		t.Errorf("player2 gravity moved to %f on player1's commit", updated.Player2)
	}

	// Sessions do not share state.
	other := svc.Get("session-2")
	if other.Player1 != 0.30 {
		t.Errorf("session-2 gravity = %f, want untouched 0.30", other.Player1)
	}
}

func TestGravityServiceCommitClamps(t *testing.T) {
	svc := newTestGravity()
	var last domain.PlayerGravityMap
	for i := 0; i < 20; i++ {
		last, _ = svc.Commit("s", domain.Player1, domain.CategoryCloser)
	}
	if last.Player1 != 0.70 {
		t.Errorf("gravity = %f after 20 closer commits, want clamped 0.70", last.Player1)
	}
	for i := 0; i < 40; i++ {
		last, _ = svc.Commit("s", domain.Player1, domain.CategoryFurther)
	}
	if last.Player1 != 0.15 {
		t.Errorf("gravity = %f after 40 further commits, want clamped 0.15", last.Player1)
	}
}

func TestGravityServiceCommitValidation(t *testing.T) {
	svc := newTestGravity()
	if _, err := svc.Commit("s", domain.Player("player3"), domain.CategoryCloser); err == nil {
		t.Error("Commit() accepted an unknown player")
	}
	if _, err := svc.Commit("s", domain.Player1, domain.Category("SIDEWAYS")); err == nil {
		t.Error("Commit() accepted an unknown category")
	}
}

func TestGravityServiceReset(t *testing.T) {
	svc := newTestGravity()
	_, _ = svc.Commit("s", domain.Player2, domain.CategoryCloser)
	got := svc.Reset("s")
	if got.Player1 != 0.30 || got.Player2 != 0.30 {
		t.Errorf("Reset() = %+v, want both at 0.30", got)
	}
}

func TestGravityServiceConcurrentCommits(t *testing.T) {
	svc := newTestGravity()
	const commits = 4 // 0.30 + 4*0.05 = 0.50, safely inside the bounds

	var wg sync.WaitGroup
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Commit("s", domain.Player1, domain.CategoryCloser); err != nil {
				t.Errorf("Commit() error: %v", err)
			}
		}()
	}
	wg.Wait()

	got := svc.Get("s").Player1
	if diff := got - 0.50; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("gravity = %f after %d concurrent commits, want 0.50", got, commits)
	}
}
