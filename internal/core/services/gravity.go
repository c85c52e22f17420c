package services

import (
	"fmt"
	"sync"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

// GravityService owns per-session gravity state. Each session has its own
// lock so commits for one session serialize without blocking other
// sessions; a committed choice advances exactly one player's gravity exactly
// once.
type GravityService struct {
	cfg domain.GravityConfig
	log *logger.Logger

	mu       sync.Mutex
	sessions map[string]*sessionGravity
}

type sessionGravity struct {
	mu      sync.Mutex
	gravity domain.PlayerGravityMap
}

// NewGravityService constructs the gravity service.
func NewGravityService(cfg domain.GravityConfig, log *logger.Logger) *GravityService {
	if cfg == (domain.GravityConfig{}) {
		cfg = domain.DefaultGravityConfig()
	}
	return &GravityService{
		cfg:      cfg,
		log:      log.With("component", "gravity"),
		sessions: make(map[string]*sessionGravity),
	}
}

func (s *GravityService) session(sessionID string) *sessionGravity {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &sessionGravity{
			gravity: domain.PlayerGravityMap{Player1: s.cfg.Initial, Player2: s.cfg.Initial},
		}
		s.sessions[sessionID] = sess
	}
	return sess
}

// Get returns the current gravity map for a session, initializing it on
// first access.
func (s *GravityService) Get(sessionID string) domain.PlayerGravityMap {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.gravity
}

// Reset returns a session's gravity to the configured initial value for
// both players.
func (s *GravityService) Reset(sessionID string) domain.PlayerGravityMap {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.gravity = domain.PlayerGravityMap{Player1: s.cfg.Initial, Player2: s.cfg.Initial}
	return sess.gravity
}

// Commit applies one committed choice to the given player's gravity and
// returns the updated map. The step is derived from the chosen option's
// category and the result is re-clamped to the configured bounds.
func (s *GravityService) Commit(sessionID string, player domain.Player, category domain.Category) (domain.PlayerGravityMap, error) {
	if _, err := domain.ParsePlayer(string(player)); err != nil {
		return domain.PlayerGravityMap{}, fmt.Errorf("gravity: %w", err)
	}
	if !category.Valid() {
		return domain.PlayerGravityMap{}, fmt.Errorf("gravity: unknown category %q", category)
	}

	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.gravity.Get(player)
	after := s.cfg.Step(before, category)
	sess.gravity = sess.gravity.With(player, after)

	s.log.Info("gravity committed",
		"session_id", sessionID,
		"player", player,
		"category", category,
		"before", before,
		"after", after,
	)
	return sess.gravity, nil
}

// InVicinity reports whether the player's gravity sits within the warning
// margin of the hard-convergence threshold.
func (s *GravityService) InVicinity(sessionID string, player domain.Player) bool {
	return s.cfg.InVicinity(s.Get(sessionID).Get(player))
}

// Forget drops a session's gravity state, for session teardown.
func (s *GravityService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
