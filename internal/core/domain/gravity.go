package domain

import "fmt"

// Player identifies one of the two seats in a game session.
type Player string

const (
	Player1 Player = "player1"
	Player2 Player = "player2"
)

// ParsePlayer validates a raw player identifier.
func ParsePlayer(raw string) (Player, error) {
	switch Player(raw) {
	case Player1:
		return Player1, nil
	case Player2:
		return Player2, nil
	}
	return "", fmt.Errorf("domain: unknown player %q", raw)
}

// Other returns the opposing seat.
func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// PlayerGravityMap holds both players' gravity scalars for a session.
type PlayerGravityMap struct {
	Player1 float64 `json:"player1"`
	Player2 float64 `json:"player2"`
}

// Get returns the gravity for the given player.
func (m PlayerGravityMap) Get(p Player) float64 {
	if p == Player2 {
		return m.Player2
	}
	return m.Player1
}

// With returns a copy of the map with the given player's gravity replaced.
func (m PlayerGravityMap) With(p Player, g float64) PlayerGravityMap {
	if p == Player2 {
		m.Player2 = g
	} else {
		m.Player1 = g
	}
	return m
}

// GravityConfig holds the tunables of the gravity mechanic. The
// hard-convergence threshold and vicinity margin came out of play-testing;
// they are named configuration, not invariants.
type GravityConfig struct {
	Min             float64 `koanf:"min"`
	Max             float64 `koanf:"max"`
	Initial         float64 `koanf:"initial"`
	StepCloser      float64 `koanf:"step_closer"`
	StepFurther     float64 `koanf:"step_further"`
	StepNeutral     float64 `koanf:"step_neutral"`
	HardConvergence float64 `koanf:"hard_convergence"`
	VicinityMargin  float64 `koanf:"vicinity_margin"`
}

// DefaultGravityConfig returns the default gravity tuning.
func DefaultGravityConfig() GravityConfig {
	return GravityConfig{
		Min:             0.15,
		Max:             0.70,
		Initial:         0.30,
		StepCloser:      0.05,
		StepFurther:     -0.03,
		StepNeutral:     0,
		HardConvergence: 0.59,
		VicinityMargin:  0.05,
	}
}

// Clamp bounds a gravity value to the configured range.
func (c GravityConfig) Clamp(g float64) float64 {
	if g < c.Min {
		return c.Min
	}
	if g > c.Max {
		return c.Max
	}
	return g
}

// Step advances a gravity value for a committed choice of the given category
// and re-clamps the result.
func (c GravityConfig) Step(g float64, category Category) float64 {
	switch category {
	case CategoryCloser:
		g += c.StepCloser
	case CategoryFurther:
		g += c.StepFurther
	case CategoryNeutral:
		g += c.StepNeutral
	}
	return c.Clamp(g)
}

// HardConverged reports whether a gravity value has crossed the
// hard-convergence threshold that permits direct target exposure.
func (c GravityConfig) HardConverged(g float64) bool {
	return g > c.HardConvergence
}

// InVicinity reports whether a gravity value is within the warning margin of
// the hard-convergence threshold. The UI uses this to warn the opposing
// player.
func (c GravityConfig) InVicinity(g float64) bool {
	return g >= c.HardConvergence-c.VicinityMargin
}
