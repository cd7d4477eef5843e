package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/state"
)

// MapSystem folds the static map cells into the state exactly once. A nil
// source result is retried on the next tick.
type MapSystem struct {
	source      func() []state.MapCellState
	initialized bool
}

func NewMapSystem(source func() []state.MapCellState) *MapSystem {
	return &MapSystem{source: source}
}

func (s *MapSystem) Name() string { return "map" }

func (s *MapSystem) Update(current state.GameState, _ time.Duration) (state.GameState, error) {
	if s.initialized || s.source == nil {
		return current, nil
	}
	cells := s.source()
	if cells == nil {
		return current, nil
	}
	s.initialized = true
	return current.WithMapCells(cells), nil
}
