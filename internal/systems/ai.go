package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/entity"
	"github.com/al007ex/moomoo-clone/internal/state"
)

// AiSystem schedules the animal population routine inside the tick. The
// routine owns the behaviour and rate-limits its own spawn checks.
type AiSystem struct {
	updateAnimals func(dt time.Duration)
	npcs          *entity.NpcRepository
	prune         func() int
}

func NewAiSystem(updateAnimals func(time.Duration), npcs *entity.NpcRepository, prune func() int) *AiSystem {
	return &AiSystem{updateAnimals: updateAnimals, npcs: npcs, prune: prune}
}

func (s *AiSystem) Name() string { return "ai" }

func (s *AiSystem) Update(current state.GameState, dt time.Duration) (state.GameState, error) {
	if s.updateAnimals != nil {
		s.updateAnimals(dt)
	}
	if s.npcs == nil {
		return current, nil
	}
	all := s.npcs.All()
	snapshots := make([]state.EntityState, 0, len(all))
	for _, npc := range all {
		snapshots = append(snapshots, npc.ToState())
	}
	if s.prune != nil {
		s.prune()
	}
	return current.WithEntities(state.KindNPCs, snapshots), nil
}
