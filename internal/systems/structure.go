package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/entity"
	"github.com/al007ex/moomoo-clone/internal/state"
)

// StructureSystem serializes structures and prunes the ones destroyed since
// the previous tick.
type StructureSystem struct {
	structures *entity.StructureRepository
	prune      func() int
}

func NewStructureSystem(structures *entity.StructureRepository, prune func() int) *StructureSystem {
	return &StructureSystem{structures: structures, prune: prune}
}

func (s *StructureSystem) Name() string { return "structure" }

func (s *StructureSystem) Update(current state.GameState, _ time.Duration) (state.GameState, error) {
	all := s.structures.All()
	snapshots := make([]state.EntityState, 0, len(all))
	for _, structure := range all {
		snapshots = append(snapshots, structure.ToState())
	}
	if s.prune != nil {
		s.prune()
	}
	return current.WithEntities(state.KindStructures, snapshots), nil
}
