package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/entity"
	"github.com/al007ex/moomoo-clone/internal/sim"
	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/world"
)

// Pipeline is the repository set and ordered system list for one world.
type Pipeline struct {
	Players     *entity.PlayerRepository
	Structures  *entity.StructureRepository
	Npcs        *entity.NpcRepository
	Projectiles *entity.ProjectileRepository
	Systems     []sim.System
}

type PipelineOptions struct {
	LeaderboardSize int
	MinimapInterval time.Duration
}

// NewPipeline wires the default system order: map, player, structure,
// projectile, ai, leaderboard, minimap.
func NewPipeline(w *world.World, opts PipelineOptions) *Pipeline {
	cfg := w.Config()
	players := entity.NewPlayerRepository(w.Players, entity.NewPlayerFactory(entity.MapBounds(cfg.MapScale)))
	structures := entity.NewStructureRepository(w.Structures, entity.NewStructureFactory())
	npcs := entity.NewNpcRepository(w.Animals)
	projectiles := entity.NewProjectileRepository(w.Projectiles)

	recipients := func() []Recipient {
		all := players.All()
		out := make([]Recipient, 0, len(all))
		for _, player := range all {
			out = append(out, player)
		}
		return out
	}

	return &Pipeline{
		Players:     players,
		Structures:  structures,
		Npcs:        npcs,
		Projectiles: projectiles,
		Systems: []sim.System{
			NewMapSystem(func() []state.MapCellState { return mapCellStates(w.MapCells()) }),
			NewPlayerSystem(players, structures, npcs),
			NewStructureSystem(structures, w.PruneStructures),
			NewProjectileSystem(projectiles, w.PruneProjectiles),
			NewAiSystem(w.UpdateAnimals, npcs, w.PruneAnimals),
			NewLeaderboardSystem(w, opts.LeaderboardSize),
			NewMinimapSystem(recipients, opts.MinimapInterval),
		},
	}
}

func mapCellStates(cells []world.MapCell) []state.MapCellState {
	if cells == nil {
		return nil
	}
	out := make([]state.MapCellState, len(cells))
	for i, cell := range cells {
		out[i] = state.MapCellState{
			ID:       cell.ID,
			X:        cell.X,
			Y:        cell.Y,
			Terrain:  cell.Terrain,
			Metadata: cell.Metadata,
		}
	}
	return out
}
