package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/entity"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/world"
)

// PlayerSystem ticks players, crowns the kill leader and performs interest
// management for players, structures and npcs.
type PlayerSystem struct {
	players    *entity.PlayerRepository
	structures *entity.StructureRepository
	npcs       *entity.NpcRepository
}

func NewPlayerSystem(players *entity.PlayerRepository, structures *entity.StructureRepository, npcs *entity.NpcRepository) *PlayerSystem {
	return &PlayerSystem{players: players, structures: structures, npcs: npcs}
}

func (s *PlayerSystem) Name() string { return "player" }

func (s *PlayerSystem) Update(current state.GameState, dt time.Duration) (state.GameState, error) {
	players := s.players.All()

	var leader *entity.Player
	for _, player := range players {
		player.Tick(dt)
		player.SetIcon(0)
		if player.Alive() && (leader == nil || player.Props().Kills > leader.Props().Kills) {
			leader = player
		}
	}
	if leader != nil {
		leader.SetIcon(world.LeaderIcon)
	}

	snapshots := make([]state.PlayerState, 0, len(players))
	for _, player := range players {
		snapshots = append(snapshots, player.ToState())
	}

	for _, observer := range players {
		s.syncObserver(observer, players)
	}
	return current.WithPlayers(snapshots), nil
}

func (s *PlayerSystem) syncObserver(observer *entity.Player, players []*entity.Player) {
	batch := make([]any, 0, len(players)*13)
	for _, subject := range players {
		if !subject.Alive() || !observer.CanSee(subject) {
			continue
		}
		if subject.MarkSentTo(observer.ID()) {
			observer.Send(proto.ServerAddPlayer, subject.Data(), subject == observer)
		}
		batch = append(batch, subject.Info()...)
	}
	observer.Send(proto.ServerPlayerBatch, batch)

	if s.structures != nil {
		var structures []any
		for _, structure := range s.structures.VisibleTo(observer) {
			if structure.MarkSentTo(observer.ID()) {
				structures = append(structures, structure.NetworkPayload()...)
			}
		}
		if len(structures) > 0 {
			observer.Send(proto.ServerStructures, structures)
		}
	}

	if s.npcs != nil {
		var npcs []any
		for _, npc := range s.npcs.VisibleTo(observer) {
			npcs = append(npcs, npc.NetworkPayload()...)
		}
		if len(npcs) == 0 {
			observer.Send(proto.ServerAnimals, nil)
			return
		}
		observer.Send(proto.ServerAnimals, npcs)
	}
}
