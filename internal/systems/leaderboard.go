package systems

import (
	"sort"
	"time"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/state"
)

const DefaultLeaderboardSize = 10

// LeaderboardSystem ranks living players by points every tick.
type LeaderboardSystem struct {
	broadcaster Broadcaster
	size        int
}

func NewLeaderboardSystem(broadcaster Broadcaster, size int) *LeaderboardSystem {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &LeaderboardSystem{broadcaster: broadcaster, size: size}
}

func (s *LeaderboardSystem) Name() string { return "leaderboard" }

// Update keeps the prior relative order among equal scores.
func (s *LeaderboardSystem) Update(current state.GameState, _ time.Duration) (state.GameState, error) {
	var alive []state.PlayerState
	for _, player := range current.Players() {
		if player.Alive {
			alive = append(alive, player)
		}
	}
	sort.SliceStable(alive, func(i, j int) bool {
		return alive[i].Points > alive[j].Points
	})
	if len(alive) > s.size {
		alive = alive[:s.size]
	}

	entries := make([]state.LeaderboardEntry, 0, len(alive))
	flat := make([]any, 0, len(alive)*3)
	for _, player := range alive {
		entries = append(entries, state.LeaderboardEntry{SID: player.SID, Name: player.Name, Points: player.Points})
		flat = append(flat, player.SID, player.Name, player.Points)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(proto.ServerLeaderboard, flat)
	}
	return current.WithLeaderboard(entries), nil
}
