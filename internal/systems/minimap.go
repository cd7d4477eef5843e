package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/state"
)

const MinMinimapInterval = 16 * time.Millisecond

// MinimapSystem broadcasts living player positions on an interval. Each
// recipient receives everyone but itself.
type MinimapSystem struct {
	recipients func() []Recipient
	interval   time.Duration
	elapsed    time.Duration
}

func NewMinimapSystem(recipients func() []Recipient, interval time.Duration) *MinimapSystem {
	return &MinimapSystem{recipients: recipients, interval: max(MinMinimapInterval, interval)}
}

func (s *MinimapSystem) Name() string { return "minimap" }

func (s *MinimapSystem) Interval() time.Duration { return s.interval }

func (s *MinimapSystem) Update(current state.GameState, dt time.Duration) (state.GameState, error) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return current, nil
	}
	s.elapsed = 0

	var entries []state.MinimapEntry
	for _, player := range current.Players() {
		if player.Alive {
			entries = append(entries, state.MinimapEntry{SID: player.SID, X: player.X, Y: player.Y})
		}
	}

	if s.recipients != nil {
		for _, recipient := range s.recipients() {
			payload := make([]any, 0, len(entries)*2)
			for _, entry := range entries {
				if entry.SID != recipient.SID() {
					payload = append(payload, entry.X, entry.Y)
				}
			}
			if len(payload) > 0 {
				recipient.Send(proto.ServerMinimap, payload)
			}
		}
	}
	return current.WithMinimap(entries), nil
}
