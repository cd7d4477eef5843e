package entity

import (
	"fmt"
	"math"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/world"
)

type NpcProps struct {
	SID       int
	Index     int
	Position  Position
	Direction float64
	Health    float64
	NameIndex int
	Alive     bool
	Active    bool
}

func npcProps(raw *world.Animal) NpcProps {
	if raw == nil {
		return NpcProps{SID: -1}
	}
	dir := raw.Dir
	if !world.Finite(dir) {
		dir = 0
	}
	return NpcProps{
		SID:       raw.SID,
		Index:     raw.Index,
		Position:  finitePosition(raw.X, raw.Y),
		Direction: dir,
		Health:    math.Max(0, raw.Health),
		NameIndex: max(0, raw.NameIndex),
		Alive:     raw.Alive,
		Active:    raw.Active,
	}
}

// Npc is the validated view of one world animal.
type Npc struct {
	raw   *world.Animal
	props NpcProps
}

func NewNpc(raw *world.Animal) *Npc {
	return &Npc{raw: raw, props: npcProps(raw)}
}

func (n *Npc) Raw() *world.Animal { return n.raw }

func (n *Npc) Props() NpcProps { return n.props }

func (n *Npc) Alive() bool { return n.props.Alive }

func (n *Npc) ID() string { return fmt.Sprintf("npc-%d", n.props.SID) }

func (n *Npc) Location() (float64, float64) {
	return n.props.Position.X, n.props.Position.Y
}

func (n *Npc) Radius() float64 {
	if n.raw == nil {
		return 0
	}
	return n.raw.Scale
}

func (n *Npc) RefreshFromRaw() {
	n.props = npcProps(n.raw)
}

// VisibleTo reports whether observer should receive this npc.
func (n *Npc) VisibleTo(observer *Player) bool {
	return n.props.Alive && observer != nil && observer.CanSee(n)
}

// NetworkPayload is the flat tuple appended to the npc batch.
func (n *Npc) NetworkPayload() []any {
	return []any{
		n.props.SID,
		n.props.Index,
		fix(n.props.Position.X, 1),
		fix(n.props.Position.Y, 1),
		fix(n.props.Direction, 3),
		math.Round(n.props.Health),
		n.props.NameIndex,
	}
}

func (n *Npc) ToState() state.EntityState {
	return state.EntityState{
		ID:   n.ID(),
		Type: "npc",
		X:    n.props.Position.X,
		Y:    n.props.Position.Y,
		Payload: map[string]any{
			"index":     n.props.Index,
			"dir":       n.props.Direction,
			"health":    n.props.Health,
			"nameIndex": n.props.NameIndex,
			"alive":     n.props.Alive,
		},
	}
}
