package entity

import (
	"fmt"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/world"
)

type StructureProps struct {
	ID        string
	SID       int
	Type      int
	ItemID    int
	Position  Position
	Direction float64
	Scale     float64
	Active    bool
	OwnerSID  int
	HasOwner  bool
}

// StructureFactory normalizes raw structures.
type StructureFactory struct {
	DefaultDirection float64
	MinScale         float64
	MaxScale         float64
}

func NewStructureFactory() StructureFactory {
	return StructureFactory{MinScale: 1, MaxScale: 500}
}

func (f StructureFactory) Props(raw *world.Structure) StructureProps {
	if raw == nil {
		return StructureProps{SID: -1, Type: world.TypeBuilt, ItemID: -1}
	}
	dir := raw.Dir
	if !world.Finite(dir) {
		dir = f.DefaultDirection
	}
	scale := raw.Scale
	if !world.Finite(scale) {
		scale = f.MinScale
	}
	if f.MaxScale > f.MinScale {
		scale = world.Clamp(scale, f.MinScale, f.MaxScale)
	}
	props := StructureProps{
		ID:        fmt.Sprintf("structure-%d", raw.SID),
		SID:       raw.SID,
		Type:      raw.Type,
		ItemID:    raw.ItemID,
		Position:  finitePosition(raw.X, raw.Y),
		Direction: dir,
		Scale:     scale,
		Active:    raw.Active,
	}
	props.OwnerSID, props.HasOwner = raw.OwnerSID()
	return props
}

func (f StructureFactory) FromRaw(raw *world.Structure) *Structure {
	return &Structure{raw: raw, factory: f, props: f.Props(raw)}
}

// Structure is the validated view of a resource or built item.
type Structure struct {
	raw     *world.Structure
	factory StructureFactory
	props   StructureProps
}

func (s *Structure) Raw() *world.Structure { return s.raw }

func (s *Structure) Props() StructureProps { return s.props }

func (s *Structure) Active() bool { return s.props.Active }

func (s *Structure) Location() (float64, float64) {
	return s.props.Position.X, s.props.Position.Y
}

func (s *Structure) Radius() float64 { return s.props.Scale }

func (s *Structure) RefreshFromRaw() {
	s.props = s.factory.Props(s.raw)
}

// CanBeSeenBy combines the concealment rule with the observer's viewport.
func (s *Structure) CanBeSeenBy(observer *Player) bool {
	if s.raw == nil || observer == nil {
		return false
	}
	return s.raw.VisibleTo(observer.Raw()) && observer.CanSee(s)
}

func (s *Structure) MarkSentTo(observerID string) bool {
	if s.raw == nil {
		return false
	}
	return s.raw.SentTo.Mark(observerID)
}

// NetworkPayload is the flat tuple appended to the structure batch. Natural
// resources carry their type and no item id; built items the reverse.
func (s *Structure) NetworkPayload() []any {
	var kind, item any
	if s.props.Type >= 0 {
		kind = s.props.Type
	}
	if s.props.ItemID >= 0 {
		item = s.props.ItemID
	}
	owner := -1
	if s.props.HasOwner {
		owner = s.props.OwnerSID
	}
	return []any{
		s.props.SID,
		fix(s.props.Position.X, 1),
		fix(s.props.Position.Y, 1),
		fix(s.props.Direction, 3),
		s.props.Scale,
		kind,
		item,
		owner,
	}
}

func (s *Structure) ToState() state.EntityState {
	var owner any
	if s.props.HasOwner {
		owner = s.props.OwnerSID
	}
	return state.EntityState{
		ID:   s.props.ID,
		Type: structureTypeName(s.props.Type),
		X:    s.props.Position.X,
		Y:    s.props.Position.Y,
		Payload: map[string]any{
			"dir":      s.props.Direction,
			"scale":    s.props.Scale,
			"ownerSid": owner,
			"itemId":   s.props.ItemID,
			"active":   s.props.Active,
		},
	}
}

func structureTypeName(kind int) string {
	switch kind {
	case world.TypeTree:
		return "tree"
	case world.TypeBush:
		return "bush"
	case world.TypeRock:
		return "rock"
	case world.TypeGold:
		return "gold"
	default:
		return "item"
	}
}
