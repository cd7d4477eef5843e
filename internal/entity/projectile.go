package entity

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/world"
)

type ProjectileProps struct {
	ID        string
	SID       int
	Index     int
	Position  Position
	Direction float64
	Active    bool
	OwnerSID  int
	HasOwner  bool
}

func projectileProps(raw *world.Projectile) ProjectileProps {
	if raw == nil {
		return ProjectileProps{SID: -1}
	}
	props := ProjectileProps{
		ID:        raw.ID(),
		SID:       raw.SID,
		Index:     raw.Index,
		Position:  finitePosition(raw.X, raw.Y),
		Direction: raw.Dir,
		Active:    raw.Active,
	}
	props.OwnerSID, props.HasOwner = raw.OwnerSID()
	return props
}

// Projectile is the validated view of one projectile in flight.
type Projectile struct {
	raw   *world.Projectile
	props ProjectileProps
}

func NewProjectile(raw *world.Projectile) *Projectile {
	return &Projectile{raw: raw, props: projectileProps(raw)}
}

func (p *Projectile) Raw() *world.Projectile { return p.raw }

func (p *Projectile) Props() ProjectileProps { return p.props }

func (p *Projectile) Active() bool { return p.props.Active }

func (p *Projectile) RefreshFromRaw() {
	p.props = projectileProps(p.raw)
}

// Tick advances an active projectile and refreshes the view.
func (p *Projectile) Tick(dt time.Duration) {
	if p.raw == nil {
		return
	}
	if p.raw.Active {
		p.raw.Update(dt)
	}
	p.RefreshFromRaw()
}

func (p *Projectile) ToState() state.EntityState {
	var owner any
	if p.props.HasOwner {
		owner = p.props.OwnerSID
	}
	return state.EntityState{
		ID:   p.props.ID,
		Type: "projectile",
		X:    p.props.Position.X,
		Y:    p.props.Position.Y,
		Payload: map[string]any{
			"owner":  owner,
			"active": p.props.Active,
			"index":  p.props.Index,
			"dir":    p.props.Direction,
		},
	}
}
