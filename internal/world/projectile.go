package world

import (
	"math"
	"strconv"
	"time"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
)

const projectileHitRadius = 10.0

// Projectile is a fired shot travelling until its range is spent or it hits.
type Projectile struct {
	SID    int
	Index  int
	X, Y   float64
	Dir    float64
	Speed  float64
	Range  float64
	Damage float64
	Scale  float64
	Active bool
	Owner  *Player

	world *World
}

// ID is the stable identifier used in state snapshots.
func (p *Projectile) ID() string {
	return "projectile-" + strconv.Itoa(p.SID)
}

func (p *Projectile) Location() (float64, float64) {
	return p.X, p.Y
}

func (p *Projectile) Radius() float64 {
	return p.Scale
}

func (p *Projectile) OwnerSID() (int, bool) {
	if p.Owner == nil {
		return 0, false
	}
	return p.Owner.SID, true
}

// Update advances the projectile and resolves the first hit along its path.
func (p *Projectile) Update(dt time.Duration) {
	if p == nil || !p.Active {
		return
	}
	travel := math.Min(p.Speed*millis(dt), p.Range)
	p.X += math.Cos(p.Dir) * travel
	p.Y += math.Sin(p.Dir) * travel
	p.Range -= travel
	if p.world.resolveProjectileHit(p) || p.Range <= 0 {
		p.deactivate()
	}
}

func (p *Projectile) deactivate() {
	if !p.Active {
		return
	}
	p.Active = false
	p.world.broadcastVisible(p, proto.ServerRemoveProjectile, p.SID, FixTo(p.Range, 1))
}

func (w *World) fireProjectile(owner *Player, weapon Weapon) *Projectile {
	kind, ok := w.catalog.ProjectileKind(weapon.Projectile)
	if !ok {
		return nil
	}
	offset := owner.Scale
	w.mu.Lock()
	sid, _ := w.projectileSlots.Acquire()
	projectile := &Projectile{
		SID:    sid,
		Index:  kind.Index,
		X:      owner.X + math.Cos(owner.Dir)*offset,
		Y:      owner.Y + math.Sin(owner.Dir)*offset,
		Dir:    owner.Dir,
		Speed:  kind.Speed,
		Range:  kind.Range,
		Damage: kind.Damage,
		Scale:  kind.Scale,
		Active: true,
		Owner:  owner,
		world:  w,
	}
	w.projectiles = append(w.projectiles, projectile)
	w.mu.Unlock()

	w.broadcastVisible(projectile, proto.ServerAddProjectile,
		FixTo(projectile.X, 1), FixTo(projectile.Y, 1), FixTo(projectile.Dir, 3),
		projectile.Range, projectile.Speed, projectile.Index, 0, projectile.SID)
	return projectile
}

func (w *World) resolveProjectileHit(p *Projectile) bool {
	for _, player := range w.Players() {
		if !player.Alive || player == p.Owner {
			continue
		}
		if p.Owner != nil && p.Owner.Team != "" && p.Owner.Team == player.Team {
			continue
		}
		if Distance(p.X, p.Y, player.X, player.Y) <= player.Scale+projectileHitRadius {
			player.ChangeHealth(-p.Damage, p.Owner)
			return true
		}
	}
	for _, animal := range w.Animals() {
		if !animal.Active {
			continue
		}
		if Distance(p.X, p.Y, animal.X, animal.Y) <= animal.Scale+projectileHitRadius {
			animal.ChangeHealth(-p.Damage, p.Owner)
			return true
		}
	}
	for _, structure := range w.Structures() {
		if !structure.Active || structure.Type == TypeBush {
			continue
		}
		if Distance(p.X, p.Y, structure.X, structure.Y) <= structure.collisionScale(1) {
			if structure.Type == TypeBuilt {
				w.damageStructure(structure, p.Damage, p.Owner)
			}
			return true
		}
	}
	return false
}

// PruneProjectiles drops inactive projectiles and frees their slots.
func (w *World) PruneProjectiles() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.projectiles[:0]
	removed := 0
	for _, projectile := range w.projectiles {
		if projectile.Active {
			kept = append(kept, projectile)
			continue
		}
		w.projectileSlots.Release(projectile.SID)
		removed++
	}
	clear(w.projectiles[len(kept):])
	w.projectiles = kept
	return removed
}
