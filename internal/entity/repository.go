package entity

import "github.com/al007ex/moomoo-clone/internal/world"

// refresher is implemented by every wrapper.
type refresher interface {
	RefreshFromRaw()
}

// Repository adapts a live collection of raw records into wrappers keyed by
// record identity. A wrapper is created the first time its record is seen,
// refreshed in place afterwards and evicted once the record disappears.
type Repository[R any, W refresher] struct {
	source func() []*R
	wrap   func(*R) W
	cache  map[*R]W
}

func NewRepository[R any, W refresher](source func() []*R, wrap func(*R) W) *Repository[R, W] {
	return &Repository[R, W]{source: source, wrap: wrap, cache: make(map[*R]W)}
}

// All returns the current wrappers in source order.
func (r *Repository[R, W]) All() []W {
	raws := r.source()
	out := make([]W, 0, len(raws))
	seen := make(map[*R]struct{}, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		wrapper, ok := r.cache[raw]
		if ok {
			wrapper.RefreshFromRaw()
		} else {
			wrapper = r.wrap(raw)
			r.cache[raw] = wrapper
		}
		out = append(out, wrapper)
	}
	for raw := range r.cache {
		if _, ok := seen[raw]; !ok {
			delete(r.cache, raw)
		}
	}
	return out
}

// Find returns the first wrapper accepted by match.
func (r *Repository[R, W]) Find(match func(W) bool) (W, bool) {
	for _, wrapper := range r.All() {
		if match(wrapper) {
			return wrapper, true
		}
	}
	var zero W
	return zero, false
}

// Cached reports how many wrappers are held.
func (r *Repository[R, W]) Cached() int {
	return len(r.cache)
}

type PlayerRepository struct {
	*Repository[world.Player, *Player]
}

func NewPlayerRepository(source func() []*world.Player, factory PlayerFactory) *PlayerRepository {
	return &PlayerRepository{NewRepository(source, factory.FromRaw)}
}

func (r *PlayerRepository) FindByID(id string) (*Player, bool) {
	return r.Find(func(p *Player) bool { return p.ID() == id })
}

func (r *PlayerRepository) Alive() []*Player {
	var out []*Player
	for _, player := range r.All() {
		if player.Alive() {
			out = append(out, player)
		}
	}
	return out
}

type NpcRepository struct {
	*Repository[world.Animal, *Npc]
}

func NewNpcRepository(source func() []*world.Animal) *NpcRepository {
	return &NpcRepository{NewRepository(source, NewNpc)}
}

func (r *NpcRepository) Alive() []*Npc {
	var out []*Npc
	for _, npc := range r.All() {
		if npc.Alive() {
			out = append(out, npc)
		}
	}
	return out
}

func (r *NpcRepository) VisibleTo(observer *Player) []*Npc {
	var out []*Npc
	for _, npc := range r.All() {
		if npc.VisibleTo(observer) {
			out = append(out, npc)
		}
	}
	return out
}

type StructureRepository struct {
	*Repository[world.Structure, *Structure]
}

func NewStructureRepository(source func() []*world.Structure, factory StructureFactory) *StructureRepository {
	return &StructureRepository{NewRepository(source, factory.FromRaw)}
}

// VisibleTo lists active structures observer may see.
func (r *StructureRepository) VisibleTo(observer *Player) []*Structure {
	var out []*Structure
	for _, structure := range r.All() {
		if structure.Active() && structure.CanBeSeenBy(observer) {
			out = append(out, structure)
		}
	}
	return out
}

type ProjectileRepository struct {
	*Repository[world.Projectile, *Projectile]
}

func NewProjectileRepository(source func() []*world.Projectile) *ProjectileRepository {
	return &ProjectileRepository{NewRepository(source, NewProjectile)}
}
