package world

import (
	"fmt"
	"math"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
)

const (
	platformItemID   = 18
	placeOffset      = 35.0
	resourceAttempts = 40
)

// CheckItemLocation reports whether an object of scale fits at x, y without
// overlapping an active structure. Only itemID 18 may sit in the river band
// unless ignoreWater is set.
func (w *World) CheckItemLocation(x, y, scale, scaleMult float64, itemID int, ignoreWater bool) bool {
	limit := w.config.MapScale
	if x < scale || y < scale || x > limit-scale || y > limit-scale {
		return false
	}
	for _, structure := range w.Structures() {
		if !structure.Active {
			continue
		}
		if Distance(x, y, structure.X, structure.Y) < scale+structure.collisionScale(scaleMult) {
			return false
		}
	}
	if !ignoreWater && itemID != platformItemID && w.inRiver(y, scale) {
		return false
	}
	return true
}

func (w *World) inRiver(y, scale float64) bool {
	mid := w.config.MapScale / 2
	half := w.config.RiverWidth / 2
	return y >= mid-half-scale/2 && y <= mid+half+scale/2
}

func (w *World) inSnow(y float64) bool {
	return y <= w.config.SnowBiomeTop
}

func (w *World) placeStructure(p *Player, item Item) bool {
	distance := p.Scale + item.Scale + placeOffset
	x := p.X + distance*math.Cos(p.Dir)
	y := p.Y + distance*math.Sin(p.Dir)
	if !w.CheckItemLocation(x, y, item.Scale, 0.6, item.ID, false) {
		return false
	}
	w.addStructure(TypeBuilt, item.ID, x, y, p.Dir, item.Scale, item.Health, item.HideFromEnemy, p)
	return true
}

func (w *World) addStructure(kind, itemID int, x, y, dir, scale, health float64, hidden bool, owner *Player) *Structure {
	w.mu.Lock()
	defer w.mu.Unlock()
	sid, _ := w.structureSlots.Acquire()
	structure := &Structure{
		SID:           sid,
		ItemID:        itemID,
		Type:          kind,
		X:             x,
		Y:             y,
		Dir:           dir,
		Scale:         scale,
		Health:        health,
		Active:        true,
		Owner:         owner,
		hideFromEnemy: hidden,
	}
	w.structures = append(w.structures, structure)
	return structure
}

// damageStructure removes a built structure once its health runs out.
func (w *World) damageStructure(s *Structure, damage float64, attacker *Player) {
	if s == nil || !s.Active || s.Type != TypeBuilt || damage <= 0 {
		return
	}
	s.Health -= damage
	if s.Health > 0 {
		return
	}
	s.Active = false
	w.Broadcast(proto.ServerRemoveStructure, s.SID)
	if attacker != nil && attacker != s.Owner {
		attacker.EarnXP(s.Scale)
	}
}

func (w *World) removeOwnedStructures(owner *Player) {
	for _, structure := range w.Structures() {
		if structure.Owner == owner {
			structure.Active = false
		}
	}
	w.Broadcast(proto.ServerRemoveOwned, owner.SID)
	w.PruneStructures()
}

// PruneStructures drops inactive structures and frees their slots.
func (w *World) PruneStructures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.structures[:0]
	removed := 0
	for _, structure := range w.structures {
		if structure.Active {
			kept = append(kept, structure)
			continue
		}
		w.structureSlots.Release(structure.SID)
		removed++
	}
	clear(w.structures[len(kept):])
	w.structures = kept
	return removed
}

func (w *World) inSwing(p *Player, v Visible, reach float64) bool {
	x, y := v.Location()
	if Distance(p.X, p.Y, x, y) > reach+v.Radius() {
		return false
	}
	return AngleDistance(Direction(p.X, p.Y, x, y), p.Dir) <= gatherAngle
}

// meleeSwing resolves one melee hit against every target inside the arc.
func (w *World) meleeSwing(p *Player, weapon Weapon) {
	reach := weapon.Range + p.Scale
	for _, structure := range w.Structures() {
		if !structure.Active || !w.inSwing(p, structure, reach) {
			continue
		}
		switch structure.Type {
		case TypeBuilt:
			w.damageStructure(structure, weapon.Damage, p)
		case TypeTree, TypeBush, TypeRock:
			gathered := int(weapon.Gather)
			if gathered <= 0 {
				continue
			}
			p.addResource(structure.Type, gathered)
			p.EarnXP(float64(gathered * gatherXPFactor))
			p.WeaponXP[weapon.Type] += float64(gathered)
		case TypeGold:
			gathered := int(weapon.Gather)
			if gathered <= 0 {
				continue
			}
			p.AddPoints(gathered * 5)
			p.EarnXP(float64(gathered * gatherXPFactor))
			p.WeaponXP[weapon.Type] += float64(gathered * 5)
		}
	}
	for _, animal := range w.Animals() {
		if animal.Active && w.inSwing(p, animal, reach) {
			animal.ChangeHealth(-weapon.Damage, p)
		}
	}
	for _, target := range w.Players() {
		if target == p || !target.Alive || !w.inSwing(p, target, reach) {
			continue
		}
		if p.Team != "" && p.Team == target.Team {
			continue
		}
		target.ChangeHealth(-weapon.Damage, p)
	}
}

func (w *World) seedResources() {
	cfg := w.config
	areaSize := cfg.MapScale / float64(max(cfg.AreaCount, 1))
	for ax := 0; ax < cfg.AreaCount; ax++ {
		for ay := 0; ay < cfg.AreaCount; ay++ {
			minX, minY := float64(ax)*areaSize, float64(ay)*areaSize
			w.scatter(TypeTree, cfg.TreesPerArea, cfg.TreeScales, minX, minY, areaSize, func(y, scale float64) bool {
				return !w.inRiver(y, scale) && !w.inSnow(y)
			})
			w.scatter(TypeBush, cfg.BushesPerArea, cfg.BushScales, minX, minY, areaSize, func(y, scale float64) bool {
				return !w.inRiver(y, scale)
			})
		}
	}
	w.scatter(TypeRock, cfg.TotalRocks, cfg.RockScales, 0, 0, cfg.MapScale, nil)
	w.scatter(TypeGold, cfg.GoldOres, cfg.RockScales, 0, 0, cfg.MapScale, nil)
}

func (w *World) scatter(kind, count int, scales []float64, minX, minY, size float64, allowed func(y, scale float64) bool) {
	for placed := 0; placed < count; placed++ {
		for attempt := 0; attempt < resourceAttempts; attempt++ {
			scale := pick(w.rng, scales)
			x := randInt(w.rng, minX+scale, minX+size-scale)
			y := randInt(w.rng, minY+scale, minY+size-scale)
			if allowed != nil && !allowed(y, scale) {
				continue
			}
			if !w.CheckItemLocation(x, y, scale, 0.6, -1, true) {
				continue
			}
			w.addStructure(kind, -1, x, y, randFloat(w.rng, -math.Pi, math.Pi), scale, 0, false, nil)
			break
		}
	}
}

// MapCell is one static terrain cell of the arena grid.
type MapCell struct {
	ID       string         `json:"id" msgpack:"id"`
	X        float64        `json:"x" msgpack:"x"`
	Y        float64        `json:"y" msgpack:"y"`
	Terrain  string         `json:"terrain" msgpack:"terrain"`
	Metadata map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

const (
	TerrainSnow   = "snow"
	TerrainRiver  = "river"
	TerrainDesert = "desert"
	TerrainGrass  = "grass"
)

// MapCells returns a copy of the static terrain grid.
func (w *World) MapCells() []MapCell {
	return append([]MapCell(nil), w.mapCells...)
}

func buildMapCells(cfg Config) []MapCell {
	size := cfg.MapCellSize
	count := int(math.Ceil(cfg.MapScale / size))
	mid := cfg.MapScale / 2
	cells := make([]MapCell, 0, count*count)
	for row := 0; row < count; row++ {
		for col := 0; col < count; col++ {
			x, y := float64(col)*size, float64(row)*size
			centerY := y + size/2
			terrain := TerrainGrass
			switch {
			case centerY <= cfg.SnowBiomeTop:
				terrain = TerrainSnow
			case math.Abs(centerY-mid) <= cfg.RiverWidth/2+size/2:
				terrain = TerrainRiver
			case centerY >= cfg.MapScale-cfg.SnowBiomeTop:
				terrain = TerrainDesert
			}
			cells = append(cells, MapCell{
				ID:       cellID(col, row),
				X:        x,
				Y:        y,
				Terrain:  terrain,
				Metadata: map[string]any{"size": size},
			})
		}
	}
	return cells
}

func cellID(col, row int) string {
	return fmt.Sprintf("cell-%d-%d", col, row)
}
