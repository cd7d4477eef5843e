package world

import (
	"math"
	"time"
)

const (
	animalDecel        = 0.993
	animalAggroRange   = 300.0
	animalHitCooldown  = 1000.0
	animalWaitMinMS    = 1500.0
	animalWaitMaxMS    = 6000.0
	animalMoveMinMS    = 4000.0
	animalMoveMaxMS    = 10000.0
	animalTurnMaxDelta = 0.6
	animalSpawnTries   = 40
)

// Animal is an AI-driven npc record.
type Animal struct {
	SID       int
	Index     int
	X, Y      float64
	Dir       float64
	Scale     float64
	Health    float64
	NameIndex int
	Alive     bool
	Active    bool

	kind     AnimalKind
	xVel     float64
	yVel     float64
	waitMS   float64
	moveMS   float64
	hitTimer float64
	world    *World
}

func (a *Animal) Location() (float64, float64) {
	return a.X, a.Y
}

func (a *Animal) Radius() float64 {
	return a.Scale
}

// Update wanders or chases, then applies velocity with map clamping.
func (a *Animal) Update(dt time.Duration) {
	if a == nil || !a.Active || !a.Alive {
		return
	}
	ms := millis(dt)
	a.hitTimer = cool(a.hitTimer, ms)
	moving := a.think(ms)
	if moving && a.kind.Speed > 0 {
		a.xVel += math.Cos(a.Dir) * a.kind.Speed * ms
		a.yVel += math.Sin(a.Dir) * a.kind.Speed * ms
	}
	decel := math.Pow(animalDecel, ms)
	a.xVel *= decel
	a.yVel *= decel
	limit := a.world.config.MapScale
	nx := a.X + a.xVel*ms
	ny := a.Y + a.yVel*ms
	if nx < a.Scale || nx > limit-a.Scale || ny < a.Scale || ny > limit-a.Scale {
		a.Dir += math.Pi
		a.xVel, a.yVel = -a.xVel, -a.yVel
	}
	a.X = Clamp(nx, a.Scale, limit-a.Scale)
	a.Y = Clamp(ny, a.Scale, limit-a.Scale)
}

func (a *Animal) think(ms float64) bool {
	rng := a.world.rng
	if a.kind.Hostile {
		if target := a.world.nearestLivingPlayer(a.X, a.Y, animalAggroRange); target != nil {
			a.Dir = Direction(a.X, a.Y, target.X, target.Y)
			if a.hitTimer <= 0 && Distance(a.X, a.Y, target.X, target.Y) <= a.Scale+target.Scale {
				a.hitTimer = animalHitCooldown
				target.ChangeHealth(-a.kind.Damage, nil)
			}
			return true
		}
	}
	if a.waitMS > 0 {
		a.waitMS -= ms
		if a.waitMS <= 0 {
			a.moveMS = randFloat(rng, animalMoveMinMS, animalMoveMaxMS)
			a.Dir = randFloat(rng, -math.Pi, math.Pi)
		}
		return false
	}
	a.moveMS -= ms
	if a.moveMS <= 0 {
		a.waitMS = randFloat(rng, animalWaitMinMS, animalWaitMaxMS)
		return false
	}
	if rng.Float64() < 0.01 {
		a.Dir += randFloat(rng, -animalTurnMaxDelta, animalTurnMaxDelta)
	}
	return true
}

// ChangeHealth damages or heals the animal. A kill credits the attacker.
func (a *Animal) ChangeHealth(delta float64, attacker *Player) bool {
	if !a.Alive || !Finite(delta) {
		return false
	}
	a.Health = Clamp(a.Health+delta, 0, a.kind.Health)
	if a.Health > 0 {
		if delta < 0 && !a.kind.Hostile {
			a.waitMS = 0
			a.moveMS = animalMoveMinMS
			if attacker != nil {
				a.Dir = Direction(attacker.X, attacker.Y, a.X, a.Y)
			}
		}
		return false
	}
	a.Alive = false
	a.Active = false
	if attacker != nil {
		attacker.AddPoints(a.kind.KillScore)
		attacker.EarnXP(float64(a.kind.KillScore))
	}
	return true
}

type spawnPlan struct {
	index     int
	desired   int
	positions [][2]float64
	next      int
}

func defaultSpawnPlan(mapScale float64) []spawnPlan {
	at := func(rx, ry float64) [][2]float64 {
		return [][2]float64{{math.Round(mapScale * rx), math.Round(mapScale * ry)}}
	}
	return []spawnPlan{
		{index: 0, desired: 6},
		{index: 1, desired: 4},
		{index: 4, desired: 3},
		{index: 5, desired: 2},
		{index: 2, desired: 2},
		{index: 3, desired: 1},
		{index: 6, desired: 1, positions: at(0.42, 0.72)},
		{index: 7, desired: 1, positions: at(0.18, 0.22)},
		{index: 8, desired: 1, positions: at(0.78, 0.64)},
	}
}

// UpdateAnimals ticks every active animal and tops the population up once per
// spawn check interval.
func (w *World) UpdateAnimals(dt time.Duration) {
	for _, animal := range w.Animals() {
		animal.Update(dt)
	}
	w.spawnCheckMS -= millis(dt)
	if w.spawnCheckMS <= 0 {
		w.spawnCheckMS = w.config.SpawnCheckMS
		w.EnsureAnimals()
	}
}

// EnsureAnimals spawns animals until every plan reaches its desired count.
func (w *World) EnsureAnimals() int {
	if !w.config.Animals {
		return 0
	}
	spawned := 0
	for i := range w.spawnPlan {
		plan := &w.spawnPlan[i]
		active := 0
		for _, animal := range w.Animals() {
			if animal.Active && animal.Index == plan.index {
				active++
			}
		}
		for safety := 0; active < plan.desired && safety < plan.desired*3; safety++ {
			x, y, ok := w.nextAnimalPosition(plan)
			if !ok {
				break
			}
			if w.spawnAnimal(plan.index, x, y, randFloat(w.rng, -math.Pi, math.Pi)) == nil {
				break
			}
			active++
			spawned++
		}
	}
	return spawned
}

func (w *World) nextAnimalPosition(plan *spawnPlan) (float64, float64, bool) {
	if _, ok := w.catalog.AnimalKind(plan.index); !ok {
		return 0, 0, false
	}
	if len(plan.positions) > 0 {
		pos := plan.positions[plan.next%len(plan.positions)]
		plan.next = (plan.next + 1) % len(plan.positions)
		if w.validAnimalSpawn(plan.index, pos[0], pos[1]) {
			return pos[0], pos[1], true
		}
	}
	return w.randomAnimalPosition(plan.index)
}

func (w *World) validAnimalSpawn(index int, x, y float64) bool {
	kind, ok := w.catalog.AnimalKind(index)
	if !ok {
		return false
	}
	scale := kind.Scale
	limit := w.config.MapScale
	if x < scale || y < scale || x > limit-scale || y > limit-scale {
		return false
	}
	if !w.CheckItemLocation(x, y, scale, 0.6, -1, false) {
		return false
	}
	for _, animal := range w.Animals() {
		if animal.Active && Distance(x, y, animal.X, animal.Y) < animal.Scale+scale {
			return false
		}
	}
	return true
}

func (w *World) randomAnimalPosition(index int) (float64, float64, bool) {
	kind, ok := w.catalog.AnimalKind(index)
	if !ok {
		return 0, 0, false
	}
	lo, hi := kind.Scale, w.config.MapScale-kind.Scale
	for attempt := 0; attempt < animalSpawnTries; attempt++ {
		x, y := randInt(w.rng, lo, hi), randInt(w.rng, lo, hi)
		if w.validAnimalSpawn(index, x, y) {
			return x, y, true
		}
	}
	return randInt(w.rng, lo, hi), randInt(w.rng, lo, hi), true
}

func (w *World) spawnAnimal(index int, x, y, dir float64) *Animal {
	kind, ok := w.catalog.AnimalKind(index)
	if !ok {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	sid, _ := w.animalSlots.Acquire()
	animal := &Animal{
		SID:    sid,
		Index:  index,
		X:      x,
		Y:      y,
		Dir:    dir,
		Scale:  kind.Scale,
		Health: kind.Health,
		Alive:  true,
		Active: true,
		kind:   kind,
		waitMS: randFloat(w.rng, animalWaitMinMS, animalWaitMaxMS),
		world:  w,
	}
	if kind.Named && len(w.catalog.AnimalNames) > 0 {
		animal.NameIndex = w.rng.Intn(len(w.catalog.AnimalNames))
	}
	w.animals = append(w.animals, animal)
	return animal
}

// PruneAnimals drops inactive animals and frees their slots.
func (w *World) PruneAnimals() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.animals[:0]
	removed := 0
	for _, animal := range w.animals {
		if animal.Active {
			kept = append(kept, animal)
			continue
		}
		w.animalSlots.Release(animal.SID)
		removed++
	}
	clear(w.animals[len(kept):])
	w.animals = kept
	return removed
}
