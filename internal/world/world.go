package world

import (
	"math/rand"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sasha-s/go-deadlock"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/transport"
)

// ErrNoFreeSlot reports that every player sid is taken.
var ErrNoFreeSlot = eris.New("no free player slot")

// Deps bundles runtime dependencies required to construct a World instance.
type Deps struct {
	Logger     telemetry.Logger
	RNG        RNGFactory
	Catalog    *Catalog
	ChatFilter ChatFilter
}

// World owns every mutable simulation record. Mutations run while holding
// SimulationLock; collections are additionally guarded for copy-on-iterate
// reads from other goroutines.
type World struct {
	config  Config
	catalog Catalog
	logger  telemetry.Logger
	filter  ChatFilter
	rng     *rand.Rand

	sim deadlock.Mutex
	mu  deadlock.RWMutex

	players     []*Player
	animals     []*Animal
	structures  []*Structure
	projectiles []*Projectile

	playerSlots     *SlotPool
	animalSlots     *SlotPool
	structureSlots  *SlotPool
	projectileSlots *SlotPool

	clans        *ClanManager
	spawnPlan    []spawnPlan
	spawnCheckMS float64
	mapCells     []MapCell
}

// New constructs a world, scatters the static resources and seeds the
// animal population.
func New(cfg Config, deps Deps) (*World, error) {
	normalized := cfg.normalized()
	if normalized.RiverWidth >= normalized.MapScale {
		return nil, eris.Errorf("river width %.0f exceeds map scale %.0f", normalized.RiverWidth, normalized.MapScale)
	}

	factory := deps.RNG
	if factory == nil {
		factory = NewDeterministicRNG
	}
	catalog := DefaultCatalog()
	if deps.Catalog != nil {
		catalog = *deps.Catalog
	}
	var filter ChatFilter = WordFilter{}
	if deps.ChatFilter != nil {
		filter = deps.ChatFilter
	}

	w := &World{
		config:          normalized,
		catalog:         catalog,
		logger:          deps.Logger,
		filter:          filter,
		rng:             factory(normalized.Seed, "world"),
		playerSlots:     NewSlotPool(normalized.MaxPlayersHard),
		animalSlots:     NewSlotPool(0),
		structureSlots:  NewSlotPool(0),
		projectileSlots: NewSlotPool(0),
		spawnPlan:       defaultSpawnPlan(normalized.MapScale),
		spawnCheckMS:    normalized.SpawnCheckMS,
	}
	w.clans = newClanManager(w)
	w.mapCells = buildMapCells(normalized)
	w.seedResources()
	w.EnsureAnimals()
	return w, nil
}

// SimulationLock serializes command mutation with simulation steps.
func (w *World) SimulationLock() sync.Locker {
	return &w.sim
}

func (w *World) Config() Config {
	if w == nil {
		return Config{}
	}
	return w.config
}

func (w *World) Catalog() Catalog {
	return w.catalog
}

func (w *World) Clans() *ClanManager {
	return w.clans
}

// FilterChat runs message through the configured chat filter.
func (w *World) FilterChat(message string) string {
	return w.filter.Filter(message)
}

func (w *World) logf(format string, args ...any) {
	if w == nil || w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}

// AddPlayer registers a connection and assigns the lowest free sid. The
// client receives its id and the clan list.
func (w *World) AddPlayer(socket transport.Socket) (*Player, error) {
	w.mu.Lock()
	sid, ok := w.playerSlots.Acquire()
	if !ok {
		w.mu.Unlock()
		return nil, ErrNoFreeSlot
	}
	player := newPlayer(w, randomString(w.rng, 16), sid, socket)
	w.players = append(w.players, player)
	w.mu.Unlock()

	player.Send(proto.ServerInit, player.ID)
	player.Send(proto.ServerSetup, map[string]any{"teams": w.clans.Ext()})
	return player, nil
}

// RemovePlayer deletes the player, tears down its structures and frees its sid.
func (w *World) RemovePlayer(id string) bool {
	w.mu.Lock()
	index := -1
	for i, player := range w.players {
		if player.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		w.mu.Unlock()
		return false
	}
	player := w.players[index]
	w.players = append(w.players[:index], w.players[index+1:]...)
	w.playerSlots.Release(player.SID)
	for _, other := range w.players {
		other.SentTo.Forget(player.ID)
	}
	for _, structure := range w.structures {
		structure.SentTo.Forget(player.ID)
	}
	w.mu.Unlock()

	w.Broadcast(proto.ServerRemovePlayer, player.ID)
	w.removeOwnedStructures(player)
	player.Alive = false
	return true
}

func (w *World) Players() []*Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Player(nil), w.players...)
}

func (w *World) PlayerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players)
}

func (w *World) PlayerByID(id string) *Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, player := range w.players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

func (w *World) PlayerBySID(sid int) *Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, player := range w.players {
		if player.SID == sid {
			return player
		}
	}
	return nil
}

func (w *World) Animals() []*Animal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Animal(nil), w.animals...)
}

func (w *World) Structures() []*Structure {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Structure(nil), w.structures...)
}

func (w *World) Projectiles() []*Projectile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Projectile(nil), w.projectiles...)
}

// Broadcast encodes once and writes to every connected player.
func (w *World) Broadcast(msgType string, payload ...any) {
	data, err := proto.Encode(msgType, payload...)
	if err != nil {
		w.logf("[world] encode broadcast %s: %v", msgType, err)
		return
	}
	for _, player := range w.Players() {
		if player.Socket == nil || !player.Socket.Open() {
			continue
		}
		if err := player.Socket.Send(data); err != nil {
			w.logf("[world] broadcast %s to %s: %v", msgType, player.ID, err)
		}
	}
}

// Send writes to the player with id. It reports whether the player exists.
func (w *World) Send(id, msgType string, payload ...any) bool {
	player := w.PlayerByID(id)
	if player == nil {
		return false
	}
	player.Send(msgType, payload...)
	return true
}

func (w *World) broadcastVisible(subject Visible, msgType string, payload ...any) {
	for _, player := range w.Players() {
		if player.CanSee(subject) {
			player.Send(msgType, payload...)
		}
	}
}

func (w *World) nearestLivingPlayer(x, y, within float64) *Player {
	var nearest *Player
	best := within
	for _, player := range w.Players() {
		if !player.Alive {
			continue
		}
		if d := Distance(x, y, player.X, player.Y); d <= best {
			best = d
			nearest = player
		}
	}
	return nearest
}
