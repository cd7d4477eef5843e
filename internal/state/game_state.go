// Package state holds the immutable, tick-stamped game state produced by the
// system pipeline.
package state

import "sort"

// GameState is an immutable value. Every With method returns a new state and
// leaves the receiver untouched; accessors return copies.
type GameState struct {
	tick        uint64
	playerOrder []string
	players     map[string]PlayerState
	entities    map[string][]EntityState
	mapCells    []MapCellState
	metadata    Metadata
}

// New returns the empty state at tick zero.
func New() GameState {
	return GameState{}
}

func (s GameState) Tick() uint64 {
	return s.tick
}

// AdvanceTick returns the same state stamped with the next tick.
func (s GameState) AdvanceTick() GameState {
	next := s
	next.tick = s.tick + 1
	return next
}

// Players returns every player in insertion order.
func (s GameState) Players() []PlayerState {
	out := make([]PlayerState, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		out = append(out, s.players[id])
	}
	return out
}

func (s GameState) Player(id string) (PlayerState, bool) {
	player, ok := s.players[id]
	return player, ok
}

func (s GameState) PlayerCount() int {
	return len(s.playerOrder)
}

// WithPlayers replaces the player set. A later entry with a duplicate ID
// overwrites the earlier value but keeps its position.
func (s GameState) WithPlayers(players []PlayerState) GameState {
	next := s
	next.players = make(map[string]PlayerState, len(players))
	next.playerOrder = make([]string, 0, len(players))
	for _, player := range players {
		if _, seen := next.players[player.ID]; !seen {
			next.playerOrder = append(next.playerOrder, player.ID)
		}
		next.players[player.ID] = player
	}
	return next
}

// Entities returns the collection stored under kind.
func (s GameState) Entities(kind string) []EntityState {
	return cloneEntities(s.entities[kind])
}

// EntityKinds lists the populated collection keys in lexical order.
func (s GameState) EntityKinds() []string {
	kinds := make([]string, 0, len(s.entities))
	for kind := range s.entities {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// WithEntities replaces the collection stored under kind. Other collections
// are shared with the receiver.
func (s GameState) WithEntities(kind string, entities []EntityState) GameState {
	next := s
	next.entities = make(map[string][]EntityState, len(s.entities)+1)
	for k, v := range s.entities {
		next.entities[k] = v
	}
	next.entities[kind] = cloneEntities(entities)
	if next.entities[kind] == nil {
		next.entities[kind] = []EntityState{}
	}
	return next
}

func (s GameState) MapCells() []MapCellState {
	return cloneCells(s.mapCells)
}

func (s GameState) WithMapCells(cells []MapCellState) GameState {
	next := s
	next.mapCells = cloneCells(cells)
	return next
}

func (s GameState) Leaderboard() []LeaderboardEntry {
	return append([]LeaderboardEntry(nil), s.metadata.Leaderboard...)
}

func (s GameState) WithLeaderboard(entries []LeaderboardEntry) GameState {
	next := s
	next.metadata.Leaderboard = append([]LeaderboardEntry(nil), entries...)
	return next
}

func (s GameState) Minimap() []MinimapEntry {
	return append([]MinimapEntry(nil), s.metadata.Minimap...)
}

func (s GameState) WithMinimap(entries []MinimapEntry) GameState {
	next := s
	next.metadata.Minimap = append([]MinimapEntry(nil), entries...)
	return next
}

// Snapshot is the plain, serializable form of a GameState.
type Snapshot struct {
	Tick     uint64                   `json:"tick" msgpack:"tick"`
	Players  []PlayerState            `json:"players" msgpack:"players"`
	Entities map[string][]EntityState `json:"entities" msgpack:"entities"`
	MapCells []MapCellState           `json:"mapCells" msgpack:"mapCells"`
	Metadata Metadata                 `json:"metadata" msgpack:"metadata"`
}

// Snapshot deep-copies the state into its serializable form.
func (s GameState) Snapshot() Snapshot {
	entities := make(map[string][]EntityState, len(s.entities))
	for kind, list := range s.entities {
		entities[kind] = cloneEntities(list)
	}
	return Snapshot{
		Tick:     s.tick,
		Players:  s.Players(),
		Entities: entities,
		MapCells: cloneCells(s.mapCells),
		Metadata: cloneMetadata(s.metadata),
	}
}

// FromSnapshot rebuilds a state. FromSnapshot(s.Snapshot()) is observably
// equal to s.
func FromSnapshot(snapshot Snapshot) GameState {
	restored := New().WithPlayers(snapshot.Players)
	restored.tick = snapshot.Tick
	if len(snapshot.Entities) > 0 {
		restored.entities = make(map[string][]EntityState, len(snapshot.Entities))
		for kind, list := range snapshot.Entities {
			restored.entities[kind] = cloneEntities(list)
			if restored.entities[kind] == nil {
				restored.entities[kind] = []EntityState{}
			}
		}
	}
	restored.mapCells = cloneCells(snapshot.MapCells)
	restored.metadata = cloneMetadata(snapshot.Metadata)
	return restored
}
