package state

// PlayerState is the serialized view of one player at a tick.
type PlayerState struct {
	ID        string  `json:"id" msgpack:"id"`
	SID       int     `json:"sid" msgpack:"sid"`
	Name      string  `json:"name" msgpack:"name"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Kills     int     `json:"kills" msgpack:"kills"`
	Points    int     `json:"points" msgpack:"points"`
	Alive     bool    `json:"alive" msgpack:"alive"`
	IconIndex int     `json:"iconIndex" msgpack:"iconIndex"`
}

// EntityState is the serialized view of any non-player entity. Payload holds
// kind-specific fields.
type EntityState struct {
	ID      string         `json:"id" msgpack:"id"`
	Type    string         `json:"type" msgpack:"type"`
	X       float64        `json:"x" msgpack:"x"`
	Y       float64        `json:"y" msgpack:"y"`
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// MapCellState describes one static terrain cell.
type MapCellState struct {
	ID       string         `json:"id" msgpack:"id"`
	X        float64        `json:"x" msgpack:"x"`
	Y        float64        `json:"y" msgpack:"y"`
	Terrain  string         `json:"terrain" msgpack:"terrain"`
	Metadata map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

type LeaderboardEntry struct {
	SID    int    `json:"sid" msgpack:"sid"`
	Name   string `json:"name" msgpack:"name"`
	Points int    `json:"points" msgpack:"points"`
}

type MinimapEntry struct {
	SID int     `json:"sid" msgpack:"sid"`
	X   float64 `json:"x" msgpack:"x"`
	Y   float64 `json:"y" msgpack:"y"`
}

// Metadata carries values derived from the simulation rather than owned by it.
type Metadata struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard" msgpack:"leaderboard"`
	Minimap     []MinimapEntry     `json:"minimap" msgpack:"minimap"`
}

// Entity collection keys used by the systems.
const (
	KindNPCs        = "npcs"
	KindStructures  = "structures"
	KindProjectiles = "projectiles"
)

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	cloned := make(map[string]any, len(payload))
	for k, v := range payload {
		cloned[k] = v
	}
	return cloned
}

func cloneEntities(entities []EntityState) []EntityState {
	if entities == nil {
		return nil
	}
	cloned := make([]EntityState, len(entities))
	for i, entity := range entities {
		cloned[i] = entity
		cloned[i].Payload = clonePayload(entity.Payload)
	}
	return cloned
}

func cloneCells(cells []MapCellState) []MapCellState {
	if cells == nil {
		return nil
	}
	cloned := make([]MapCellState, len(cells))
	for i, cell := range cells {
		cloned[i] = cell
		cloned[i].Metadata = clonePayload(cell.Metadata)
	}
	return cloned
}

func cloneMetadata(meta Metadata) Metadata {
	return Metadata{
		Leaderboard: append([]LeaderboardEntry(nil), meta.Leaderboard...),
		Minimap:     append([]MinimapEntry(nil), meta.Minimap...),
	}
}
