package lifecycle

import (
	"context"

	"github.com/al007ex/moomoo-clone/logging"
)

const (
	// EventPlayerJoined is emitted when a connection is registered as a player.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerSpawned is emitted when a player enters the arena.
	EventPlayerSpawned logging.EventType = "lifecycle.player_spawned"
	// EventPlayerDisconnected is emitted when a player leaves the world.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
)

// PlayerJoinedPayload captures slot assignment for a new player.
type PlayerJoinedPayload struct {
	SID     int    `json:"sid"`
	Address string `json:"address"`
}

// PlayerSpawnedPayload captures spawn metadata.
type PlayerSpawnedPayload struct {
	Name   string  `json:"name"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// PlayerDisconnectedPayload captures the reason a player left.
type PlayerDisconnectedPayload struct {
	SID  int `json:"sid"`
	Code int `json:"code"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PlayerJoinedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerJoined, actor, payload, extra)
}

// PlayerSpawned publishes a spawn event.
func PlayerSpawned(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PlayerSpawnedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerSpawned, actor, payload, extra)
}

// PlayerDisconnected publishes a player disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PlayerDisconnectedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerDisconnected, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	})
}
