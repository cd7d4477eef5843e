// Package systems holds the per-tick stages folded over the game state by
// the engine.
package systems

// Broadcaster writes one envelope to every connected player.
type Broadcaster interface {
	Broadcast(msgType string, payload ...any)
}

// Recipient is a connected player that can receive envelopes.
type Recipient interface {
	SID() int
	Send(msgType string, payload ...any)
}
