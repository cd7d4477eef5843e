// Package transport describes the boundary between the game core and the
// socket layer that carries its envelopes.
package transport

import "net/http"

// Close codes sent when a connection is refused or dropped by the server.
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
	// CloseConnectionLimit refuses a socket because its address holds too many connections.
	CloseConnectionLimit = 4001
	// CloseServerFull refuses a socket because the player cap is reached.
	CloseServerFull = 4002
	// CloseShutdown is sent to every session during graceful shutdown.
	CloseShutdown = 4003
)

// Socket is a live client connection. Send must not block the caller.
type Socket interface {
	Send(data []byte) error
	Open() bool
	Close(code int, reason string) error
}

// ConnectionContext is handed to the game when a socket connects.
type ConnectionContext struct {
	Socket  Socket
	Request *http.Request
	Address string
	TraceID string
}
