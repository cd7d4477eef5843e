package game

import (
	"sync/atomic"

	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/internal/world"
)

// Session binds one connection to its player record. A session is
// unauthenticated until its first spawn.
type Session struct {
	id            string
	socket        transport.Socket
	address       string
	traceID       string
	player        *world.Player
	authenticated atomic.Bool
}

func (s *Session) ID() string { return s.id }

func (s *Session) Socket() transport.Socket { return s.socket }

func (s *Session) Address() string { return s.address }

func (s *Session) TraceID() string { return s.traceID }

func (s *Session) Player() *world.Player { return s.player }

func (s *Session) Authenticated() bool { return s.authenticated.Load() }
