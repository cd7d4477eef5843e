// Package game owns connection sessions and executes their commands against
// the world.
package game

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sasha-s/go-deadlock"

	"github.com/al007ex/moomoo-clone/internal/command"
	"github.com/al007ex/moomoo-clone/internal/net/intake"
	"github.com/al007ex/moomoo-clone/internal/net/router"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/internal/world"
	"github.com/al007ex/moomoo-clone/logging"
	"github.com/al007ex/moomoo-clone/logging/lifecycle"
	"github.com/al007ex/moomoo-clone/logging/network"
)

var (
	// ErrServerFull rejects a connection once the hard player cap is reached.
	ErrServerFull = eris.New("server is full")
	// ErrUnknownSession reports a message for a session that is not registered.
	ErrUnknownSession = eris.New("unknown session")
)

const (
	metricConnectionsOpened = "game.connections.opened"
	metricConnectionsClosed = "game.connections.closed"
	packetSpamLimit         = 10000
)

type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

type Options struct {
	Throttle router.ThrottleConfig
}

// CommandBus registers connections, routes their messages and applies the
// resulting commands under the world's simulation lock.
type CommandBus struct {
	world    *world.World
	router   *router.Router
	throttle *router.Throttle

	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher logging.Publisher

	mu       deadlock.RWMutex
	sessions map[string]*Session
}

func NewCommandBus(w *world.World, opts Options, deps Deps) *CommandBus {
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	bus := &CommandBus{
		world:     w,
		throttle:  router.NewThrottle(opts.Throttle),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
		sessions:  make(map[string]*Session),
	}
	bus.router = router.New(router.Deps{
		Logger:    deps.Logger,
		Metrics:   deps.Metrics,
		Publisher: deps.Publisher,
		Commands:  bus,
	})
	bus.router.Use(
		router.Logging(nil),
		bus.throttle.Middleware(),
		router.Authentication(router.DefaultAllowList...),
	)
	intake.Register(bus.router, intake.CommandContext{})
	return bus
}

func (b *CommandBus) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

// RegisterConnection creates the player and an unauthenticated session.
func (b *CommandBus) RegisterConnection(ctx context.Context, conn transport.ConnectionContext) (*Session, error) {
	lock := b.world.SimulationLock()
	lock.Lock()
	if count := b.world.PlayerCount(); count >= b.world.Config().MaxPlayersHard {
		lock.Unlock()
		b.logf("[game] connection from %s rejected: server full (%d players)", conn.Address, count)
		return nil, ErrServerFull
	}
	player, err := b.world.AddPlayer(conn.Socket)
	lock.Unlock()
	if err != nil {
		if eris.Is(err, world.ErrNoFreeSlot) {
			return nil, ErrServerFull
		}
		return nil, eris.Wrap(err, "add player")
	}

	session := &Session{
		id:      player.ID,
		socket:  conn.Socket,
		address: conn.Address,
		traceID: conn.TraceID,
		player:  player,
	}
	b.mu.Lock()
	b.sessions[session.id] = session
	b.mu.Unlock()
	telemetry.Increment(b.metrics, metricConnectionsOpened)
	lifecycle.PlayerJoined(ctx, b.publisher, logging.PlayerRef(player.ID), lifecycle.PlayerJoinedPayload{
		SID:     player.SID,
		Address: conn.Address,
	}, map[string]any{"traceId": conn.TraceID})
	return session, nil
}

// HandleMessage routes one raw frame for session.
func (b *CommandBus) HandleMessage(ctx context.Context, session *Session, raw []byte) error {
	if session == nil || b.Session(session.ID()) != session {
		id := ""
		if session != nil {
			id = session.ID()
		}
		b.logf("[game] message for unknown session %q", id)
		return ErrUnknownSession
	}
	return b.router.Route(ctx, session, raw)
}

// HandleDisconnect tears session down. Repeated calls are no-ops.
func (b *CommandBus) HandleDisconnect(ctx context.Context, session *Session, code int) {
	if session == nil {
		return
	}
	b.mu.Lock()
	if b.sessions[session.id] != session {
		b.mu.Unlock()
		return
	}
	delete(b.sessions, session.id)
	b.mu.Unlock()

	lock := b.world.SimulationLock()
	lock.Lock()
	player := session.player
	if player.Team != "" {
		if player.IsOwner {
			b.world.Clans().Remove(player.Team)
		} else {
			b.world.Clans().Kick(player.Team, player.SID)
		}
	}
	sid := player.SID
	b.world.RemovePlayer(player.ID)
	lock.Unlock()

	lifecycle.PlayerDisconnected(ctx, b.publisher, logging.PlayerRef(player.ID), lifecycle.PlayerDisconnectedPayload{
		SID:  sid,
		Code: code,
	}, nil)

	b.throttle.Forget(session.id)
	telemetry.Increment(b.metrics, metricConnectionsClosed)
}

// DisconnectAll closes every session with the shutdown code.
func (b *CommandBus) DisconnectAll(ctx context.Context) {
	for _, session := range b.Sessions() {
		if session.socket != nil {
			session.socket.Close(transport.CloseShutdown, "server shutting down")
		}
		b.HandleDisconnect(ctx, session, transport.CloseShutdown)
	}
}

func (b *CommandBus) Session(id string) *Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessions[id]
}

func (b *CommandBus) Sessions() []*Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Session, 0, len(b.sessions))
	for _, session := range b.sessions {
		out = append(out, session)
	}
	return out
}

func (b *CommandBus) SessionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// Publish executes cmd if it comes from the session currently registered
// under its id. Commands from replaced or closed sessions are dropped.
func (b *CommandBus) Publish(ctx context.Context, cmd command.Command, pc router.PublishContext) error {
	session := b.Session(cmd.SessionID)
	if session == nil || router.Session(session) != pc.Session {
		network.InactiveSession(ctx, b.publisher, cmd.SessionID, string(cmd.Type))
		return nil
	}

	lock := b.world.SimulationLock()
	lock.Lock()
	defer lock.Unlock()
	b.execute(ctx, session, cmd, pc)
	return nil
}
