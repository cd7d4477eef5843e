// Package ws upgrades HTTP requests to game sockets and pumps frames between
// each connection and the command bus.
package ws

import (
	"context"
	"net"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/game"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/logging"
	"github.com/al007ex/moomoo-clone/logging/network"
)

const (
	metricConnections = "websocket.connections"
	metricMessages    = "websocket.messages"
	metricRefused     = "websocket.refused"

	defaultReadLimit = 1 << 16
)

// Bus is the part of the command bus the gateway drives.
type Bus interface {
	RegisterConnection(ctx context.Context, conn transport.ConnectionContext) (*game.Session, error)
	HandleMessage(ctx context.Context, session *game.Session, raw []byte) error
	HandleDisconnect(ctx context.Context, session *game.Session, code int)
}

type Config struct {
	// ConnectionLimit caps sockets per address. Zero selects
	// DefaultConnectionLimit; negative disables the cap.
	ConnectionLimit int
	SendBuffer      int
	ReadLimit       int64
	PingInterval    time.Duration
	PongWait        time.Duration
}

type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

type Gateway struct {
	bus      Bus
	cfg      Config
	limit    *ConnectionLimit
	upgrader websocket.Upgrader

	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher logging.Publisher
}

func NewGateway(bus Bus, cfg Config, deps Deps) *Gateway {
	if cfg.ConnectionLimit == 0 {
		cfg.ConnectionLimit = DefaultConnectionLimit
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = defaultReadLimit
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = defaultPongWait
		if cfg.PongWait <= cfg.PingInterval {
			cfg.PongWait = cfg.PingInterval * 2
		}
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	return &Gateway{
		bus:   bus,
		cfg:   cfg,
		limit: NewConnectionLimit(cfg.ConnectionLimit),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
	}
}

func (g *Gateway) logf(format string, args ...any) {
	if g.logger != nil {
		g.logger.Printf(format, args...)
	}
}

// Limit exposes the per-address counters.
func (g *Gateway) Limit() *ConnectionLimit {
	return g.limit
}

func (g *Gateway) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logf("[ws] upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	address := ClientAddress(r)
	ctx := r.Context()

	if !g.limit.TryUp(address) {
		g.logf("[ws] connection limit reached for %s", address)
		g.refuse(ctx, conn, address, transport.CloseConnectionLimit, "connection limit reached")
		return
	}

	sock := newSocket(conn, g.cfg.SendBuffer, g.cfg.PingInterval)
	go sock.writePump()

	session, err := g.bus.RegisterConnection(ctx, transport.ConnectionContext{
		Socket:  sock,
		Request: r,
		Address: address,
		TraceID: uuid.NewString(),
	})
	if err != nil {
		code := transport.ClosePolicyViolation
		if eris.Is(err, game.ErrServerFull) {
			code = transport.CloseServerFull
		}
		g.limit.Down(address)
		g.logf("[ws] connection from %s refused: %v", address, err)
		telemetry.Increment(g.metrics, metricRefused)
		network.ConnectionRefused(ctx, g.publisher, network.RefusalPayload{Address: address, Reason: err.Error(), Code: code})
		sock.Close(code, err.Error())
		return
	}

	telemetry.Increment(g.metrics, metricConnections)
	code := g.readLoop(ctx, conn, session)
	g.limit.Down(address)

	if serverCode := sock.code(); serverCode != 0 {
		code = serverCode
	}
	sock.Close(code, "")
	g.bus.HandleDisconnect(context.Background(), session, code)
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, session *game.Session) int {
	conn.SetReadLimit(g.cfg.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				return closeErr.Code
			}
			return websocket.CloseAbnormalClosure
		}
		conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
		telemetry.Increment(g.metrics, metricMessages)
		if err := g.bus.HandleMessage(ctx, session, raw); eris.Is(err, game.ErrUnknownSession) {
			return transport.ClosePolicyViolation
		}
	}
}

// refuse closes a socket that never reached the bus.
func (g *Gateway) refuse(ctx context.Context, conn *websocket.Conn, address string, code int, reason string) {
	telemetry.Increment(g.metrics, metricRefused)
	network.ConnectionRefused(ctx, g.publisher, network.RefusalPayload{Address: address, Reason: reason, Code: code})
	message := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	conn.Close()
}

// ClientAddress prefers the first X-Forwarded-For entry and falls back to the
// remote host.
func ClientAddress(r *nethttp.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
