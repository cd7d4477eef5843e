// Package router parses inbound frames and dispatches them through a
// middleware chain to per-type handlers.
package router

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/command"
	"github.com/al007ex/moomoo-clone/internal/net/outbound"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/logging"
	"github.com/al007ex/moomoo-clone/logging/network"
)

// Session is the connection state the router needs.
type Session interface {
	ID() string
	Authenticated() bool
	Socket() transport.Socket
}

// PublishContext accompanies a command to the bus.
type PublishContext struct {
	Session Session
	Queue   *outbound.Queue
}

// CommandPublisher executes commands produced by handlers.
type CommandPublisher interface {
	Publish(ctx context.Context, cmd command.Command, pc PublishContext) error
}

// HandlerContext carries one message through middleware and its handler.
type HandlerContext struct {
	Context context.Context
	Session Session
	Message proto.ClientMessage
	Queue   *outbound.Queue
	Logger  telemetry.Logger
	Events  logging.Publisher

	commands CommandPublisher
}

// Publish hands cmd to the command bus with this message's session and queue.
func (hc *HandlerContext) Publish(cmd command.Command) error {
	if hc.commands == nil {
		return ErrNoPublisher
	}
	return hc.commands.Publish(hc.Context, cmd, PublishContext{Session: hc.Session, Queue: hc.Queue})
}

type Handler interface {
	Handle(hc *HandlerContext) error
}

type HandlerFunc func(hc *HandlerContext) error

func (f HandlerFunc) Handle(hc *HandlerContext) error { return f(hc) }

// Middleware wraps the next stage of the chain. Returning without calling
// next drops the message.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrNoPublisher is returned by HandlerContext.Publish when the router has
// no command publisher.
var ErrNoPublisher = eris.New("router has no command publisher")

type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Commands  CommandPublisher
}

type Router struct {
	handlers   map[proto.ClientType]Handler
	middleware []Middleware
	logger     telemetry.Logger
	metrics    telemetry.Metrics
	publisher  logging.Publisher
	commands   CommandPublisher
}

func New(deps Deps) *Router {
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	return &Router{
		handlers:  make(map[proto.ClientType]Handler),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
		commands:  deps.Commands,
	}
}

// SetCommands installs the command publisher after construction.
func (r *Router) SetCommands(commands CommandPublisher) {
	r.commands = commands
}

// Handle registers h for msgType, replacing any earlier handler.
func (r *Router) Handle(msgType proto.ClientType, h Handler) {
	r.handlers[msgType] = h
}

func (r *Router) HandleFunc(msgType proto.ClientType, fn HandlerFunc) {
	r.Handle(msgType, fn)
}

// Use appends middleware. The first registered runs outermost.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

func (r *Router) Handles(msgType proto.ClientType) bool {
	_, ok := r.handlers[msgType]
	return ok
}

// Route handles one raw frame. Parse failures and unknown types are reported
// and dropped. Handler errors and panics are reported and returned; the
// reply queue is flushed either way.
func (r *Router) Route(ctx context.Context, session Session, raw []byte) (err error) {
	msg, err := proto.ParseClientMessage(raw)
	if err != nil {
		network.ParseFailed(ctx, r.publisher, session.ID(), err)
		return err
	}

	handler, ok := r.handlers[msg.Type]
	if !ok {
		network.UnhandledType(ctx, r.publisher, session.ID(), string(msg.Type))
		return nil
	}

	hc := &HandlerContext{
		Context:  ctx,
		Session:  session,
		Message:  msg,
		Queue:    outbound.NewQueue(session.Socket()),
		Logger:   r.logger,
		Events:   r.publisher,
		commands: r.commands,
	}
	defer hc.Queue.Flush()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = eris.New(fmt.Sprintf("handler for %q panicked: %v", msg.Type, recovered))
		}
		if err != nil {
			network.DispatchFailed(ctx, r.publisher, session.ID(), string(msg.Type), err)
		}
	}()

	telemetry.Increment(r.metrics, telemetry.Key("network", "router", string(msg.Type)))
	return r.chain(handler.Handle)(hc)
}

func (r *Router) chain(final HandlerFunc) HandlerFunc {
	next := final
	for i := len(r.middleware) - 1; i >= 0; i-- {
		next = r.middleware[i](next)
	}
	return next
}
