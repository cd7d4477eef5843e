package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/internal/transport/transporttest"
	"github.com/al007ex/moomoo-clone/logging"
	"github.com/al007ex/moomoo-clone/logging/network"
	"github.com/al007ex/moomoo-clone/logging/sinks"
)

type fakeSession struct {
	id            string
	authenticated bool
	socket        *transporttest.Socket
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, socket: transporttest.NewSocket()}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Authenticated() bool { return s.authenticated }

func (s *fakeSession) Socket() transport.Socket { return s.socket }

type countingMetrics struct {
	values map[string]uint64
}

func (m *countingMetrics) Add(key string, delta uint64) {
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[key] += delta
}

func (m *countingMetrics) Store(key string, value uint64) {
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[key] = value
}

func frame(t *testing.T, msgType proto.ClientType, payload ...any) []byte {
	t.Helper()
	data, err := proto.Encode(string(msgType), payload...)
	if err != nil {
		t.Fatalf("expected frame to encode, got %v", err)
	}
	return data
}

func TestRouteDispatchesAndFlushesReplies(t *testing.T) {
	memory := sinks.NewMemorySink()
	metrics := &countingMetrics{}
	r := New(Deps{Publisher: memory, Metrics: metrics})
	r.HandleFunc(proto.TypeKeepAlive, func(hc *HandlerContext) error {
		hc.Queue.Enqueue(proto.ServerPong)
		hc.Queue.Enqueue(proto.ServerPong)
		return nil
	})

	session := newFakeSession("s1")
	if err := r.Route(context.Background(), session, frame(t, proto.TypeKeepAlive)); err != nil {
		t.Fatalf("expected route to succeed, got %v", err)
	}

	if got := session.socket.Count(proto.ServerPong); got != 1 {
		t.Fatalf("expected 1 pong after deduplication, got %d", got)
	}
	if got := metrics.values["network.router.pp"]; got != 1 {
		t.Fatalf("expected router counter to be 1, got %d", got)
	}
}

func TestRouteDropsMalformedAndUnhandled(t *testing.T) {
	memory := sinks.NewMemorySink()
	r := New(Deps{Publisher: memory})
	session := newFakeSession("s1")

	if err := r.Route(context.Background(), session, []byte{0xc1}); err == nil {
		t.Fatalf("expected parse error for garbage frame")
	}
	if got := len(memory.OfType(network.EventParseFailed)); got != 1 {
		t.Fatalf("expected 1 parse_failed event, got %d", got)
	}

	if err := r.Route(context.Background(), session, frame(t, proto.TypeKeepAlive)); err != nil {
		t.Fatalf("expected unhandled type to be dropped quietly, got %v", err)
	}
	if got := len(memory.OfType(network.EventUnhandledType)); got != 1 {
		t.Fatalf("expected 1 unhandled_type event, got %d", got)
	}
}

func TestRouteReportsHandlerErrorsAndPanics(t *testing.T) {
	memory := sinks.NewMemorySink()
	r := New(Deps{Publisher: memory})
	r.HandleFunc(proto.TypeKeepAlive, func(hc *HandlerContext) error {
		hc.Queue.Enqueue(proto.ServerPong)
		return errors.New("boom")
	})
	r.HandleFunc(proto.TypeResetMove, func(hc *HandlerContext) error {
		panic("kaput")
	})
	session := newFakeSession("s1")

	if err := r.Route(context.Background(), session, frame(t, proto.TypeKeepAlive)); err == nil {
		t.Fatalf("expected handler error to be returned")
	}
	if got := session.socket.Count(proto.ServerPong); got != 1 {
		t.Fatalf("expected queue to flush despite the error, got %d", got)
	}
	if err := r.Route(context.Background(), session, frame(t, proto.TypeResetMove)); err == nil {
		t.Fatalf("expected panic to surface as an error")
	}
	if got := len(memory.OfType(network.EventDispatchFailed)); got != 2 {
		t.Fatalf("expected 2 dispatch_failed events, got %d", got)
	}
	if !session.socket.Open() {
		t.Fatalf("expected the socket to stay open")
	}
}

func TestMiddlewareRunsOutermostFirst(t *testing.T) {
	r := New(Deps{})
	var order []string
	tag := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(hc *HandlerContext) error {
				order = append(order, name)
				return next(hc)
			}
		}
	}
	r.Use(tag("outer"), tag("inner"))
	r.HandleFunc(proto.TypeKeepAlive, func(*HandlerContext) error {
		order = append(order, "handler")
		return nil
	})

	r.Route(context.Background(), newFakeSession("s1"), frame(t, proto.TypeKeepAlive))

	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Fatalf("expected outer, inner, handler, got %v", order)
	}
}

func TestThrottleDropsBurstAndRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	memory := sinks.NewMemorySink()
	throttle := NewThrottle(ThrottleConfig{Now: func() time.Time { return now }})
	r := New(Deps{Publisher: memory})
	r.Use(throttle.Middleware())
	handled := 0
	r.HandleFunc(proto.TypeKeepAlive, func(*HandlerContext) error {
		handled++
		return nil
	})
	session := newFakeSession("s1")

	for i := 0; i < 31; i++ {
		r.Route(context.Background(), session, frame(t, proto.TypeKeepAlive))
	}
	if handled != 30 {
		t.Fatalf("expected 30 messages through, got %d", handled)
	}
	if got := len(memory.OfType(network.EventThrottled)); got != 1 {
		t.Fatalf("expected 1 throttled event, got %d", got)
	}

	now = now.Add(time.Second)
	r.Route(context.Background(), session, frame(t, proto.TypeKeepAlive))
	if handled != 31 {
		t.Fatalf("expected a message through after refill, got %d", handled)
	}

	throttle.Forget(session.ID())
	if throttle.Tracked() != 0 {
		t.Fatalf("expected bucket to be forgotten, got %d tracked", throttle.Tracked())
	}
}

func TestThrottleBucketsArePerSession(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	throttle := NewThrottle(ThrottleConfig{Capacity: 1, Refill: 1, Now: func() time.Time { return now }})

	if !throttle.Allow("a") || throttle.Allow("a") {
		t.Fatalf("expected a single token for session a")
	}
	if !throttle.Allow("b") {
		t.Fatalf("expected session b to have its own bucket")
	}
}

func TestAuthenticationGatesUntilSpawn(t *testing.T) {
	memory := sinks.NewMemorySink()
	r := New(Deps{Publisher: memory})
	r.Use(Authentication())
	var handled []proto.ClientType
	record := func(hc *HandlerContext) error {
		handled = append(handled, hc.Message.Type)
		return nil
	}
	r.HandleFunc(proto.TypeKeepAlive, record)
	r.HandleFunc(proto.TypeResetMove, record)
	session := newFakeSession("s1")

	r.Route(context.Background(), session, frame(t, proto.TypeResetMove))
	r.Route(context.Background(), session, frame(t, proto.TypeKeepAlive))
	if len(handled) != 1 || handled[0] != proto.TypeKeepAlive {
		t.Fatalf("expected only keep-alive before spawn, got %v", handled)
	}
	if got := len(memory.OfType(network.EventUnauthorized)); got != 1 {
		t.Fatalf("expected 1 unauthorized event, got %d", got)
	}

	session.authenticated = true
	r.Route(context.Background(), session, frame(t, proto.TypeResetMove))
	if len(handled) != 2 {
		t.Fatalf("expected gated message after authentication, got %v", handled)
	}
}

func TestLoggingMiddlewareTracesEntryAndExit(t *testing.T) {
	memory := sinks.NewMemorySink()
	r := New(Deps{Publisher: memory})
	r.Use(Logging(nil))
	r.HandleFunc(proto.TypeKeepAlive, func(*HandlerContext) error { return nil })

	r.Route(context.Background(), newFakeSession("s1"), frame(t, proto.TypeKeepAlive))

	traces := memory.OfType(network.EventMessageTrace)
	if len(traces) != 2 {
		t.Fatalf("expected enter and exit traces, got %d", len(traces))
	}
	if traces[0].Severity != logging.SeverityDebug {
		t.Fatalf("expected debug severity, got %v", traces[0].Severity)
	}
}
