package router

import (
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/logging/network"
)

const (
	DefaultThrottleCapacity = 30
	DefaultThrottleRefill   = 30.0
)

// Logging brackets every message with debug trace events.
func Logging(now func() time.Time) Middleware {
	if now == nil {
		now = time.Now
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(hc *HandlerContext) error {
			msgType := string(hc.Message.Type)
			network.MessageTrace(hc.Context, hc.Events, hc.Session.ID(), network.TracePayload{Type: msgType, Phase: "enter"})
			started := now()
			err := next(hc)
			network.MessageTrace(hc.Context, hc.Events, hc.Session.ID(), network.TracePayload{
				Type:     msgType,
				Phase:    "exit",
				Duration: now().Sub(started).Microseconds(),
			})
			return err
		}
	}
}

type ThrottleConfig struct {
	// Capacity is the bucket size in messages.
	Capacity int
	// Refill is the number of messages restored per second.
	Refill float64
	Now    func() time.Time
}

// Throttle holds one token bucket per session.
type Throttle struct {
	mu       deadlock.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewThrottle(cfg ThrottleConfig) *Throttle {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultThrottleCapacity
	}
	if cfg.Refill <= 0 {
		cfg.Refill = DefaultThrottleRefill
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(cfg.Refill),
		burst:    cfg.Capacity,
		now:      cfg.Now,
	}
}

// Allow spends one token from the session's bucket. New buckets start full.
func (t *Throttle) Allow(sessionID string) bool {
	t.mu.Lock()
	limiter, ok := t.limiters[sessionID]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[sessionID] = limiter
	}
	t.mu.Unlock()
	return limiter.AllowN(t.now(), 1)
}

// Forget drops the session's bucket.
func (t *Throttle) Forget(sessionID string) {
	t.mu.Lock()
	delete(t.limiters, sessionID)
	t.mu.Unlock()
}

func (t *Throttle) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

func (t *Throttle) Middleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(hc *HandlerContext) error {
			if !t.Allow(hc.Session.ID()) {
				network.Throttled(hc.Context, hc.Events, hc.Session.ID(), string(hc.Message.Type))
				return nil
			}
			return next(hc)
		}
	}
}

// DefaultAllowList holds the messages accepted before a session spawns.
var DefaultAllowList = []proto.ClientType{proto.TypeSpawn, proto.TypeKeepAlive}

// Authentication drops messages outside allowed until the session is
// authenticated.
func Authentication(allowed ...proto.ClientType) Middleware {
	if len(allowed) == 0 {
		allowed = DefaultAllowList
	}
	set := make(map[proto.ClientType]struct{}, len(allowed))
	for _, msgType := range allowed {
		set[msgType] = struct{}{}
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(hc *HandlerContext) error {
			if _, ok := set[hc.Message.Type]; ok || hc.Session.Authenticated() {
				return next(hc)
			}
			network.Unauthorized(hc.Context, hc.Events, hc.Session.ID(), string(hc.Message.Type))
			return nil
		}
	}
}
