package logging

import (
	"context"
	"log"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultQueueSize   = 512
	minSinkBacklog     = 32
	maxSinkBacklog     = 1024
	maxRetryShift      = 5
	defaultDropWarning = 5 * time.Second
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// NamedSink registers a sink with the router. A non-empty Categories list
// restricts the sink to events of those categories.
type NamedSink struct {
	Name       string
	Sink       Sink
	Categories []string
}

// Router fans published events out to sink workers. Publishing never blocks:
// when the queue is saturated the event is dropped and counted.
type Router struct {
	queue       chan Event
	workers     []*sinkWorker
	clock       Clock
	fallback    *log.Logger
	minSeverity Severity
	fields      map[string]any
	dropWarn    time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	closed   atomic.Bool
	wg       sync.WaitGroup

	routed     atomic.Uint64
	dropped    atomic.Uint64
	nextWarnAt atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64            `json:"eventsTotal"`
	DroppedTotal uint64            `json:"droppedTotal"`
	SinkDrops    map[string]uint64 `json:"sinkDrops,omitempty"`
}

func NewRouter(cfg Config, clock Clock, fallback *log.Logger, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	queueSize := cfg.BufferSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	dropWarn := cfg.DropWarnInterval
	if dropWarn <= 0 {
		dropWarn = defaultDropWarning
	}

	r := &Router{
		queue:       make(chan Event, queueSize),
		clock:       clock,
		fallback:    fallback,
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.CloneFields(),
		dropWarn:    dropWarn,
		stop:        make(chan struct{}),
	}
	backlog := min(max(queueSize, minSinkBacklog), maxSinkBacklog)
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.workers = append(r.workers, &sinkWorker{
			name:       named.Name,
			sink:       named.Sink,
			categories: slices.Clone(named.Categories),
			events:     make(chan Event, backlog),
			fallback:   fallback,
		})
	}

	for _, worker := range r.workers {
		r.wg.Add(1)
		go func(w *sinkWorker) {
			defer r.wg.Done()
			w.run()
		}(worker)
	}
	r.wg.Add(1)
	go r.dispatch()
	return r, nil
}

// dispatch moves queued events to the sink workers until Close, then drains
// whatever is still queued and closes the worker channels.
func (r *Router) dispatch() {
	defer r.wg.Done()
	defer func() {
		for _, worker := range r.workers {
			close(worker.events)
		}
	}()
	for {
		select {
		case event := <-r.queue:
			r.forward(event)
		case <-r.stop:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) forward(event Event) {
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	event = mergeFields(event, r.fields)
	r.routed.Add(1)
	for _, worker := range r.workers {
		if worker.accepts(event) {
			worker.enqueue(event)
		}
	}
}

// Publish filters by severity before queueing so debug traces cost nothing
// when the router runs at info.
func (r *Router) Publish(ctx context.Context, event Event) {
	if r == nil || event.Type == "" || event.Severity < r.minSeverity || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.warnDrop(event)
	}
}

// warnDrop logs at most one queue overflow per drop warning interval.
func (r *Router) warnDrop(event Event) {
	now := r.clock.Now().UnixNano()
	next := r.nextWarnAt.Load()
	if next != 0 && now < next {
		return
	}
	if r.nextWarnAt.CompareAndSwap(next, now+r.dropWarn.Nanoseconds()) {
		r.fallback.Printf("dropping event type=%s tick=%d", event.Type, event.Tick)
	}
}

// Close stops accepting events, flushes the queue through every sink and
// closes the sinks. Closing twice is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.stopOnce.Do(func() { close(r.stop) })

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, worker := range r.workers {
		if err := worker.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.routed.Load(),
		DroppedTotal: r.dropped.Load(),
	}
	for _, worker := range r.workers {
		dropped := worker.dropped.Load()
		if dropped == 0 {
			continue
		}
		if stats.SinkDrops == nil {
			stats.SinkDrops = make(map[string]uint64)
		}
		stats.SinkDrops[worker.name] = dropped
	}
	return stats
}

// Sink returns the sink registered under name, or nil.
func (r *Router) Sink(name string) Sink {
	for _, worker := range r.workers {
		if worker.name == name {
			return worker.sink
		}
	}
	return nil
}

type sinkWorker struct {
	name       string
	sink       Sink
	categories []string
	events     chan Event
	fallback   *log.Logger
	dropped    atomic.Uint64

	// failures and retryAt are owned by the run goroutine.
	failures int
	retryAt  time.Time
}

func (w *sinkWorker) accepts(event Event) bool {
	return len(w.categories) == 0 || slices.Contains(w.categories, event.Category)
}

func (w *sinkWorker) enqueue(event Event) {
	select {
	case w.events <- cloneEvent(event):
	default:
		// Log the 1st, 2nd, 4th, 8th... drop.
		if n := w.dropped.Add(1); n&(n-1) == 0 {
			w.fallback.Printf("sink %s backlog full dropping event type=%s", w.name, event.Type)
		}
	}
}

func (w *sinkWorker) run() {
	for event := range w.events {
		if wait := time.Until(w.retryAt); w.failures > 0 && wait > 0 {
			time.Sleep(wait)
		}
		err := w.sink.Write(event)
		if err == nil {
			w.failures = 0
			w.retryAt = time.Time{}
			continue
		}
		w.failures++
		delay := time.Second << min(w.failures, maxRetryShift)
		w.retryAt = time.Now().Add(delay)
		w.fallback.Printf("sink %s failed: %v (retry in %s)", w.name, err, delay)
	}
}
