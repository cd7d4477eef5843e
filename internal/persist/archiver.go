package persist

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
)

const (
	DefaultArchiveInterval = 90

	archiveQueueSize = 4

	metricArchiveSaved   = "persist.archive.saved"
	metricArchiveFailed  = "persist.archive.failed"
	metricArchiveDropped = "persist.archive.dropped"
)

type ArchiverDeps struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
}

// Archiver saves every interval-th engine state on a background worker so
// the tick never waits on storage. Snapshots arriving while the worker is
// saturated are dropped.
type Archiver struct {
	adapter  Adapter
	interval uint64
	logger   telemetry.Logger
	metrics  telemetry.Metrics

	mu     deadlock.RWMutex
	queue  chan state.Snapshot
	closed bool
	wg     sync.WaitGroup

	lastTick atomic.Uint64
	hasLast  atomic.Bool
}

func NewArchiver(adapter Adapter, interval uint64, deps ArchiverDeps) *Archiver {
	if adapter == nil {
		adapter = NullAdapter{}
	}
	if interval == 0 {
		interval = DefaultArchiveInterval
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	a := &Archiver{
		adapter:  adapter,
		interval: interval,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		queue:    make(chan state.Snapshot, archiveQueueSize),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Observe is registered as an engine snapshot listener.
func (a *Archiver) Observe(current state.GameState) {
	if current.Tick()%a.interval != 0 {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- current.Snapshot():
	default:
		telemetry.Increment(a.metrics, metricArchiveDropped)
	}
}

// LastArchivedTick reports the newest tick saved by this archiver.
func (a *Archiver) LastArchivedTick() (uint64, bool) {
	return a.lastTick.Load(), a.hasLast.Load()
}

// Close drains queued snapshots and stops the worker. It does not
// disconnect the adapter.
func (a *Archiver) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Archiver) run() {
	defer a.wg.Done()
	for snapshot := range a.queue {
		if err := a.adapter.Save(context.Background(), snapshot); err != nil {
			telemetry.Increment(a.metrics, metricArchiveFailed)
			if a.logger != nil {
				a.logger.Printf("[persist] failed to archive tick %d: %v", snapshot.Tick, err)
			}
			continue
		}
		a.lastTick.Store(snapshot.Tick)
		a.hasLast.Store(true)
		telemetry.Increment(a.metrics, metricArchiveSaved)
	}
}
