package sim

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/logging/simulation"
)

const (
	defaultErrorBuffer = 32

	metricEngineTicks         = "sim.engine.ticks"
	metricEngineSystemErrors  = "sim.engine.system_errors"
	metricEngineErrorsDropped = "sim.engine.errors_dropped"
	metricEngineOverruns      = "sim.engine.budget_overruns"
	metricEngineTick          = "sim.engine.tick"
)

// System is one stage of the per-tick pipeline.
type System interface {
	Update(current state.GameState, dt time.Duration) (state.GameState, error)
}

// SystemFunc adapts a function into a System.
type SystemFunc func(state.GameState, time.Duration) (state.GameState, error)

func (f SystemFunc) Update(current state.GameState, dt time.Duration) (state.GameState, error) {
	return f(current, dt)
}

// Named is implemented by systems that report their own name in failures.
type Named interface {
	Name() string
}

func systemName(system System) string {
	if named, ok := system.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", system)
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Deps Deps
	// Guard is held for the duration of each step.
	Guard sync.Locker
	// Budget is the wall time a step may take before an overrun is reported.
	Budget time.Duration
	// ErrorBuffer sizes the asynchronous error channel.
	ErrorBuffer int
}

// Engine owns the system pipeline and the current state.
type Engine struct {
	runner Runner
	deps   Deps
	guard  sync.Locker
	budget time.Duration

	mu                sync.RWMutex
	current           state.GameState
	systems           []System
	snapshotListeners []func(state.GameState)
	rollbackListeners []func(state.GameState)

	errors chan error
}

func NewEngine(runner Runner, initial state.GameState, opts EngineOptions) *Engine {
	buffer := opts.ErrorBuffer
	if buffer <= 0 {
		buffer = defaultErrorBuffer
	}
	return &Engine{
		runner:  runner,
		deps:    opts.Deps.withDefaults(),
		guard:   opts.Guard,
		budget:  opts.Budget,
		current: initial,
		errors:  make(chan error, buffer),
	}
}

// AddSystem appends a system. Systems run in registration order.
func (e *Engine) AddSystem(system System) {
	if system == nil {
		return
	}
	e.mu.Lock()
	e.systems = append(e.systems, system)
	e.mu.Unlock()
}

func (e *Engine) Start() {
	if e.runner != nil {
		e.runner.Start(e.Step)
	}
}

func (e *Engine) Stop() {
	if e.runner != nil {
		e.runner.Stop()
	}
}

func (e *Engine) Running() bool {
	return e.runner != nil && e.runner.Running()
}

func (e *Engine) State() state.GameState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Errors surfaces isolated system failures. Errors are dropped when nobody
// drains the channel.
func (e *Engine) Errors() <-chan error {
	return e.errors
}

// OnSnapshot registers fn to receive the state produced by every step.
func (e *Engine) OnSnapshot(fn func(state.GameState)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.snapshotListeners = append(e.snapshotListeners, fn)
	e.mu.Unlock()
}

// OnRollback registers fn to receive the state restored by Rollback.
func (e *Engine) OnRollback(fn func(state.GameState)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.rollbackListeners = append(e.rollbackListeners, fn)
	e.mu.Unlock()
}

// Step advances the tick and folds every system over the state. A failing
// system keeps the state it was given; the remaining systems still run.
func (e *Engine) Step(dt time.Duration) {
	started := e.deps.Clock.Now()
	if e.guard != nil {
		e.guard.Lock()
	}
	e.mu.RLock()
	next := e.current.AdvanceTick()
	systems := append([]System(nil), e.systems...)
	e.mu.RUnlock()

	for _, system := range systems {
		out, err := e.runSystem(system, next, dt)
		if err != nil {
			e.reportFailure(next.Tick(), system, err)
			continue
		}
		next = out
	}

	e.mu.Lock()
	e.current = next
	listeners := slices.Clone(e.snapshotListeners)
	e.mu.Unlock()
	if e.guard != nil {
		e.guard.Unlock()
	}

	for _, listener := range listeners {
		listener(next)
	}

	telemetry.Increment(e.deps.Metrics, metricEngineTicks)
	e.deps.Metrics.Store(metricEngineTick, next.Tick())
	duration := e.deps.Clock.Now().Sub(started)
	if e.budget > 0 && duration > e.budget {
		telemetry.Increment(e.deps.Metrics, metricEngineOverruns)
		simulation.TickBudgetOverrun(context.Background(), e.deps.Publisher, next.Tick(), simulation.TickBudgetOverrunPayload{
			DurationMillis: float64(duration) / float64(time.Millisecond),
			BudgetMillis:   float64(e.budget) / float64(time.Millisecond),
		})
	}
}

func (e *Engine) runSystem(system System, current state.GameState, dt time.Duration) (out state.GameState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("panic: %v", r)
		}
	}()
	return system.Update(current, dt)
}

func (e *Engine) reportFailure(tick uint64, system System, err error) {
	name := systemName(system)
	wrapped := eris.Wrapf(err, "system %s failed at tick %d", name, tick)
	telemetry.Increment(e.deps.Metrics, metricEngineSystemErrors)
	e.deps.logf("[sim] %v", wrapped)
	simulation.SystemFailed(context.Background(), e.deps.Publisher, tick, simulation.SystemFailedPayload{
		System: name,
		Error:  err.Error(),
	})
	select {
	case e.errors <- wrapped:
	default:
		telemetry.Increment(e.deps.Metrics, metricEngineErrorsDropped)
	}
}

// CreateSnapshot captures the current state for a later Rollback.
func (e *Engine) CreateSnapshot() state.Snapshot {
	return e.State().Snapshot()
}

// Rollback replaces the current state without touching the scheduler.
func (e *Engine) Rollback(snapshot state.Snapshot) {
	restored := state.FromSnapshot(snapshot)
	e.mu.Lock()
	from := e.current.Tick()
	e.current = restored
	listeners := slices.Clone(e.rollbackListeners)
	e.mu.Unlock()

	simulation.Rollback(context.Background(), e.deps.Publisher, simulation.RollbackPayload{
		FromTick: from,
		ToTick:   restored.Tick(),
	})
	for _, listener := range listeners {
		listener(restored)
	}
}
