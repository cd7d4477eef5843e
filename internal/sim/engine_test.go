package sim

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/logging/simulation"
)

type namedSystem struct {
	name string
	fn   SystemFunc
}

func (s namedSystem) Name() string { return s.name }

func (s namedSystem) Update(current state.GameState, dt time.Duration) (state.GameState, error) {
	return s.fn(current, dt)
}

type stubRunner struct {
	step    func(time.Duration)
	running bool
}

func (r *stubRunner) Start(step func(time.Duration)) {
	r.step = step
	r.running = true
}

func (r *stubRunner) Stop()         { r.running = false }
func (r *stubRunner) Running() bool { return r.running }

type countingLocker struct {
	mu     sync.Mutex
	locked bool
	locks  int
}

func (l *countingLocker) Lock() {
	l.mu.Lock()
	l.locked = true
	l.locks++
}

func (l *countingLocker) Unlock() {
	l.locked = false
	l.mu.Unlock()
}

func appendPlayer(id string) SystemFunc {
	return func(current state.GameState, _ time.Duration) (state.GameState, error) {
		players := append(current.Players(), state.PlayerState{ID: id})
		return current.WithPlayers(players), nil
	}
}

func playerIDs(s state.GameState) string {
	ids := make([]string, 0, s.PlayerCount())
	for _, player := range s.Players() {
		ids = append(ids, player.ID)
	}
	return strings.Join(ids, ",")
}

func TestEngineStepFoldsSystemsInOrder(t *testing.T) {
	engine := NewEngine(nil, state.New(), EngineOptions{})
	var seenTick uint64
	engine.AddSystem(SystemFunc(func(current state.GameState, _ time.Duration) (state.GameState, error) {
		seenTick = current.Tick()
		return current, nil
	}))
	engine.AddSystem(appendPlayer("a"))
	engine.AddSystem(appendPlayer("b"))

	engine.Step(50 * time.Millisecond)

	if seenTick != 1 {
		t.Fatalf("expected systems to observe the advanced tick 1, got %d", seenTick)
	}
	if got := playerIDs(engine.State()); got != "a,b" {
		t.Fatalf("expected systems applied in order a,b, got %q", got)
	}
}

func TestEngineIsolatesFailingSystems(t *testing.T) {
	publisher := &recordingPublisher{}
	engine := NewEngine(nil, state.New(), EngineOptions{Deps: Deps{Publisher: publisher}})
	engine.AddSystem(appendPlayer("a"))
	engine.AddSystem(namedSystem{name: "broken", fn: func(current state.GameState, _ time.Duration) (state.GameState, error) {
		return current.WithPlayers(nil), errors.New("boom")
	}})
	engine.AddSystem(namedSystem{name: "panicky", fn: func(state.GameState, time.Duration) (state.GameState, error) {
		panic("kaboom")
	}})
	engine.AddSystem(appendPlayer("b"))

	engine.Step(time.Millisecond)

	if got := playerIDs(engine.State()); got != "a,b" {
		t.Fatalf("expected failing systems to be skipped, got %q", got)
	}
	var failures []string
	for i := 0; i < 2; i++ {
		select {
		case err := <-engine.Errors():
			failures = append(failures, err.Error())
		default:
			t.Fatalf("expected two surfaced errors, got %d", len(failures))
		}
	}
	if !strings.Contains(failures[0], "broken") || !strings.Contains(failures[1], "panicky") {
		t.Fatalf("expected errors naming broken and panicky, got %v", failures)
	}
	if got := publisher.count(simulation.EventSystemFailed); got != 2 {
		t.Fatalf("expected 2 system_failed events, got %d", got)
	}
}

func TestEngineDropsErrorsWhenChannelFull(t *testing.T) {
	engine := NewEngine(nil, state.New(), EngineOptions{ErrorBuffer: 1})
	engine.AddSystem(SystemFunc(func(current state.GameState, _ time.Duration) (state.GameState, error) {
		return current, errors.New("always")
	}))

	engine.Step(time.Millisecond)
	engine.Step(time.Millisecond)

	if engine.State().Tick() != 2 {
		t.Fatalf("expected ticks to advance despite errors, got %d", engine.State().Tick())
	}
	if len(engine.Errors()) != 1 {
		t.Fatalf("expected one buffered error, got %d", len(engine.Errors()))
	}
}

func TestEngineHoldsGuardAndNotifiesListeners(t *testing.T) {
	guard := &countingLocker{}
	engine := NewEngine(nil, state.New(), EngineOptions{Guard: guard})
	engine.AddSystem(SystemFunc(func(current state.GameState, _ time.Duration) (state.GameState, error) {
		if !guard.locked {
			t.Fatalf("expected guard held while systems run")
		}
		return current, nil
	}))
	var published []uint64
	engine.OnSnapshot(func(s state.GameState) {
		if guard.locked {
			t.Fatalf("expected guard released before listeners run")
		}
		published = append(published, s.Tick())
	})

	engine.Step(time.Millisecond)
	engine.Step(time.Millisecond)

	if guard.locks != 2 {
		t.Fatalf("expected guard locked once per step, got %d", guard.locks)
	}
	if len(published) != 2 || published[0] != 1 || published[1] != 2 {
		t.Fatalf("expected snapshots for ticks 1 and 2, got %v", published)
	}
}

func TestEngineRollback(t *testing.T) {
	engine := NewEngine(nil, state.New(), EngineOptions{})
	engine.AddSystem(appendPlayer("p"))
	engine.Step(time.Millisecond)
	snapshot := engine.CreateSnapshot()
	engine.Step(time.Millisecond)
	engine.Step(time.Millisecond)

	var restored []uint64
	engine.OnRollback(func(s state.GameState) { restored = append(restored, s.Tick()) })
	engine.Rollback(snapshot)

	if engine.State().Tick() != 1 {
		t.Fatalf("expected rollback to tick 1, got %d", engine.State().Tick())
	}
	if got := playerIDs(engine.State()); got != "p" {
		t.Fatalf("expected restored players p, got %q", got)
	}
	if len(restored) != 1 || restored[0] != 1 {
		t.Fatalf("expected rollback listener for tick 1, got %v", restored)
	}
	engine.Step(time.Millisecond)
	if engine.State().Tick() != 2 {
		t.Fatalf("expected stepping to resume from the restored tick, got %d", engine.State().Tick())
	}
}

func TestEngineRollbackNotifiesListenersInOrder(t *testing.T) {
	engine := NewEngine(nil, state.New(), EngineOptions{})
	engine.Step(time.Millisecond)
	snapshot := engine.CreateSnapshot()
	engine.Step(time.Millisecond)

	var calls []string
	engine.OnRollback(func(state.GameState) { calls = append(calls, "first") })
	engine.OnRollback(nil)
	engine.OnRollback(func(state.GameState) { calls = append(calls, "second") })
	engine.Rollback(snapshot)

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected listeners in registration order, got %v", calls)
	}
}

func TestEngineReportsBudgetOverrun(t *testing.T) {
	clock := newFakeClock()
	publisher := &recordingPublisher{}
	engine := NewEngine(nil, state.New(), EngineOptions{
		Deps:   Deps{Clock: clock, Publisher: publisher},
		Budget: 10 * time.Millisecond,
	})
	engine.AddSystem(SystemFunc(func(current state.GameState, _ time.Duration) (state.GameState, error) {
		clock.Advance(25 * time.Millisecond)
		return current, nil
	}))

	engine.Step(10 * time.Millisecond)

	if got := publisher.count(simulation.EventTickBudgetOverrun); got != 1 {
		t.Fatalf("expected one overrun event, got %d", got)
	}
}

func TestEngineStartDelegatesToRunner(t *testing.T) {
	runner := &stubRunner{}
	engine := NewEngine(runner, state.New(), EngineOptions{})
	engine.Start()
	if !engine.Running() || runner.step == nil {
		t.Fatalf("expected runner to be started with the engine step")
	}
	runner.step(time.Millisecond)
	if engine.State().Tick() != 1 {
		t.Fatalf("expected runner step to advance the engine, got tick %d", engine.State().Tick())
	}
	engine.Stop()
	if engine.Running() {
		t.Fatalf("expected engine to stop with its runner")
	}
}
