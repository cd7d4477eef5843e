package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/logging/simulation"
)

const (
	DefaultMaxUpdatesPerFrame = 8
	// frameClampFactor bounds a single frame to this many timesteps before it
	// is treated as a suspended process and collapsed to one timestep.
	frameClampFactor = 8

	metricSchedulerFrames  = "sim.scheduler.frames"
	metricSchedulerSteps   = "sim.scheduler.steps"
	metricSchedulerDropped = "sim.scheduler.backlog_dropped"
)

// ErrInvalidTimestep reports a non-positive timestep.
var ErrInvalidTimestep = eris.New("timestep must be positive")

// SchedulerConfig tunes the fixed-timestep loop.
type SchedulerConfig struct {
	Timestep           time.Duration
	MaxUpdatesPerFrame int
	// LagCompensationThreshold is the backlog above which catch-up debt is
	// forgiven. Zero means Timestep × MaxUpdatesPerFrame.
	LagCompensationThreshold time.Duration
}

// Runner drives a step function at a fixed rate.
type Runner interface {
	Start(step func(dt time.Duration))
	Stop()
	Running() bool
}

// Scheduler runs step at a fixed timestep independent of wall-clock jitter.
// Catch-up per frame is bounded and unprocessable backlog is dropped.
type Scheduler struct {
	cfg  SchedulerConfig
	deps Deps

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	step func(time.Duration)
	last time.Time
	acc  time.Duration
}

func NewScheduler(cfg SchedulerConfig, deps Deps) (*Scheduler, error) {
	if cfg.Timestep <= 0 {
		return nil, eris.Wrapf(ErrInvalidTimestep, "got %s", cfg.Timestep)
	}
	if cfg.MaxUpdatesPerFrame <= 0 {
		cfg.MaxUpdatesPerFrame = DefaultMaxUpdatesPerFrame
	}
	if cfg.LagCompensationThreshold <= 0 {
		cfg.LagCompensationThreshold = cfg.Timestep * time.Duration(cfg.MaxUpdatesPerFrame)
	}
	return &Scheduler{cfg: cfg, deps: deps.withDefaults()}, nil
}

func (s *Scheduler) Timestep() time.Duration {
	return s.cfg.Timestep
}

// Start begins calling step on a background goroutine. Starting a running
// scheduler is a no-op.
func (s *Scheduler) Start(step func(dt time.Duration)) {
	if step == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.step = step
	s.last = s.deps.Clock.Now()
	s.acc = 0
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

// Stop halts future frames, waits for the loop to exit and clears the
// accumulator. It must not be called from inside step.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.acc = 0
	s.step = nil
	s.mu.Unlock()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	_, delay := s.frame()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			_, delay = s.frame()
			timer.Reset(delay)
		}
	}
}

// frame runs one real frame and returns the number of steps taken and the
// delay before the next frame.
func (s *Scheduler) frame() (int, time.Duration) {
	timestep := s.cfg.Timestep
	now := s.deps.Clock.Now()
	frameTime := now.Sub(s.last)
	s.last = now
	if frameTime < 0 {
		frameTime = 0
	}
	if frameTime > timestep*frameClampFactor {
		frameTime = timestep
	}
	s.acc += frameTime

	updates := 0
	for s.acc >= timestep && updates < s.cfg.MaxUpdatesPerFrame {
		s.step(timestep)
		s.acc -= timestep
		updates++
	}
	telemetry.Increment(s.deps.Metrics, metricSchedulerFrames)
	if updates > 0 {
		s.deps.Metrics.Add(metricSchedulerSteps, uint64(updates))
	}

	if s.acc > s.cfg.LagCompensationThreshold {
		dropped := s.acc - min(s.acc, timestep)
		s.acc = min(s.acc, timestep)
		s.deps.Metrics.Add(metricSchedulerDropped, uint64(dropped/time.Millisecond))
		simulation.BacklogDropped(context.Background(), s.deps.Publisher, simulation.BacklogDroppedPayload{
			DroppedMillis: float64(dropped) / float64(time.Millisecond),
			Updates:       updates,
		})
	}

	elapsed := s.deps.Clock.Now().Sub(now)
	return updates, max(0, timestep-elapsed)
}
