package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/store"
)

// ErrMutationFailure wraps every error (or panic) raised by a Mutator
// during a tick.
var ErrMutationFailure = errors.New("mutation failure")

// Mutator rewrites non-identity fields of existing events.
type Mutator interface {
	Mutate(*model.Account) error
}

// MutatorFunc adapts a plain function to Mutator.
type MutatorFunc func(*model.Account) error

func (f MutatorFunc) Mutate(a *model.Account) error { return f(a) }

// State is the scheduler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Config configures a Scheduler.
type Config struct {
	// Interval between ticks. Ignored when Spec is set.
	Interval time.Duration
	// Spec is an optional standard cron expression (e.g. "*/15 * * * *")
	// or descriptor ("@every 3s", "@hourly").
	Spec string

	Mutator Mutator
	// Refresh recomputes the greeting; called on every tick after the
	// mutation, whether or not it failed.
	Refresh func()
	// Exec runs a tick on the caller's execution queue. Nil runs it
	// inline on the timer goroutine.
	Exec func(func())
	// OnError is told about every tick failure.
	OnError func(error)
	// Location for cron expressions; defaults to time.Local.
	Location *time.Location
}

// Stats counts ticks since construction.
type Stats struct {
	Ticks    int
	Failures int
}

// Scheduler fires the mutator at a fixed cadence.
type Scheduler struct {
	store    *store.Store
	cfg      Config
	schedule cron.Schedule

	mu         sync.Mutex
	state      State
	cron       *cron.Cron
	generation uint64
	stats      Stats
}

// New validates cfg and returns an idle scheduler.
func New(s *store.Store, cfg Config) (*Scheduler, error) {
	if s == nil {
		return nil, errors.New("scheduler: store is nil")
	}
	if cfg.Mutator == nil {
		return nil, errors.New("scheduler: mutator is nil")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	sched, err := parseSchedule(cfg)
	if err != nil {
		return nil, err
	}
	return &Scheduler{store: s, cfg: cfg, schedule: sched}, nil
}

func parseSchedule(cfg Config) (cron.Schedule, error) {
	if spec := strings.TrimSpace(cfg.Spec); spec != "" {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
		}
		return sched, nil
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive, got %s", cfg.Interval)
	}
	return Every(cfg.Interval), nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns the tick counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Start begins firing ticks. Starting a running scheduler is a no-op;
// starting a stopped one resumes it with a fresh timer.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return
	}

	s.generation++
	gen := s.generation

	logger := appLog.CronLogger()
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.fire(gen) }))
	c.Start()

	s.cron = c
	s.state = StateRunning
	appLog.Info("scheduler started", "interval", s.cfg.Interval, "spec", s.cfg.Spec)
}

// Stop deactivates the timer. A tick already running finishes; one that has
// fired but not yet reached the execution queue is dropped. Stop never
// waits and is safe to call repeatedly or before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.state = StateStopped
	appLog.Info("scheduler stopped", "ticks", s.stats.Ticks, "failures", s.stats.Failures)
}

// fire is the cron job; it hands the tick to the execution queue.
func (s *Scheduler) fire(gen uint64) {
	run := func() {
		if !s.current(gen) {
			return
		}
		s.Tick()
	}
	if s.cfg.Exec != nil {
		s.cfg.Exec(run)
		return
	}
	run()
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning && s.generation == gen
}

// Tick performs one mutation + greeting refresh synchronously. The returned
// error is the isolated mutation failure, if any; it has already been
// logged and reported.
func (s *Scheduler) Tick() error {
	err := s.mutate()
	if s.cfg.Refresh != nil {
		s.cfg.Refresh()
	}
	s.store.RecordTick(err)

	s.mu.Lock()
	s.stats.Ticks++
	if err != nil {
		s.stats.Failures++
	}
	s.mu.Unlock()

	if err != nil {
		appLog.Error("tick failed; schedule continues", err)
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
	}
	return err
}

// mutate runs the mutator, turning a panic into an error.
func (s *Scheduler) mutate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrMutationFailure, r)
		}
	}()
	if merr := s.store.Mutate(s.cfg.Mutator.Mutate); merr != nil {
		return fmt.Errorf("%w: %w", ErrMutationFailure, merr)
	}
	return nil
}

// Every returns a cron.Schedule firing every d, without cron.Every's
// rounding to whole seconds.
func Every(d time.Duration) cron.Schedule {
	return interval(d)
}

type interval time.Duration

func (i interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}
