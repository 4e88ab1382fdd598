package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agenda/internal/model"
	"agenda/internal/store"
)

func newStore() *store.Store {
	return store.New(model.NewAccount(&model.Calendar{ID: "work", Events: []*model.Event{
		{ID: "standup", Title: "Standup"},
	}}))
}

func title(s *store.Store) string {
	return s.Account().Calendars[0].Events[0].Title
}

func TestTickFailureIsolated(t *testing.T) {
	st := newStore()
	calls := 0
	refreshed := 0
	var reported []error

	sched, err := New(st, Config{
		Interval: time.Hour,
		Mutator: MutatorFunc(func(a *model.Account) error {
			calls++
			if calls == 2 {
				return errors.New("random update failed")
			}
			a.Calendars[0].Events[0].Title = "tick"
			return nil
		}),
		Refresh: func() { refreshed++ },
		OnError: func(err error) { reported = append(reported, err) },
	})
	require.NoError(t, err)
	sched.Start()
	defer sched.Stop()

	require.NoError(t, sched.Tick())
	require.Equal(t, "tick", title(st))

	st.Account().Calendars[0].Events[0].Title = "reset"
	err = sched.Tick()
	require.ErrorIs(t, err, ErrMutationFailure)
	require.Equal(t, StateRunning, sched.State())

	require.NoError(t, sched.Tick())
	require.Equal(t, "tick", title(st))

	require.Equal(t, 3, refreshed, "greeting refreshed on every tick")
	require.Len(t, reported, 1)
	require.Equal(t, Stats{Ticks: 3, Failures: 1}, sched.Stats())

	diag := st.Diagnostics()
	require.Equal(t, 3, diag.Ticks)
	require.Equal(t, 1, diag.Failures)
	require.Contains(t, diag.LastFailure, "random update failed")
}

func TestTickRecoversPanic(t *testing.T) {
	st := newStore()
	sched, err := New(st, Config{
		Interval: time.Hour,
		Mutator:  MutatorFunc(func(*model.Account) error { panic("nil deref") }),
	})
	require.NoError(t, err)

	err = sched.Tick()
	require.ErrorIs(t, err, ErrMutationFailure)
	require.Contains(t, err.Error(), "nil deref")
}

func TestTickRejectsIdentityChange(t *testing.T) {
	st := newStore()
	sched, err := New(st, Config{
		Interval: time.Hour,
		Mutator: MutatorFunc(func(a *model.Account) error {
			a.Calendars[0].Events[0].ID = "renamed"
			return nil
		}),
	})
	require.NoError(t, err)

	err = sched.Tick()
	require.ErrorIs(t, err, ErrMutationFailure)
	require.ErrorIs(t, err, store.ErrIdentityChanged)
}

func TestTimerFiresAndStops(t *testing.T) {
	st := newStore()
	var ticks atomic.Int32
	sched, err := New(st, Config{
		Interval: 10 * time.Millisecond,
		Mutator: MutatorFunc(func(*model.Account) error {
			ticks.Add(1)
			return nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, StateIdle, sched.State())

	sched.Start()
	require.Equal(t, StateRunning, sched.State())
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sched.Stop()
	require.Equal(t, StateStopped, sched.State())
	// let an in-flight tick finish
	time.Sleep(30 * time.Millisecond)
	after := ticks.Load()

	sched.Stop()
	sched.Stop()
	require.Equal(t, StateStopped, sched.State())

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, after, ticks.Load(), "no ticks after Stop")
}

func TestTimerKeepsFiringAfterFailures(t *testing.T) {
	st := newStore()
	var ticks atomic.Int32
	sched, err := New(st, Config{
		Interval: 5 * time.Millisecond,
		Mutator: MutatorFunc(func(*model.Account) error {
			if ticks.Add(1)%2 == 0 {
				return errors.New("flaky")
			}
			return nil
		}),
	})
	require.NoError(t, err)
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool { return ticks.Load() >= 6 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, StateRunning, sched.State())
}

func TestRestartAfterStop(t *testing.T) {
	st := newStore()
	var ticks atomic.Int32
	sched, err := New(st, Config{
		Interval: 5 * time.Millisecond,
		Mutator: MutatorFunc(func(*model.Account) error {
			ticks.Add(1)
			return nil
		}),
	})
	require.NoError(t, err)

	sched.Stop() // idle: no-op
	require.Equal(t, StateIdle, sched.State())

	sched.Start()
	sched.Start()
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	sched.Stop()

	time.Sleep(20 * time.Millisecond)
	before := ticks.Load()

	sched.Start()
	defer sched.Stop()
	require.Equal(t, StateRunning, sched.State())
	require.Eventually(t, func() bool { return ticks.Load() > before }, 2*time.Second, 5*time.Millisecond)
}

func TestStaleTickDroppedAfterStop(t *testing.T) {
	st := newStore()
	pending := make(chan func(), 64)
	sched, err := New(st, Config{
		Interval: 5 * time.Millisecond,
		Mutator:  MutatorFunc(func(*model.Account) error { return nil }),
		Exec:     func(run func()) { pending <- run },
	})
	require.NoError(t, err)

	sched.Start()
	var run func()
	select {
	case run = <-pending:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	sched.Stop()

	run()
	require.Equal(t, 0, sched.Stats().Ticks)
	require.Equal(t, 0, st.Diagnostics().Ticks)
}

func TestExecRunsTicks(t *testing.T) {
	st := newStore()
	var execs atomic.Int32
	sched, err := New(st, Config{
		Interval: 5 * time.Millisecond,
		Mutator:  MutatorFunc(func(*model.Account) error { return nil }),
		Exec: func(run func()) {
			execs.Add(1)
			run()
		},
	})
	require.NoError(t, err)
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool { return sched.Stats().Ticks >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.GreaterOrEqual(t, execs.Load(), int32(2))
}

func TestNewValidation(t *testing.T) {
	st := newStore()
	noop := MutatorFunc(func(*model.Account) error { return nil })

	_, err := New(nil, Config{Interval: time.Second, Mutator: noop})
	require.Error(t, err)

	_, err = New(st, Config{Interval: time.Second})
	require.Error(t, err)

	_, err = New(st, Config{Mutator: noop})
	require.Error(t, err)

	_, err = New(st, Config{Spec: "every tuesday", Mutator: noop})
	require.Error(t, err)

	_, err = New(st, Config{Spec: "*/15 * * * *", Mutator: noop})
	require.NoError(t, err)

	_, err = New(st, Config{Spec: "@every 3s", Mutator: noop})
	require.NoError(t, err)
}

func TestEvery(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 250_000_000, time.UTC)
	require.Equal(t, base.Add(300*time.Millisecond), Every(300*time.Millisecond).Next(base))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "stopped", StateStopped.String())
}
