// Package dashboard wires the agenda state, the views, the filter
// controller and the update scheduler around one execution queue.
package dashboard

import (
	"context"
	"errors"
	"time"

	"agenda/internal/filter"
	"agenda/internal/greeting"
	appLog "agenda/internal/log"
	"agenda/internal/loop"
	"agenda/internal/model"
	"agenda/internal/scheduler"
	"agenda/internal/store"
	"agenda/internal/view"
)

// Options holds everything New needs; there is no global lookup.
type Options struct {
	// Interval or Spec drive the scheduler (see scheduler.Config).
	Interval time.Duration
	Spec     string
	Location *time.Location

	SelectionMode filter.Mode
	ViewMode      model.ViewMode

	Mutator  scheduler.Mutator
	Greeting *greeting.Provider
}

// Dashboard is the composition root shared by the CLI and the TUI.
type Dashboard struct {
	store    *store.Store
	engine   *view.Engine
	ctrl     *filter.Controller
	sched    *scheduler.Scheduler
	queue    *loop.Queue
	greeting *greeting.Provider

	updates chan struct{}
}

// New builds a dashboard around account. The scheduler is left idle; call
// Start to begin ticking.
func New(account *model.Account, opts Options) (*Dashboard, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if opts.Mutator == nil {
		return nil, errors.New("dashboard: mutator is nil")
	}
	gp := opts.Greeting
	if gp == nil {
		var err error
		if gp, err = greeting.NewProvider(opts.Location); err != nil {
			return nil, err
		}
	}

	st := store.New(account)
	d := &Dashboard{
		store:    st,
		engine:   view.NewEngine(st),
		ctrl:     filter.New(st, opts.SelectionMode),
		queue:    loop.New(16),
		greeting: gp,
		updates:  make(chan struct{}, 1),
	}
	d.ctrl.SetViewMode(opts.ViewMode)
	d.refreshGreeting()

	sched, err := scheduler.New(st, scheduler.Config{
		Interval: opts.Interval,
		Spec:     opts.Spec,
		Location: opts.Location,
		Mutator:  opts.Mutator,
		Refresh:  d.refreshGreeting,
		Exec:     d.execTick,
	})
	if err != nil {
		d.queue.Close()
		return nil, err
	}
	d.sched = sched
	return d, nil
}

func (d *Dashboard) refreshGreeting() {
	d.store.SetGreeting(d.greeting.Current())
}

// execTick runs a scheduler tick on the queue and then wakes the renderer.
func (d *Dashboard) execTick(run func()) {
	if err := d.queue.Do(context.Background(), run); err != nil {
		appLog.Debug("tick dropped", "reason", err)
		return
	}
	d.notify()
}

func (d *Dashboard) notify() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}

// Updates receives a value after ticks; several ticks may coalesce into one.
func (d *Dashboard) Updates() <-chan struct{} { return d.updates }

// Start begins the periodic updates.
func (d *Dashboard) Start() { d.sched.Start() }

// Stop halts the periodic updates; safe to call repeatedly.
func (d *Dashboard) Stop() { d.sched.Stop() }

// State reports the scheduler state.
func (d *Dashboard) State() scheduler.State { return d.sched.State() }

// Close stops the scheduler and the queue. The dashboard is unusable
// afterwards.
func (d *Dashboard) Close() {
	d.sched.Stop()
	d.queue.Close()
}

// Tick runs one update immediately on the queue.
func (d *Dashboard) Tick(ctx context.Context) error {
	var tickErr error
	if err := d.queue.Do(ctx, func() { tickErr = d.sched.Tick() }); err != nil {
		return err
	}
	d.notify()
	return tickErr
}

// Snapshot returns the current view-model.
func (d *Dashboard) Snapshot(ctx context.Context) (view.Snapshot, error) {
	var snap view.Snapshot
	err := d.queue.Do(ctx, func() { snap = d.engine.Snapshot() })
	return snap, err
}

// SelectFilter applies a filter selection and returns the new filter id.
func (d *Dashboard) SelectFilter(ctx context.Context, sel filter.Selection) (string, error) {
	var (
		id     string
		selErr error
	)
	if err := d.queue.Do(ctx, func() { id, selErr = d.ctrl.Select(sel) }); err != nil {
		return "", err
	}
	return id, selErr
}

// ToggleViewMode flips the layout and returns the new mode.
func (d *Dashboard) ToggleViewMode(ctx context.Context) (model.ViewMode, error) {
	var mode model.ViewMode
	err := d.queue.Do(ctx, func() { mode = d.ctrl.ToggleViewMode() })
	return mode, err
}

// SetViewMode sets the layout explicitly.
func (d *Dashboard) SetViewMode(ctx context.Context, m model.ViewMode) error {
	return d.queue.Do(ctx, func() { d.ctrl.SetViewMode(m) })
}
