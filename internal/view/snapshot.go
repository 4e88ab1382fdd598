package view

import (
	"sync"
	"time"

	"agenda/internal/model"
	"agenda/internal/store"
)

// Row is a copy of one visible event, detached from the live account so a
// renderer can hold it across ticks.
type Row struct {
	CalendarID    string
	CalendarLabel string

	EventID     string
	Title       string
	Location    string
	Description string
	Department  string

	Date     time.Time
	Duration time.Duration
	AllDay   bool
}

// GroupRows is the detached form of Group.
type GroupRows struct {
	Department string
	Rows       []Row
}

// Snapshot is the immutable view-model handed to the rendering layer.
type Snapshot struct {
	Version uint64

	Greeting string
	FilterID string
	ViewMode model.ViewMode
	Options  []string

	// Rows is the flat view; Groups the department view. Both are filled
	// regardless of ViewMode so a renderer can switch without a round trip.
	Rows   []Row
	Groups []GroupRows

	Diagnostics store.Diagnostics
}

// Engine memoizes snapshots per store version.
type Engine struct {
	store *store.Store

	mu     sync.Mutex
	cached *Snapshot
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Snapshot returns the view-model for the current store state. A cached
// snapshot is reused only while the store version is unchanged.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.store.Version()
	if e.cached != nil && e.cached.Version == v {
		return *e.cached
	}
	snap := Build(e.store)
	e.cached = &snap
	return snap
}

// Build computes a snapshot without memoization.
func Build(s *store.Store) Snapshot {
	a := s.Account()

	flat := FlatView(a)
	rows := make([]Row, 0, len(flat))
	for _, entry := range flat {
		rows = append(rows, rowOf(entry))
	}

	grouped := GroupedView(a)
	groups := make([]GroupRows, 0, len(grouped))
	for _, g := range grouped {
		gr := GroupRows{Department: g.Department, Rows: make([]Row, 0, len(g.Entries))}
		for _, entry := range g.Entries {
			gr.Rows = append(gr.Rows, rowOf(entry))
		}
		groups = append(groups, gr)
	}

	return Snapshot{
		Version:     s.Version(),
		Greeting:    s.Greeting(),
		FilterID:    a.FilterID,
		ViewMode:    a.ViewMode,
		Options:     FilterOptions(a),
		Rows:        rows,
		Groups:      groups,
		Diagnostics: s.Diagnostics(),
	}
}

func rowOf(e Entry) Row {
	return Row{
		CalendarID:    e.Calendar.ID,
		CalendarLabel: e.Calendar.Label(),
		EventID:       e.Event.ID,
		Title:         e.Event.Title,
		Location:      e.Event.Location,
		Description:   e.Event.Description,
		Department:    e.Event.Department,
		Date:          e.Event.Date,
		Duration:      e.Event.Duration,
		AllDay:        e.Event.AllDay,
	}
}
