package model

import (
	"fmt"
	"strings"
	"time"
)

// FilterAll is the FilterID sentinel that selects every calendar.
const FilterAll = "all"

// ViewMode selects how the agenda list is laid out.
type ViewMode int

const (
	// ViewFlat shows a single date-ordered list.
	ViewFlat ViewMode = iota
	// ViewByDepartment groups events by department.
	ViewByDepartment
)

func (m ViewMode) String() string {
	switch m {
	case ViewByDepartment:
		return "department"
	default:
		return "flat"
	}
}

// Toggle returns the other view mode.
func (m ViewMode) Toggle() ViewMode {
	if m == ViewByDepartment {
		return ViewFlat
	}
	return ViewByDepartment
}

// ParseViewMode accepts the config/CLI spelling of a view mode.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat":
		return ViewFlat, nil
	case "department", "grouped", "dept":
		return ViewByDepartment, nil
	default:
		return ViewFlat, fmt.Errorf("unknown view mode %q", s)
	}
}

// Event is a single dated agenda item. ID is stable for the lifetime of the
// account; every other field may be rewritten by a mutation tick.
type Event struct {
	ID string

	Title       string
	Description string
	Location    string

	// Department is optional; blank means "not assigned".
	Department string

	Date     time.Time
	Duration time.Duration
	AllDay   bool
}

// Calendar is an ordered collection of events.
type Calendar struct {
	ID string
	// Name is a human-friendly label; falls back to ID when empty.
	Name   string
	Events []*Event
}

// Label returns the display name of the calendar.
func (c *Calendar) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Account is the root of the in-memory agenda state.
type Account struct {
	Calendars []*Calendar
	FilterID  string
	ViewMode  ViewMode
}

// NewAccount returns an account showing every calendar in flat mode.
func NewAccount(calendars ...*Calendar) *Account {
	return &Account{
		Calendars: calendars,
		FilterID:  FilterAll,
		ViewMode:  ViewFlat,
	}
}

// Calendar looks up a calendar by id, returning nil when absent.
func (a *Account) Calendar(id string) *Calendar {
	for _, c := range a.Calendars {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// HasCalendar reports whether id names a calendar of this account.
func (a *Account) HasCalendar(id string) bool {
	return a.Calendar(id) != nil
}

// EventCount returns the total number of events across all calendars.
func (a *Account) EventCount() int {
	n := 0
	for _, c := range a.Calendars {
		n += len(c.Events)
	}
	return n
}

// Validate checks the ids and the filter an AccountFactory must
// satisfy.
func (a *Account) Validate() error {
	if a == nil {
		return fmt.Errorf("account is nil")
	}
	seen := make(map[string]struct{}, len(a.Calendars))
	for i, c := range a.Calendars {
		if c == nil {
			return fmt.Errorf("calendar #%d is nil", i)
		}
		if c.ID == "" {
			return fmt.Errorf("calendar #%d has empty id", i)
		}
		if c.ID == FilterAll {
			return fmt.Errorf("calendar id %q collides with the filter sentinel", c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate calendar id %q", c.ID)
		}
		seen[c.ID] = struct{}{}

		events := make(map[string]struct{}, len(c.Events))
		for j, ev := range c.Events {
			if ev == nil {
				return fmt.Errorf("calendar %q: event #%d is nil", c.ID, j)
			}
			if ev.ID == "" {
				return fmt.Errorf("calendar %q: event #%d has empty id", c.ID, j)
			}
			if _, dup := events[ev.ID]; dup {
				return fmt.Errorf("calendar %q: duplicate event id %q", c.ID, ev.ID)
			}
			events[ev.ID] = struct{}{}
		}
	}
	if a.FilterID != FilterAll && !a.HasCalendar(a.FilterID) {
		return fmt.Errorf("filter %q does not name a calendar", a.FilterID)
	}
	return nil
}
