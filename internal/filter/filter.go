package filter

import (
	"errors"
	"fmt"
	"strings"

	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/store"
)

// ErrUnknownCalendar rejects a selection naming a calendar the account does
// not have.
var ErrUnknownCalendar = errors.New("unknown calendar")

// Mode decides how a repeated selection behaves.
type Mode string

const (
	// ModeDirect always sets the filter to the selected id.
	ModeDirect Mode = "direct"
	// ModeToggle resets the filter to "all" when the active calendar is
	// selected again.
	ModeToggle Mode = "toggle"
)

// ParseMode accepts the config spelling of a selection mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeToggle:
		return ModeToggle, nil
	case ModeDirect:
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("unknown selection mode %q", s)
	}
}

// Source tells where a selection came from.
type Source int

const (
	// SourceMenu is the filter drop-down.
	SourceMenu Source = iota
	// SourceItem is a click on a rendered event.
	SourceItem
)

func (s Source) String() string {
	if s == SourceItem {
		return "item"
	}
	return "menu"
}

// Selection is a user intent to filter by one calendar (or "all").
type Selection struct {
	ID     string
	Source Source
}

// Controller turns user intents into store writes.
type Controller struct {
	store *store.Store
	mode  Mode
}

func New(s *store.Store, mode Mode) *Controller {
	if mode == "" {
		mode = ModeToggle
	}
	return &Controller{store: s, mode: mode}
}

func (c *Controller) Mode() Mode { return c.mode }

// Select applies sel to the account filter and returns the resulting
// filter id. An id that matches no calendar is rejected and leaves the
// filter untouched.
func (c *Controller) Select(sel Selection) (string, error) {
	current := c.store.FilterID()

	id := strings.TrimSpace(sel.ID)
	if id != model.FilterAll && !c.store.Account().HasCalendar(id) {
		appLog.Debug("filter selection rejected", "id", sel.ID, "source", sel.Source)
		return current, fmt.Errorf("select %q: %w", sel.ID, ErrUnknownCalendar)
	}

	next := id
	if c.mode == ModeToggle && id == current && current != model.FilterAll {
		next = model.FilterAll
	}
	if next != current {
		c.store.SetFilterID(next)
	}
	appLog.Debug("filter selected", "id", id, "source", sel.Source, "mode", c.mode, "filter", next)
	return next, nil
}

// ToggleViewMode flips between the flat and department layouts.
func (c *Controller) ToggleViewMode() model.ViewMode {
	next := c.store.ViewMode().Toggle()
	c.store.SetViewMode(next)
	return next
}

// SetViewMode sets the layout explicitly.
func (c *Controller) SetViewMode(m model.ViewMode) {
	if c.store.ViewMode() != m {
		c.store.SetViewMode(m)
	}
}
