package ics

import (
	"agenda/internal/model"
)

// Reloader re-reads the ICS sources on every tick and copies the new event
// details onto the events the account already holds. Events that appear
// or disappear in the files are ignored until the next start, since a tick
// may not change which calendars and events exist.
type Reloader struct {
	sources []Source
	window  func() ExpandConfig
}

// NewReloader returns a reloader for sources. window is called per reload so
// the expansion range can follow the clock.
func NewReloader(sources []Source, window func() ExpandConfig) *Reloader {
	return &Reloader{sources: sources, window: window}
}

// Mutate implements scheduler.Mutator. Details from sources that loaded are
// applied even when another source failed; the load error is still returned.
func (r *Reloader) Mutate(a *model.Account) error {
	fresh, err := LoadAccount(r.sources, r.window())
	if fresh == nil {
		return err
	}

	for _, cal := range a.Calendars {
		src := fresh.Calendar(cal.ID)
		if src == nil {
			continue
		}
		byID := make(map[string]*model.Event, len(src.Events))
		for _, ev := range src.Events {
			byID[ev.ID] = ev
		}
		for _, ev := range cal.Events {
			if n, ok := byID[ev.ID]; ok {
				copyDetails(ev, n)
			}
		}
	}
	return err
}

func copyDetails(dst, src *model.Event) {
	dst.Title = src.Title
	dst.Description = src.Description
	dst.Location = src.Location
	dst.Department = src.Department
	dst.Date = src.Date
	dst.Duration = src.Duration
	dst.AllDay = src.AllDay
}
