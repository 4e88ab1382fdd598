package ics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appLog "agenda/internal/log"
	"agenda/internal/model"
)

// Source is a local ICS file that becomes one calendar.
type Source struct {
	// ID is the calendar id; defaults to the file name without extension.
	ID string
	// Name is a human-friendly label shown in the UI.
	Name string
	// Path to the .ics file.
	Path string
}

func (s Source) calendarID() string {
	if s.ID != "" {
		return s.ID
	}
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadAccount reads every source and builds an account with one calendar
// per source, in source order. A source that cannot be read or parsed is
// logged and skipped; the joined per-source errors are returned alongside
// the account built from the rest.
func LoadAccount(sources []Source, cfg ExpandConfig) (*model.Account, error) {
	cals := make([]*model.Calendar, 0, len(sources))
	var errs []error

	for _, src := range sources {
		src.ID = src.calendarID()
		cal, err := loadCalendar(src, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("calendar %q: %w", src.ID, err))
			appLog.Error("ics load failed", err, "id", src.ID, "path", src.Path)
			continue
		}
		cals = append(cals, cal)
	}

	account := model.NewAccount(cals...)
	if err := account.Validate(); err != nil {
		errs = append(errs, err)
		return nil, errors.Join(errs...)
	}
	return account, errors.Join(errs...)
}

func loadCalendar(src Source, cfg ExpandConfig) (*model.Calendar, error) {
	if src.Path == "" {
		return nil, errors.New("source path is empty")
	}
	body, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseICS(src, body)
	if err != nil {
		return nil, err
	}
	res, err := ExpandOccurrences(parsed, cfg)
	if err != nil {
		return nil, err
	}
	return &model.Calendar{
		ID:     src.ID,
		Name:   src.Name,
		Events: toEvents(res.Occurrences),
	}, nil
}

// toEvents converts occurrences, making ids unique when a feed repeats a UID.
func toEvents(occs []Occurrence) []*model.Event {
	seen := make(map[string]int, len(occs))
	out := make([]*model.Event, 0, len(occs))
	for _, occ := range occs {
		id := occ.ID()
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s#%d", id, n+1)
		} else {
			seen[id] = 1
		}
		out = append(out, &model.Event{
			ID:          id,
			Title:       occ.Summary,
			Description: occ.Description,
			Location:    occ.Location,
			Department:  occ.Department,
			Date:        occ.Start,
			Duration:    occ.End.Sub(occ.Start),
			AllDay:      occ.AllDay,
		})
	}
	return out
}
