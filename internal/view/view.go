package view

import (
	"sort"
	"strings"

	"agenda/internal/model"
)

// UnnamedDepartment is the group label for events without a department.
const UnnamedDepartment = "Unnamed"

// Entry pairs an event with the calendar that owns it.
type Entry struct {
	Calendar *model.Calendar
	Event    *model.Event
}

// Group is one department bucket of GroupedView.
type Group struct {
	Department string
	Entries    []Entry
}

// FlatView returns the visible events of the account, ordered by date.
// Events sharing a date keep their storage order.
func FlatView(a *model.Account) []Entry {
	entries := flatten(a)
	sortByDate(entries)
	return entries
}

// GroupedView partitions the visible events by department. Groups appear in
// the order their department is first met while walking calendars in storage
// order; each group is sorted by date like FlatView.
func GroupedView(a *model.Account) []Group {
	entries := flatten(a)

	index := make(map[string]int)
	var groups []Group
	for _, e := range entries {
		dept := departmentOf(e.Event)
		i, ok := index[dept]
		if !ok {
			i = len(groups)
			index[dept] = i
			groups = append(groups, Group{Department: dept})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	for i := range groups {
		sortByDate(groups[i].Entries)
	}
	return groups
}

// FilterOptions lists every calendar id in storage order.
func FilterOptions(a *model.Account) []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.Calendars))
	for _, c := range a.Calendars {
		out = append(out, c.ID)
	}
	return out
}

// selectCalendars applies the account filter. A filter that names no
// calendar selects nothing.
func selectCalendars(a *model.Account) []*model.Calendar {
	if a == nil {
		return nil
	}
	if a.FilterID == model.FilterAll {
		return a.Calendars
	}
	for _, c := range a.Calendars {
		if c.ID == a.FilterID {
			return []*model.Calendar{c}
		}
	}
	return nil
}

func flatten(a *model.Account) []Entry {
	cals := selectCalendars(a)
	n := 0
	for _, c := range cals {
		n += len(c.Events)
	}
	entries := make([]Entry, 0, n)
	for _, c := range cals {
		for _, ev := range c.Events {
			entries = append(entries, Entry{Calendar: c, Event: ev})
		}
	}
	return entries
}

func sortByDate(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Event.Date.Before(entries[j].Event.Date)
	})
}

func departmentOf(ev *model.Event) string {
	d := strings.TrimSpace(ev.Department)
	if d == "" {
		return UnnamedDepartment
	}
	return d
}
