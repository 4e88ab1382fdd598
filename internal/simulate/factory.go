// Package simulate produces a demo account and the random mutations that
// make the dashboard look live.
package simulate

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"agenda/internal/model"
)

var (
	calendarNames = []string{"Work", "Personal", "Family", "Team", "Travel", "Fitness", "Side project", "Birthdays"}
	titles        = []string{
		"Standup", "Planning", "1:1", "Design review", "Lunch", "Retro",
		"Interview", "Dentist", "Demo", "Code review", "Offsite", "Sync",
		"Budget review", "Onboarding", "All hands", "Coffee chat",
	}
	locations   = []string{"", "Room 101", "Room 204", "Cafeteria", "Zoom", "Lobby", "Rooftop"}
	departments = []string{"", "", "Engineering", "Design", "Marketing", "Sales", "Support", "Finance"}
)

// Options controls the shape of a generated account.
type Options struct {
	Calendars         int
	EventsPerCalendar int
	// Start is the earliest event time; events are spread across
	// HorizonDays from there.
	Start       time.Time
	HorizonDays int
}

func (o *Options) normalize() {
	if o.Calendars <= 0 {
		o.Calendars = 3
	}
	if o.Calendars > len(calendarNames) {
		o.Calendars = len(calendarNames)
	}
	if o.EventsPerCalendar <= 0 {
		o.EventsPerCalendar = 6
	}
	if o.Start.IsZero() {
		o.Start = time.Now().Truncate(time.Hour)
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = 7
	}
}

// NewAccount builds a random account. The same seeded rng yields the same
// layout apart from event ids.
func NewAccount(rng *rand.Rand, opts Options) *model.Account {
	opts.normalize()

	names := append([]string(nil), calendarNames...)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	cals := make([]*model.Calendar, 0, opts.Calendars)
	for i := 0; i < opts.Calendars; i++ {
		cal := &model.Calendar{
			ID:   fmt.Sprintf("cal-%d", i+1),
			Name: names[i],
		}
		for j := 0; j < opts.EventsPerCalendar; j++ {
			cal.Events = append(cal.Events, randomEvent(rng, opts))
		}
		// Calendars come back from the factory in creation order, events in
		// chronological order like a freshly synced feed.
		sort.SliceStable(cal.Events, func(a, b int) bool {
			return cal.Events[a].Date.Before(cal.Events[b].Date)
		})
		cals = append(cals, cal)
	}
	return model.NewAccount(cals...)
}

func randomEvent(rng *rand.Rand, opts Options) *model.Event {
	// quarter-hour slots within the horizon
	slots := opts.HorizonDays * 24 * 4
	start := opts.Start.Add(time.Duration(rng.IntN(slots)) * 15 * time.Minute)
	return &model.Event{
		ID:         uuid.NewString(),
		Title:      pick(rng, titles),
		Location:   pick(rng, locations),
		Department: pick(rng, departments),
		Date:       start,
		Duration:   time.Duration(1+rng.IntN(8)) * 15 * time.Minute,
	}
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}
