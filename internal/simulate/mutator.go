package simulate

import (
	"errors"
	"math/rand/v2"
	"time"

	"agenda/internal/model"
)

// ErrMutationFailed is the injected failure of a Mutator tick.
var ErrMutationFailed = errors.New("simulated update failed")

// Mutator randomly rewrites a few events per call. It never touches ids or
// the calendar/event structure. It is not safe for concurrent use; the
// scheduler calls it from one execution queue.
type Mutator struct {
	rng *rand.Rand
	// FailureRate is the probability in [0,1] that a call fails before
	// changing anything.
	FailureRate float64
	// MaxChanges bounds how many events are touched per call.
	MaxChanges int
}

func NewMutator(rng *rand.Rand, failureRate float64) *Mutator {
	return &Mutator{rng: rng, FailureRate: failureRate, MaxChanges: 3}
}

// Mutate implements scheduler.Mutator.
func (m *Mutator) Mutate(a *model.Account) error {
	if m.FailureRate > 0 && m.rng.Float64() < m.FailureRate {
		return ErrMutationFailed
	}

	var events []*model.Event
	for _, c := range a.Calendars {
		events = append(events, c.Events...)
	}
	if len(events) == 0 {
		return nil
	}

	limit := m.MaxChanges
	if limit <= 0 {
		limit = 1
	}
	n := 1 + m.rng.IntN(limit)
	for i := 0; i < n; i++ {
		m.touch(events[m.rng.IntN(len(events))])
	}
	return nil
}

func (m *Mutator) touch(ev *model.Event) {
	switch m.rng.IntN(4) {
	case 0:
		ev.Title = pick(m.rng, titles)
	case 1:
		ev.Location = pick(m.rng, locations)
	case 2:
		ev.Department = pick(m.rng, departments)
	default:
		// reschedule by up to ±2h in quarter-hour steps
		shift := time.Duration(m.rng.IntN(17)-8) * 15 * time.Minute
		ev.Date = ev.Date.Add(shift)
	}
}
