package main

import (
	"math/rand/v2"
	"time"

	"agenda/internal/config"
	"agenda/internal/dashboard"
	"agenda/internal/filter"
	"agenda/internal/greeting"
	"agenda/internal/ics"
	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/scheduler"
	"agenda/internal/simulate"
)

type app struct {
	dash *dashboard.Dashboard
	loc  *time.Location
}

// newApp builds the dashboard described by conf. Configured ICS calendars
// are loaded and reloaded on every tick; without any, a simulated account is
// generated and randomly edited instead.
func newApp(conf *config.Config) (*app, error) {
	loc, err := conf.Location()
	if err != nil {
		return nil, err
	}
	interval, spec, err := conf.Schedule()
	if err != nil {
		return nil, err
	}
	selMode, err := filter.ParseMode(conf.SelectionMode)
	if err != nil {
		return nil, err
	}
	viewMode, err := model.ParseViewMode(conf.ViewMode)
	if err != nil {
		return nil, err
	}
	gp, err := greeting.NewProvider(loc, greeting.WithBands(conf.Greetings))
	if err != nil {
		return nil, err
	}

	account, mutator, err := buildAccount(conf, loc, time.Now())
	if err != nil {
		return nil, err
	}

	dash, err := dashboard.New(account, dashboard.Options{
		Interval:      interval,
		Spec:          spec,
		Location:      loc,
		SelectionMode: selMode,
		ViewMode:      viewMode,
		Mutator:       mutator,
		Greeting:      gp,
	})
	if err != nil {
		return nil, err
	}
	return &app{dash: dash, loc: loc}, nil
}

func buildAccount(conf *config.Config, loc *time.Location, now time.Time) (*model.Account, scheduler.Mutator, error) {
	if len(conf.Calendars) > 0 {
		sources := make([]ics.Source, 0, len(conf.Calendars))
		for _, c := range conf.Calendars {
			sources = append(sources, ics.Source{ID: c.ID, Name: c.Name, Path: c.Path})
		}
		horizon := time.Duration(conf.HorizonDays) * 24 * time.Hour
		window := func() ics.ExpandConfig {
			y, m, d := time.Now().In(loc).Date()
			start := time.Date(y, m, d, 0, 0, 0, 0, loc)
			return ics.ExpandConfig{DisplayLocation: loc, RangeStart: start, RangeEnd: start.Add(horizon)}
		}

		account, err := ics.LoadAccount(sources, window())
		if account == nil {
			return nil, nil, err
		}
		if err != nil {
			// partially loaded: keep going with what we have
			appLog.Error("some calendars failed to load", err)
		}
		appLog.Info("calendars loaded", "calendars", len(account.Calendars), "events", account.EventCount())
		return account, ics.NewReloader(sources, window), nil
	}

	seed := conf.Demo.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	account := simulate.NewAccount(rng, simulate.Options{
		Calendars:         conf.Demo.Calendars,
		EventsPerCalendar: conf.Demo.EventsPerCalendar,
		Start:             now.In(loc).Truncate(time.Hour),
		HorizonDays:       conf.HorizonDays,
	})
	appLog.Info("demo account generated", "seed", seed, "calendars", len(account.Calendars), "events", account.EventCount())
	return account, simulate.NewMutator(rng, conf.Demo.FailureRate), nil
}
