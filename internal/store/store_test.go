package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"agenda/internal/model"
)

func newAccount() *model.Account {
	return model.NewAccount(
		&model.Calendar{ID: "work", Events: []*model.Event{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}}},
		&model.Calendar{ID: "home", Events: []*model.Event{{ID: "1", Title: "c"}}},
	)
}

func TestNewDefaults(t *testing.T) {
	s := New(nil)
	require.NotNil(t, s.Account())
	require.Equal(t, model.FilterAll, s.FilterID())

	a := newAccount()
	a.FilterID = ""
	require.Equal(t, model.FilterAll, New(a).FilterID())
}

func TestWritesBumpVersion(t *testing.T) {
	s := New(newAccount())
	v := s.Version()

	s.SetFilterID("work")
	require.Greater(t, s.Version(), v)
	v = s.Version()

	s.SetViewMode(model.ViewByDepartment)
	require.Equal(t, model.ViewByDepartment, s.ViewMode())
	require.Greater(t, s.Version(), v)
	v = s.Version()

	s.SetGreeting("Good morning")
	require.Greater(t, s.Version(), v)
	v = s.Version()

	// same greeting is not a change
	s.SetGreeting("Good morning")
	require.Equal(t, v, s.Version())

	s.RecordTick(nil)
	require.Greater(t, s.Version(), v)
}

func TestMutateFieldChange(t *testing.T) {
	s := New(newAccount())
	v := s.Version()
	err := s.Mutate(func(a *model.Account) error {
		a.Calendars[0].Events[1].Title = "changed"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "changed", s.Account().Calendars[0].Events[1].Title)
	require.Greater(t, s.Version(), v)
}

func TestMutateFailureStillBumps(t *testing.T) {
	s := New(newAccount())
	v := s.Version()
	boom := errors.New("boom")
	err := s.Mutate(func(*model.Account) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Greater(t, s.Version(), v)
}

func TestMutateIdentityChange(t *testing.T) {
	cases := map[string]func(a *model.Account){
		"renamed event": func(a *model.Account) { a.Calendars[0].Events[0].ID = "x" },
		"added event": func(a *model.Account) {
			a.Calendars[1].Events = append(a.Calendars[1].Events, &model.Event{ID: "9"})
		},
		"removed calendar": func(a *model.Account) { a.Calendars = a.Calendars[:1] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := New(newAccount())
			err := s.Mutate(func(a *model.Account) error {
				mutate(a)
				return nil
			})
			require.ErrorIs(t, err, ErrIdentityChanged)
		})
	}
}

func TestRecordTick(t *testing.T) {
	s := New(newAccount())
	s.RecordTick(nil)
	s.RecordTick(errors.New("mutation failed"))
	s.RecordTick(nil)

	d := s.Diagnostics()
	require.Equal(t, 3, d.Ticks)
	require.Equal(t, 1, d.Failures)
	require.Equal(t, "mutation failed", d.LastFailure)
}
