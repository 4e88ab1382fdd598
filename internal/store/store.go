// Package store holds the single mutable Account together with the greeting
// and tick diagnostics shown next to it.
//
// A Store is not safe for concurrent use. Callers serialise access through
// one execution queue (see internal/loop); every write bumps Version so
// derived views can tell whether a memoized result is still current.
package store

import (
	"errors"
	"fmt"
	"slices"

	"agenda/internal/model"
)

// ErrIdentityChanged is returned by Mutate when a mutation added, removed,
// reordered or renamed calendars or events.
var ErrIdentityChanged = errors.New("mutation changed calendar/event identity")

// Diagnostics summarises scheduler activity for display.
type Diagnostics struct {
	Ticks       int
	Failures    int
	LastFailure string
}

type Store struct {
	account  *model.Account
	greeting string
	diag     Diagnostics
	version  uint64
}

// New wraps an account. A nil account is replaced by an empty one.
func New(account *model.Account) *Store {
	if account == nil {
		account = model.NewAccount()
	}
	if account.FilterID == "" {
		account.FilterID = model.FilterAll
	}
	return &Store{account: account, version: 1}
}

// Account returns the live account. Readers must not modify it; writers go
// through Mutate, SetFilterID or SetViewMode.
func (s *Store) Account() *model.Account { return s.account }

// Version increases on every write.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) FilterID() string { return s.account.FilterID }

func (s *Store) SetFilterID(id string) {
	s.account.FilterID = id
	s.version++
}

func (s *Store) ViewMode() model.ViewMode { return s.account.ViewMode }

func (s *Store) SetViewMode(m model.ViewMode) {
	s.account.ViewMode = m
	s.version++
}

func (s *Store) Greeting() string { return s.greeting }

func (s *Store) SetGreeting(g string) {
	if g == s.greeting {
		return
	}
	s.greeting = g
	s.version++
}

func (s *Store) Diagnostics() Diagnostics { return s.diag }

// RecordTick updates the tick counters; a nil err counts as a success.
func (s *Store) RecordTick(err error) {
	s.diag.Ticks++
	if err != nil {
		s.diag.Failures++
		s.diag.LastFailure = err.Error()
	}
	s.version++
}

// Mutate runs fn against the live account. The version is bumped even when
// fn fails because a failing mutator may already have touched some events.
// A mutation that changes identities is reported as ErrIdentityChanged.
func (s *Store) Mutate(fn func(*model.Account) error) error {
	before := identities(s.account)
	err := fn(s.account)
	s.version++
	if err != nil {
		return err
	}
	if after := identities(s.account); !slices.Equal(before, after) {
		return fmt.Errorf("%w (%d ids before, %d after)", ErrIdentityChanged, len(before), len(after))
	}
	return nil
}

// identities lists calendar and event ids in storage order.
func identities(a *model.Account) []string {
	out := make([]string, 0, len(a.Calendars)+a.EventCount())
	for _, c := range a.Calendars {
		out = append(out, c.ID)
		for _, ev := range c.Events {
			out = append(out, c.ID+"/"+ev.ID)
		}
	}
	return out
}
