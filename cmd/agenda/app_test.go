package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agenda/internal/config"
	"agenda/internal/ics"
	"agenda/internal/simulate"
)

const homeICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//agenda//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:h1\r\nDTSTAMP:20250301T000000Z\r\nDTSTART:%s\r\nSUMMARY:Groceries\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestBuildAccountDemo(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Demo.Seed = 7
	conf.Demo.Calendars = 2
	conf.Demo.EventsPerCalendar = 3

	now := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	account, mutator, err := buildAccount(conf, time.UTC, now)
	require.NoError(t, err)
	require.NoError(t, account.Validate())
	require.Len(t, account.Calendars, 2)
	require.Equal(t, 6, account.EventCount())
	require.IsType(t, &simulate.Mutator{}, mutator)
}

func TestBuildAccountICS(t *testing.T) {
	dir := t.TempDir()
	start := time.Now().UTC().Add(2 * time.Hour).Format("20060102T150405Z")
	path := filepath.Join(dir, "home.ics")
	body := []byte(fmtICS(start))
	require.NoError(t, os.WriteFile(path, body, 0o600))

	conf := config.DefaultConfig()
	conf.Calendars = []config.CalendarConfig{{Name: "Home", Path: path}}

	account, mutator, err := buildAccount(conf, time.UTC, time.Now())
	require.NoError(t, err)
	require.Len(t, account.Calendars, 1)
	require.Equal(t, "home", account.Calendars[0].ID)
	require.Equal(t, "Groceries", account.Calendars[0].Events[0].Title)
	require.IsType(t, &ics.Reloader{}, mutator)
	require.NoError(t, mutator.Mutate(account))
}

func TestOnceCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	conf := config.DefaultConfig()
	conf.Demo.Seed = 3
	conf.Demo.FailureRate = 0
	conf.LogLevel = "error"
	require.NoError(t, conf.Save(path))

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"once", "--config", path, "--ticks", "2", "--view", "department", "--filter", "cal-1", "--no-color"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	require.Contains(t, out.String(), "filter: cal-1  view: department")
	require.Contains(t, out.String(), "updates: 2  failed: 0")
}

func TestOnceCommandRejectsUnknownFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.DefaultConfig().Save(path))

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"once", "--config", path, "--filter", "nope"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func fmtICS(start string) string {
	return fmt.Sprintf(homeICS, start)
}
