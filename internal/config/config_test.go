package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"agenda/internal/greeting"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "3s", cfg.Refresh)
	require.Equal(t, "toggle", cfg.SelectionMode)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
refresh: "*/5 * * * *"
selection_mode: direct
calendars:
  - id: team
    path: team.ics
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "direct", cfg.SelectionMode)
	require.Equal(t, "flat", cfg.ViewMode)
	require.Equal(t, 7, cfg.HorizonDays)
	require.Equal(t, greeting.DefaultBands, cfg.Greetings)
	require.Equal(t, filepath.Join(dir, "team.ics"), cfg.Calendars[0].Path)

	d, spec, err := cfg.Schedule()
	require.NoError(t, err)
	require.Zero(t, d)
	require.Equal(t, "*/5 * * * *", spec)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, DefaultConfig()))

	t.Setenv("AGENDA_REFRESH", "250ms")
	t.Setenv("AGENDA_VIEW_MODE", "department")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "department", cfg.ViewMode)

	d, spec, err := cfg.Schedule()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, d)
	require.Empty(t, spec)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Asia/Seoul"
	cfg.Calendars = []CalendarConfig{{ID: "home", Name: "Home", Path: "/tmp/home.ics"}}
	cfg.Demo.Seed = 42
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad refresh":       func(c *Config) { c.Refresh = "sometimes" },
		"negative refresh":  func(c *Config) { c.Refresh = "-1s" },
		"bad timezone":      func(c *Config) { c.Timezone = "Mars/Olympus" },
		"bad mode":          func(c *Config) { c.SelectionMode = "sticky" },
		"bad view":          func(c *Config) { c.ViewMode = "tree" },
		"gap in greetings":  func(c *Config) { c.Greetings = []greeting.Band{{From: 0, To: 10, Text: "hi"}} },
		"failure rate":      func(c *Config) { c.Demo.FailureRate = 1.5 },
		"calendar path":     func(c *Config) { c.Calendars = []CalendarConfig{{ID: "x"}} },
		"reserved id":       func(c *Config) { c.Calendars = []CalendarConfig{{ID: "all", Path: "a.ics"}} },
		"duplicate cal ids": func(c *Config) { c.Calendars = []CalendarConfig{{ID: "x", Path: "a"}, {ID: "x", Path: "b"}} },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
	require.NoError(t, DefaultConfig().Validate())
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}
