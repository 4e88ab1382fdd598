package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/mitchellh/go-homedir"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"agenda/internal/filter"
	"agenda/internal/greeting"
	"agenda/internal/model"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment variables (AGENDA_*) override file values.

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.config/agenda/config.yaml"

// CalendarConfig describes a single local ICS calendar.
type CalendarConfig struct {
	// ID is the calendar id used by the filter; defaults to the file name.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// Path to the .ics file; "~" is expanded.
	Path string `yaml:"path" json:"path"`
}

// DemoConfig shapes the generated account used when no calendars are
// configured.
type DemoConfig struct {
	Calendars         int `yaml:"calendars" json:"calendars"`
	EventsPerCalendar int `yaml:"events_per_calendar" json:"events_per_calendar"`
	// FailureRate is the probability that a simulated update fails.
	FailureRate float64 `yaml:"failure_rate" json:"failure_rate"`
	// Seed makes the demo reproducible; 0 picks a random seed.
	Seed uint64 `yaml:"seed" json:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	// Refresh is either a Go duration ("3s") or a cron expression
	// ("*/15 * * * *", "@every 1m") controlling the update ticks.
	Refresh string `yaml:"refresh" json:"refresh"`

	// Timezone is the IANA timezone used for the greeting and event times.
	// "Local" uses the system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// SelectionMode is "toggle" (selecting the active calendar again
	// shows all) or "direct".
	SelectionMode string `yaml:"selection_mode" json:"selection_mode"`

	// ViewMode is the initial layout: "flat" or "department".
	ViewMode string `yaml:"view_mode" json:"view_mode"`

	// HorizonDays is the number of future days loaded from ICS files and
	// spanned by the demo account.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFile receives logs while the TUI owns the terminal.
	LogFile string `yaml:"log_file" json:"log_file"`

	Greetings []greeting.Band  `yaml:"greetings" json:"greetings"`
	Calendars []CalendarConfig `yaml:"calendars" json:"calendars"`
	Demo      DemoConfig       `yaml:"demo" json:"demo"`
}

// envOverrides lists the variables that may override file values.
type envOverrides struct {
	Refresh       string `env:"AGENDA_REFRESH"`
	Timezone      string `env:"AGENDA_TIMEZONE"`
	SelectionMode string `env:"AGENDA_SELECTION_MODE"`
	ViewMode      string `env:"AGENDA_VIEW_MODE"`
	LogLevel      string `env:"AGENDA_LOG_LEVEL"`
	LogFile       string `env:"AGENDA_LOG_FILE"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Refresh:       "3s",
		Timezone:      "Local",
		SelectionMode: string(filter.ModeToggle),
		ViewMode:      model.ViewFlat.String(),
		HorizonDays:   7,
		LogLevel:      "info",
		Greetings:     append([]greeting.Band(nil), greeting.DefaultBands...),
		Calendars:     []CalendarConfig{},
		Demo: DemoConfig{
			Calendars:         4,
			EventsPerCalendar: 6,
			FailureRate:       0.1,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if strings.TrimSpace(c.Refresh) == "" {
		c.Refresh = def.Refresh
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.SelectionMode == "" {
		c.SelectionMode = def.SelectionMode
	}
	if c.ViewMode == "" {
		c.ViewMode = def.ViewMode
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if len(c.Greetings) == 0 {
		c.Greetings = def.Greetings
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
	if c.Demo.Calendars <= 0 {
		c.Demo.Calendars = def.Demo.Calendars
	}
	if c.Demo.EventsPerCalendar <= 0 {
		c.Demo.EventsPerCalendar = def.Demo.EventsPerCalendar
	}
	if c.Demo.FailureRate < 0 {
		c.Demo.FailureRate = 0
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, _, err := c.Schedule(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := filter.ParseMode(c.SelectionMode); err != nil {
		return fmt.Errorf("selection_mode: %w", err)
	}
	if _, err := model.ParseViewMode(c.ViewMode); err != nil {
		return fmt.Errorf("view_mode: %w", err)
	}
	if err := greeting.ValidateBands(c.Greetings); err != nil {
		return fmt.Errorf("greetings: %w", err)
	}
	if c.Demo.FailureRate > 1 {
		return fmt.Errorf("demo.failure_rate must be within [0,1], got %v", c.Demo.FailureRate)
	}
	seen := make(map[string]bool, len(c.Calendars))
	for i, cal := range c.Calendars {
		if cal.Path == "" {
			return fmt.Errorf("calendars[%d]: path is empty", i)
		}
		if cal.ID == model.FilterAll {
			return fmt.Errorf("calendars[%d]: id %q is reserved", i, cal.ID)
		}
		if cal.ID != "" {
			if seen[cal.ID] {
				return fmt.Errorf("calendars[%d]: duplicate id %q", i, cal.ID)
			}
			seen[cal.ID] = true
		}
	}
	return nil
}

// Schedule interprets Refresh. It returns a positive interval for duration
// values, or the cron spec otherwise.
func (c *Config) Schedule() (time.Duration, string, error) {
	r := strings.TrimSpace(c.Refresh)
	if d, err := time.ParseDuration(r); err == nil {
		if d <= 0 {
			return 0, "", fmt.Errorf("refresh must be positive, got %q", c.Refresh)
		}
		return d, "", nil
	}
	if _, err := cron.ParseStandard(r); err != nil {
		return 0, "", fmt.Errorf("refresh %q is neither a duration nor a cron spec: %w", c.Refresh, err)
	}
	return 0, r, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ApplyEnv overrides file values with AGENDA_* environment variables.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Refresh, o.Refresh)
	set(&c.Timezone, o.Timezone)
	set(&c.SelectionMode, o.SelectionMode)
	set(&c.ViewMode, o.ViewMode)
	set(&c.LogLevel, o.LogLevel)
	set(&c.LogFile, o.LogFile)
	return nil
}

// ExpandPath resolves a leading "~".
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - Environment overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	cfg, err := read(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	for i := range cfg.Calendars {
		p, err := ExpandPath(cfg.Calendars[i].Path)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(p) {
			// Relative calendar paths are relative to the config file.
			p = filepath.Join(filepath.Dir(path), p)
		}
		cfg.Calendars[i].Path = p
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agenda-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
