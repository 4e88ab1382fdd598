package greeting

import (
	"errors"
	"fmt"
	"time"
)

// Band maps the hours [From, To) to a greeting.
type Band struct {
	From int    `yaml:"from" json:"from"`
	To   int    `yaml:"to" json:"to"`
	Text string `yaml:"text" json:"text"`
}

// DefaultBands covers the whole day.
var DefaultBands = []Band{
	{From: 0, To: 5, Text: "Good night"},
	{From: 5, To: 12, Text: "Good morning"},
	{From: 12, To: 17, Text: "Good afternoon"},
	{From: 17, To: 22, Text: "Good evening"},
	{From: 22, To: 24, Text: "Good night"},
}

// HourToGreeting returns the default greeting for an hour of the day.
// Hours outside 0-23 wrap around.
func HourToGreeting(hour int) string {
	return lookup(DefaultBands, hour)
}

func lookup(bands []Band, hour int) string {
	h := ((hour % 24) + 24) % 24
	for _, b := range bands {
		if h >= b.From && h < b.To {
			return b.Text
		}
	}
	return ""
}

// ValidateBands checks that bands are ordered, contiguous and cover 0-24.
func ValidateBands(bands []Band) error {
	if len(bands) == 0 {
		return errors.New("greeting: no bands")
	}
	next := 0
	for i, b := range bands {
		if b.From != next {
			return fmt.Errorf("greeting: band %d starts at %d, want %d", i, b.From, next)
		}
		if b.To <= b.From {
			return fmt.Errorf("greeting: band %d is empty (%d-%d)", i, b.From, b.To)
		}
		if b.Text == "" {
			return fmt.Errorf("greeting: band %d has no text", i)
		}
		next = b.To
	}
	if next != 24 {
		return fmt.Errorf("greeting: bands end at %d, want 24", next)
	}
	return nil
}

// Provider computes the greeting for the current wall-clock hour.
type Provider struct {
	bands []Band
	loc   *time.Location
	now   func() time.Time
}

// Option customises a Provider.
type Option func(*Provider)

// WithBands replaces the default table. Invalid tables are ignored by
// NewProvider and reported as an error.
func WithBands(bands []Band) Option {
	return func(p *Provider) {
		if len(bands) > 0 {
			p.bands = append([]Band(nil), bands...)
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider builds a provider for the given display location
// (time.Local when nil).
func NewProvider(loc *time.Location, opts ...Option) (*Provider, error) {
	if loc == nil {
		loc = time.Local
	}
	p := &Provider{bands: DefaultBands, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if err := ValidateBands(p.bands); err != nil {
		return nil, err
	}
	return p, nil
}

// ForHour looks up the greeting for hour in this provider's table.
func (p *Provider) ForHour(hour int) string {
	return lookup(p.bands, hour)
}

// Current returns the greeting for the current hour in the display location.
func (p *Provider) Current() string {
	return p.ForHour(p.now().In(p.loc).Hour())
}
