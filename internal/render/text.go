// Package render draws agenda snapshots, either once as a text table or
// continuously as a terminal UI.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"agenda/internal/model"
	"agenda/internal/view"
)

const (
	dateLayout = "Mon Jan 02 15:04"
	dayLayout  = "Mon Jan 02"
)

// TextOptions tweaks the one-shot printer.
type TextOptions struct {
	Location *time.Location
	NoColor  bool
	// MaxColWidth wraps long titles; 0 uses 40.
	MaxColWidth uint
}

// Text writes snap as a table, flat or grouped according to snap.ViewMode.
func Text(w io.Writer, snap view.Snapshot, opts TextOptions) error {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxColWidth == 0 {
		opts.MaxColWidth = 40
	}

	title := color.New(color.FgCyan, color.Bold)
	heading := color.New(color.FgYellow, color.Bold)
	faint := color.New(color.Faint)
	if opts.NoColor {
		for _, c := range []*color.Color{title, heading, faint} {
			c.DisableColor()
		}
	}

	var b strings.Builder
	fmt.Fprintln(&b, title.Sprint(snap.Greeting))
	fmt.Fprintln(&b, faint.Sprintf("filter: %s  view: %s  calendars: %s",
		snap.FilterID, snap.ViewMode, strings.Join(snap.Options, ", ")))
	fmt.Fprintln(&b)

	switch {
	case snap.ViewMode == model.ViewByDepartment && len(snap.Groups) > 0:
		for i, g := range snap.Groups {
			if i > 0 {
				fmt.Fprintln(&b)
			}
			fmt.Fprintln(&b, heading.Sprintf("%s (%d)", g.Department, len(g.Rows)))
			fmt.Fprintln(&b, table(g.Rows, opts, false))
		}
	case len(snap.Rows) > 0:
		fmt.Fprintln(&b, table(snap.Rows, opts, true))
	default:
		fmt.Fprintln(&b, faint.Sprint("no events"))
	}

	if d := snap.Diagnostics; d.Ticks > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, faint.Sprintf("updates: %d  failed: %d", d.Ticks, d.Failures))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func table(rows []view.Row, opts TextOptions, withDept bool) *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = opts.MaxColWidth
	t.Wrap = true
	if withDept {
		t.AddRow("WHEN", "TITLE", "CALENDAR", "DEPARTMENT", "WHERE")
	} else {
		t.AddRow("WHEN", "TITLE", "CALENDAR", "WHERE")
	}
	for _, r := range rows {
		when := FormatWhen(r, opts.Location)
		if withDept {
			t.AddRow(when, r.Title, r.CalendarLabel, dash(r.Department), dash(r.Location))
		} else {
			t.AddRow(when, r.Title, r.CalendarLabel, dash(r.Location))
		}
	}
	return t
}

// FormatWhen renders an event's start in loc.
func FormatWhen(r view.Row, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	if r.AllDay {
		return r.Date.In(loc).Format(dayLayout) + " all day"
	}
	return r.Date.In(loc).Format(dateLayout)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
