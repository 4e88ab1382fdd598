package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"agenda/internal/filter"
	"agenda/internal/model"
	"agenda/internal/view"
)

// Backend is what the TUI needs from the dashboard.
type Backend interface {
	Snapshot(ctx context.Context) (view.Snapshot, error)
	SelectFilter(ctx context.Context, sel filter.Selection) (string, error)
	ToggleViewMode(ctx context.Context) (model.ViewMode, error)
	Updates() <-chan struct{}
}

var (
	greetingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	menuStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Underline(true)
	groupStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")).MarginTop(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("212"))
	whenStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(22)
	calStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpText      = "↑/↓ move • enter filter by calendar • ←/→ filter menu • a all • v view • q quit"
)

type snapshotMsg struct{ snap view.Snapshot }

type errMsg struct{ err error }

type updateMsg struct{}

// Model is the bubbletea model of the agenda screen.
type Model struct {
	backend Backend
	ctx     context.Context
	loc     *time.Location

	snap   view.Snapshot
	loaded bool
	cursor int
	status string
	err    error
	width  int
}

// NewModel returns a TUI model reading from backend. Times are shown in loc.
func NewModel(ctx context.Context, backend Backend, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{backend: backend, ctx: ctx, loc: loc}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, backend Backend, loc *time.Location) error {
	p := tea.NewProgram(NewModel(ctx, backend, loc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitForUpdate())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.backend.Snapshot(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{snap}
	}
}

func (m Model) waitForUpdate() tea.Cmd {
	updates := m.backend.Updates()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-updates:
			return updateMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// act runs an intent and then re-reads the snapshot in the same command so
// the screen never shows the state from before the intent.
func (m Model) act(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn()
		if err != nil {
			return errMsg{err}
		}
		snap, err := m.backend.Snapshot(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		if status != "" {
			return statusMsg{snap: snap, status: status}
		}
		return snapshotMsg{snap}
	}
}

type statusMsg struct {
	snap   view.Snapshot
	status string
}

func (m Model) selectCmd(sel filter.Selection) tea.Cmd {
	return m.act(func() (string, error) {
		id, err := m.backend.SelectFilter(m.ctx, sel)
		if err != nil {
			return "", err
		}
		return "filter: " + id, nil
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		m.setSnapshot(msg.snap)
		m.err = nil
		return m, nil

	case statusMsg:
		m.setSnapshot(msg.snap)
		m.status = msg.status
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case updateMsg:
		return m, tea.Batch(m.fetch(), m.waitForUpdate())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setSnapshot(snap view.Snapshot) {
	m.snap = snap
	m.loaded = true
	if n := len(m.visibleRows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.visibleRows())-1 {
			m.cursor++
		}
		return m, nil

	case "enter", " ":
		rows := m.visibleRows()
		if len(rows) == 0 {
			return m, nil
		}
		return m, m.selectCmd(filter.Selection{ID: rows[m.cursor].CalendarID, Source: filter.SourceItem})

	case "left", "h":
		return m, m.selectCmd(filter.Selection{ID: m.menuNeighbour(-1), Source: filter.SourceMenu})

	case "right", "l":
		return m, m.selectCmd(filter.Selection{ID: m.menuNeighbour(1), Source: filter.SourceMenu})

	case "a":
		return m, m.selectCmd(filter.Selection{ID: model.FilterAll, Source: filter.SourceMenu})

	case "v":
		return m, m.act(func() (string, error) {
			mode, err := m.backend.ToggleViewMode(m.ctx)
			if err != nil {
				return "", err
			}
			return "view: " + mode.String(), nil
		})
	}
	return m, nil
}

// menuItems is the drop-down content: "all" followed by every calendar.
func (m Model) menuItems() []string {
	return append([]string{model.FilterAll}, m.snap.Options...)
}

func (m Model) menuNeighbour(step int) string {
	items := m.menuItems()
	idx := 0
	for i, id := range items {
		if id == m.snap.FilterID {
			idx = i
			break
		}
	}
	idx = ((idx+step)%len(items) + len(items)) % len(items)
	return items[idx]
}

// visibleRows lists rows in screen order for the active layout.
func (m Model) visibleRows() []view.Row {
	if m.snap.ViewMode != model.ViewByDepartment {
		return m.snap.Rows
	}
	var out []view.Row
	for _, g := range m.snap.Groups {
		out = append(out, g.Rows...)
	}
	return out
}

func (m Model) View() string {
	if !m.loaded {
		if m.err != nil {
			return errStyle.Render("error: "+m.err.Error()) + "\n"
		}
		return "loading…\n"
	}

	var b strings.Builder
	b.WriteString(greetingStyle.Render(m.snap.Greeting))
	b.WriteString("\n")
	b.WriteString(m.renderMenu())
	b.WriteString("\n\n")

	rows := m.visibleRows()
	switch {
	case len(rows) == 0:
		b.WriteString(menuStyle.Render("no events"))
		b.WriteString("\n")
	case m.snap.ViewMode == model.ViewByDepartment:
		i := 0
		for _, g := range m.snap.Groups {
			b.WriteString(groupStyle.Render(fmt.Sprintf("%s (%d)", g.Department, len(g.Rows))))
			b.WriteString("\n")
			for _, r := range g.Rows {
				b.WriteString(m.renderRow(r, i == m.cursor))
				i++
			}
		}
	default:
		for i, r := range rows {
			b.WriteString(m.renderRow(r, i == m.cursor))
		}
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderMenu() string {
	parts := make([]string, 0, len(m.snap.Options)+1)
	for _, id := range m.menuItems() {
		if id == m.snap.FilterID {
			parts = append(parts, activeStyle.Render(id))
			continue
		}
		parts = append(parts, menuStyle.Render(id))
	}
	return strings.Join(parts, menuStyle.Render(" · ")) + menuStyle.Render("   ["+m.snap.ViewMode.String()+"]")
}

func (m Model) renderRow(r view.Row, selected bool) string {
	line := fmt.Sprintf("%s %s %s", whenStyle.Render(FormatWhen(r, m.loc)), r.Title, calStyle.Render("("+r.CalendarLabel+")"))
	if r.Location != "" {
		line += menuStyle.Render(" @ " + r.Location)
	}
	if selected {
		return cursorStyle.Render(">") + " " + line + "\n"
	}
	return "  " + line + "\n"
}

func (m Model) renderStatus() string {
	var parts []string
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if d := m.snap.Diagnostics; d.Ticks > 0 {
		parts = append(parts, fmt.Sprintf("updates %d, failed %d", d.Ticks, d.Failures))
	}
	status := statusStyle.Render(strings.Join(parts, " • "))
	if m.err != nil {
		status += "\n" + errStyle.Render("error: "+m.err.Error())
	}
	return status + "\n" + menuStyle.Render(helpText) + "\n"
}
