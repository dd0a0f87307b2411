// Package sessions renders the active-session discovery list.
package sessions

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/virtual-classroom/tui/internal/client"
	"github.com/virtual-classroom/tui/internal/theme"
)

// Model holds the discovery list's selection and spinner state. The list
// itself comes from the state machine on every render.
type Model struct {
	Width    int
	Selected int

	spin spinner.Model
}

// New creates a discovery list model.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)
	return Model{spin: sp}
}

// Tick starts the spinner animation.
func (m Model) Tick() tea.Cmd {
	return m.spin.Tick
}

// Update advances the spinner.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return cmd
}

// MoveDown selects the next row.
func (m *Model) MoveDown(n int) {
	if n > 0 {
		m.Selected = (m.Selected + 1) % n
	}
}

// MoveUp selects the previous row.
func (m *Model) MoveUp(n int) {
	if n > 0 {
		m.Selected = (m.Selected - 1 + n) % n
	}
}

// Clamp keeps the selection inside the list after a wholesale replace.
func (m *Model) Clamp(n int) {
	if m.Selected >= n {
		m.Selected = 0
	}
}

// View renders the list. loading selects the spinner body.
func (m Model) View(list []client.SessionSummary, loading bool) string {
	width := m.Width
	if width < 48 {
		width = 48
	}
	innerW := width - 6

	title := theme.StyleHeader.Render("Active Sessions")
	sub := theme.StyleDimmed.Render("Join an existing session or start a new one")

	var body string
	switch {
	case loading:
		body = m.spin.View() + " Loading sessions..."
	case len(list) == 0:
		body = theme.StyleDimmed.Render("No active sessions found.\nStart a new session or check back later.")
	default:
		var rows []string
		for i, s := range list {
			prefix := "  "
			style := lipgloss.NewStyle()
			if i == m.Selected {
				prefix = "> "
				style = theme.StyleSelected
			}
			started := "N/A"
			if s.StartedAt != nil {
				started = s.StartedAt.Local().Format(time.Stamp)
			}
			rows = append(rows, style.Render(fmt.Sprintf("%s%-24s  started %s", prefix, truncate(s.DisplayName(), 24), started)))
			if s.ClassRoom != nil {
				rows = append(rows, theme.StyleDimmed.Render("    room "+s.ClassRoom.ID))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	help := theme.StyleDimmed.Render("j/k:select  enter:join  r:refresh  esc:back")
	content := lipgloss.JoinVertical(lipgloss.Left, title, sub, "", body, "", help)
	return theme.StyleBorder.Width(innerW).Padding(1, 2).Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
