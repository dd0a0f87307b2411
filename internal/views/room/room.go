// Package room renders the in-classroom view: roster partitions, class
// controls, and the activity log pane.
package room

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/virtual-classroom/tui/internal/classroom"
	"github.com/virtual-classroom/tui/internal/client"
	"github.com/virtual-classroom/tui/internal/theme"
)

const logPaneLines = 8

// Model holds the room view's scroll state.
type Model struct {
	Width  int
	Height int

	logOffset int // scroll offset from the bottom of the log
}

// New creates a room view model.
func New() Model {
	return Model{}
}

// ScrollLogUp moves the log viewport toward older entries.
func (m *Model) ScrollLogUp(n, total int) {
	m.logOffset += n
	max := total - 1
	if max < 0 {
		max = 0
	}
	if m.logOffset > max {
		m.logOffset = max
	}
}

// ScrollLogDown moves the log viewport toward newer entries.
func (m *Model) ScrollLogDown(n int) {
	m.logOffset -= n
	if m.logOffset < 0 {
		m.logOffset = 0
	}
}

// ResetScroll jumps the log back to the newest entry.
func (m *Model) ResetScroll() {
	m.logOffset = 0
}

// View renders the classroom for the given machine state.
func (m Model) View(st classroom.State) string {
	width := m.Width
	if width < 48 {
		width = 48
	}
	innerW := width - 6

	sections := []string{
		m.renderHeader(st),
		m.renderControls(st),
		m.renderRoster(st.Classroom),
		m.renderLog(st.Log, innerW),
	}
	return theme.StyleBorder.Width(innerW).Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderHeader(st classroom.State) string {
	name := "Classroom"
	id := ""
	if st.Classroom != nil {
		name = st.Classroom.Name
		id = st.Classroom.ID
	}
	role := ""
	if st.Identity != nil {
		style := lipgloss.NewStyle().Foreground(theme.RoleColor(string(st.Identity.Role)))
		role = theme.StyleDimmed.Render("You joined as ") + style.Render(string(st.Identity.Role))
	}
	lines := []string{
		theme.StyleHeader.Render(name),
		theme.StyleDimmed.Render("Session ID: " + id),
	}
	if role != "" {
		lines = append(lines, role)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderControls(st classroom.State) string {
	var status string
	switch {
	case st.Phase == classroom.PhaseEnding:
		status = lipgloss.NewStyle().Foreground(theme.ColorEnding).Render("Class session ending...")
	case st.ClassActive:
		status = lipgloss.NewStyle().Foreground(theme.ColorActive).Render("● Class is active")
	default:
		status = lipgloss.NewStyle().Foreground(theme.ColorInactive).Render("○ Class is not active")
	}

	// Start/end affordances render for teachers only; the server still
	// enforces authorization and answers over the event channel.
	help := "v:leave"
	if st.Identity != nil && st.Identity.Role == client.RoleTeacher {
		if st.ClassActive {
			help = "e:end class  " + help
		} else {
			help = "s:start class  " + help
		}
	} else if !st.ClassActive {
		status += theme.StyleDimmed.Render("  waiting for teacher to start")
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, theme.StyleDimmed.Render(help+"  u/d:scroll log"))
}

func (m Model) renderRoster(c *client.Classroom) string {
	if c == nil {
		return theme.StyleDimmed.Render("No classroom data")
	}
	teacherHdr := theme.StyleHeader.Render(fmt.Sprintf("Teachers (%d)", len(c.TeacherParticipants)))
	studentHdr := theme.StyleHeader.Render(fmt.Sprintf("Students (%d)", len(c.StudentParticipants)))

	lines := []string{"", teacherHdr}
	lines = append(lines, partitionLines(c.TeacherParticipants, theme.ColorTeacher, "No teachers in classroom")...)
	lines = append(lines, studentHdr)
	lines = append(lines, partitionLines(c.StudentParticipants, theme.ColorStudent, "No students in classroom")...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func partitionLines(list []client.Participant, color lipgloss.Color, empty string) []string {
	if len(list) == 0 {
		return []string{theme.StyleDimmed.Render("  " + empty)}
	}
	dot := lipgloss.NewStyle().Foreground(color).Render("•")
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, fmt.Sprintf("  %s %s %s", dot, p.Name, theme.StyleDimmed.Render("("+p.Email+")")))
	}
	return out
}

func (m Model) renderLog(entries []classroom.LogEntry, innerW int) string {
	title := theme.StyleHeader.Render("Activity Log")
	if len(entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, "", title, theme.StyleDimmed.Render("  No activity yet."))
	}

	end := len(entries) - m.logOffset
	start := end - logPaneLines
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	lines := []string{"", title}
	for i := start; i < end; i++ {
		e := entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		text := e.Text
		if innerW > 15 {
			if r := []rune(text); len(r) > innerW-12 {
				text = string(r[:innerW-15]) + "..."
			}
		}
		lines = append(lines, fmt.Sprintf("%s %s", ts, text))
	}
	if m.logOffset > 0 {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.logOffset)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
