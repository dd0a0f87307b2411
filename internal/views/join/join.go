// Package join renders the lobby: the join/create forms and the server
// endpoint row. It owns only input focus; all domain state lives in the
// state machine.
package join

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/virtual-classroom/tui/internal/client"
	"github.com/virtual-classroom/tui/internal/theme"
)

// Tab selects which form is active.
type Tab int

const (
	TabJoin Tab = iota
	TabCreate
)

// Field indexes the focusable inputs of the lobby.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldRole
	FieldRoomID
	FieldCreateName
	FieldServerURL
)

// Model holds the lobby form state.
type Model struct {
	Width int

	ActiveTab Tab
	Role      client.Role

	name       textinput.Model
	email      textinput.Model
	roomID     textinput.Model
	createName textinput.Model
	serverURL  textinput.Model

	focus Field
}

// New creates the lobby with the given initial endpoint.
func New(serverURL string) Model {
	name := textinput.New()
	name.Placeholder = "Enter your name"
	name.CharLimit = 64
	name.Focus()

	email := textinput.New()
	email.Placeholder = "Enter your email"
	email.CharLimit = 128

	roomID := textinput.New()
	roomID.Placeholder = "Enter room ID"
	roomID.CharLimit = 64

	createName := textinput.New()
	createName.Placeholder = "Enter classroom name"
	createName.CharLimit = 64

	url := textinput.New()
	url.Placeholder = "ws://localhost:8080/ws"
	url.CharLimit = 256
	url.SetValue(serverURL)

	return Model{
		ActiveTab:  TabJoin,
		Role:       client.RoleStudent,
		name:       name,
		email:      email,
		roomID:     roomID,
		createName: createName,
		serverURL:  url,
		focus:      FieldName,
	}
}

// Values is the current join-form input.
type Values struct {
	Name   string
	Email  string
	Role   client.Role
	RoomID string
}

// Values returns the join form's current input.
func (m Model) Values() Values {
	return Values{
		Name:   m.name.Value(),
		Email:  m.email.Value(),
		Role:   m.Role,
		RoomID: m.roomID.Value(),
	}
}

// CreateName returns the create form's classroom name.
func (m Model) CreateName() string { return m.createName.Value() }

// ServerURL returns the endpoint row's value.
func (m Model) ServerURL() string { return m.serverURL.Value() }

// SetRoomID fills the join form's room id, as after a successful create.
func (m *Model) SetRoomID(id string) { m.roomID.SetValue(id) }

// ClearCreateName empties the create form.
func (m *Model) ClearCreateName() { m.createName.SetValue("") }

// ResetParticipant clears name/email and resets the role, keeping the room
// id so a rejoin is one submit away.
func (m *Model) ResetParticipant() {
	m.name.SetValue("")
	m.email.SetValue("")
	m.Role = client.RoleStudent
	m.SetTab(TabJoin)
}

// Focused reports which field currently has focus.
func (m Model) Focused() Field { return m.focus }

// SetTab switches the active form and moves focus to its first field.
func (m *Model) SetTab(t Tab) {
	m.ActiveTab = t
	if t == TabCreate {
		m.setFocus(FieldCreateName)
	} else {
		m.setFocus(FieldName)
	}
}

// ToggleRole flips the role selector when it is focused.
func (m *Model) ToggleRole() {
	if m.Role == client.RoleStudent {
		m.Role = client.RoleTeacher
	} else {
		m.Role = client.RoleStudent
	}
}

func (m Model) fieldOrder() []Field {
	if m.ActiveTab == TabCreate {
		return []Field{FieldCreateName, FieldServerURL}
	}
	return []Field{FieldName, FieldEmail, FieldRole, FieldRoomID, FieldServerURL}
}

// FocusNext moves focus to the next field of the active tab.
func (m *Model) FocusNext() {
	order := m.fieldOrder()
	for i, f := range order {
		if f == m.focus {
			m.setFocus(order[(i+1)%len(order)])
			return
		}
	}
	m.setFocus(order[0])
}

// FocusPrev moves focus to the previous field of the active tab.
func (m *Model) FocusPrev() {
	order := m.fieldOrder()
	for i, f := range order {
		if f == m.focus {
			m.setFocus(order[(i-1+len(order))%len(order)])
			return
		}
	}
	m.setFocus(order[0])
}

func (m *Model) setFocus(f Field) {
	m.focus = f
	for _, in := range []*textinput.Model{&m.name, &m.email, &m.roomID, &m.createName, &m.serverURL} {
		in.Blur()
	}
	switch f {
	case FieldName:
		m.name.Focus()
	case FieldEmail:
		m.email.Focus()
	case FieldRoomID:
		m.roomID.Focus()
	case FieldCreateName:
		m.createName.Focus()
	case FieldServerURL:
		m.serverURL.Focus()
	}
}

// Update feeds a message to the focused text input.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case FieldName:
		m.name, cmd = m.name.Update(msg)
	case FieldEmail:
		m.email, cmd = m.email.Update(msg)
	case FieldRoomID:
		m.roomID, cmd = m.roomID.Update(msg)
	case FieldCreateName:
		m.createName, cmd = m.createName.Update(msg)
	case FieldServerURL:
		m.serverURL, cmd = m.serverURL.Update(msg)
	}
	return cmd
}

// View renders the lobby. endpointLocked dims the URL row while connected.
func (m Model) View(endpointLocked bool) string {
	width := m.Width
	if width < 48 {
		width = 48
	}
	innerW := width - 6

	tabs := m.renderTabs()

	var form string
	if m.ActiveTab == TabJoin {
		form = m.renderJoinForm()
	} else {
		form = m.renderCreateForm()
	}

	urlRow := m.renderServerRow(endpointLocked)

	content := lipgloss.JoinVertical(lipgloss.Left, tabs, "", form, "", urlRow)
	return theme.StyleBorder.Width(innerW).Padding(1, 2).Render(content)
}

func (m Model) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorAccent).Underline(true)
	inactive := theme.StyleDimmed

	joinTab := inactive.Render("Join Classroom")
	createTab := inactive.Render("Create Classroom")
	if m.ActiveTab == TabJoin {
		joinTab = active.Render("Join Classroom")
	} else {
		createTab = active.Render("Create Classroom")
	}
	return joinTab + "    " + createTab
}

func (m Model) renderJoinForm() string {
	roleVal := string(m.Role)
	if m.focus == FieldRole {
		roleVal = "< " + roleVal + " >"
	}
	roleStyle := lipgloss.NewStyle().Foreground(theme.RoleColor(string(m.Role)))

	rows := []string{
		theme.StyleLabel.Render("Your Name"),
		m.name.View(),
		theme.StyleLabel.Render("Email"),
		m.email.View(),
		theme.StyleLabel.Render("Role"),
		roleStyle.Render(roleVal),
		theme.StyleLabel.Render("Room ID"),
		m.roomID.View(),
		"",
		theme.StyleDimmed.Render("enter:join  ctrl+l:view active sessions  ctrl+t:create tab"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCreateForm() string {
	rows := []string{
		theme.StyleLabel.Render("Classroom Name"),
		m.createName.View(),
		"",
		theme.StyleDimmed.Render("enter:create  ctrl+t:join tab"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderServerRow(locked bool) string {
	label := theme.StyleLabel.Render("Server URL")
	if locked {
		return lipgloss.JoinVertical(lipgloss.Left,
			label,
			theme.StyleDimmed.Render(m.serverURL.Value()+"  (disconnect to edit)"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		label,
		m.serverURL.View(),
		theme.StyleDimmed.Render("ctrl+r:connect"),
	)
}
