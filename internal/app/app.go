// Package app wires the transport, the session state machine, and the
// views into the root Bubble Tea model. Every inbound socket event, user
// command, and settle timer is serialized through Update.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/virtual-classroom/tui/internal/classroom"
	"github.com/virtual-classroom/tui/internal/client"
	"github.com/virtual-classroom/tui/internal/theme"
	"github.com/virtual-classroom/tui/internal/views/help"
	"github.com/virtual-classroom/tui/internal/views/join"
	"github.com/virtual-classroom/tui/internal/views/room"
	"github.com/virtual-classroom/tui/internal/views/sessions"
)

// screen identifies which main view is showing.
type screen int

const (
	screenLobby screen = iota
	screenBrowsing
	screenRoom
)

// settleMsg is a settle-window timer tick.
type settleMsg struct {
	token uuid.UUID
	stage classroom.SettleStage
}

// createResultMsg carries the create-classroom HTTP response.
type createResultMsg struct {
	resp *client.CreateClassroomResponse
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	socket   *client.SocketClient
	http     *client.HTTPClient
	machine  *classroom.Machine
	dispatch *classroom.Dispatcher
	ctx      context.Context
	cancel   context.CancelFunc

	keys   KeyMap
	width  int
	height int

	lobby    join.Model
	list     sessions.Model
	room     room.Model
	help     help.Model
	showHelp bool
}

// New creates the root model.
func New(socket *client.SocketClient, httpClient *client.HTTPClient, machine *classroom.Machine) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		socket:   socket,
		http:     httpClient,
		machine:  machine,
		dispatch: classroom.NewDispatcher(socket, httpClient),
		ctx:      ctx,
		cancel:   cancel,
		keys:     DefaultKeyMap(),
		lobby:    join.New(socket.URL()),
		list:     sessions.New(),
		room:     room.New(),
		help:     help.New(80),
	}
}

// Init starts the first connection attempt.
func (m Model) Init() tea.Cmd {
	m.machine.BeginConnecting(m.socket.URL())
	return tea.Batch(m.socket.Listen(m.ctx, false), textinput.Blink)
}

func (m Model) screen() screen {
	st := m.machine.State()
	if st.InClassroom || st.Phase == classroom.PhaseEnding {
		return screenRoom
	}
	if st.Phase == classroom.PhaseBrowsing {
		return screenBrowsing
	}
	return screenLobby
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lobby.Width = msg.Width
		m.list.Width = msg.Width
		m.room.Width = msg.Width
		m.room.Height = msg.Height
		m.help = help.New(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.machine.State().LoadingSessions {
			return m, m.list.Update(msg)
		}
		return m, nil

	case client.SocketConnectedMsg:
		m.machine.HandleConnected(msg.Attempt, msg.Reconnected)
		return m, m.socket.ReadLoop(m.ctx)

	case client.SocketDisconnectedMsg:
		reason := ""
		if msg.Reason != nil {
			reason = msg.Reason.Error()
		}
		m.machine.HandleDisconnected(reason)
		m.machine.BeginConnecting(m.socket.URL())
		return m, m.socket.Listen(m.ctx, true)

	case client.SocketConnectFailedMsg:
		m.machine.HandleConnectFailed(errString(msg.Err), msg.Attempts)
		return m, nil

	case client.SocketReconnectFailedMsg:
		m.machine.HandleReconnectFailed(errString(msg.Err), msg.Attempts)
		return m, nil

	case client.JoinSuccessMsg:
		m.machine.HandleJoinSuccess(msg.Payload)
		m.room.ResetScroll()
		return m, m.socket.ReadLoop(m.ctx)

	case client.SetUserMsg:
		m.machine.HandleSetUser(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.ClassroomUpdatedMsg:
		m.machine.HandleClassroomUpdated(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.SessionUpdatedMsg:
		m.machine.HandleSessionUpdated(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.SessionStartedMsg:
		m.machine.HandleSessionStarted(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.SessionEndedMsg:
		effects := m.machine.HandleSessionEnded(msg.Payload)
		return m, tea.Batch(append(m.effectCmds(effects), m.socket.ReadLoop(m.ctx))...)

	case client.LeaveSuccessMsg:
		m.machine.HandleLeaveSuccess(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.UserJoinedMsg:
		m.machine.HandleUserJoined(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.UserLeftMsg:
		m.machine.HandleUserLeft(msg.Payload)
		return m, m.socket.ReadLoop(m.ctx)

	case client.ActiveSessionsMsg:
		m.machine.HandleActiveSessions(msg.Payload)
		m.list.Clamp(len(m.machine.State().ActiveSessions))
		return m, m.socket.ReadLoop(m.ctx)

	case client.ServerErrorMsg:
		m.machine.HandleServerError(msg.Payload.Message)
		return m, m.socket.ReadLoop(m.ctx)

	case settleMsg:
		effects := m.machine.HandleSettleElapsed(msg.token, msg.stage)
		if msg.stage == classroom.SettleReset && m.machine.State().Phase == classroom.PhaseUnjoined {
			m.lobby.ResetParticipant()
		}
		return m, tea.Batch(m.effectCmds(effects)...)

	case createResultMsg:
		return m.handleCreateResult(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		m.socket.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	}

	switch m.screen() {
	case screenLobby:
		return m.handleLobbyKey(msg)
	case screenBrowsing:
		return m.handleBrowsingKey(msg)
	default:
		return m.handleRoomKey(msg)
	}
}

func (m Model) handleLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField):
		m.lobby.FocusNext()
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.lobby.FocusPrev()
		return m, nil

	case key.Matches(msg, m.keys.SwitchTab):
		if m.lobby.ActiveTab == join.TabJoin {
			m.lobby.SetTab(join.TabCreate)
		} else {
			m.lobby.SetTab(join.TabJoin)
		}
		return m, nil

	case key.Matches(msg, m.keys.Sessions):
		return m.requestSessions()

	case key.Matches(msg, m.keys.Reconnect):
		return m.connect()

	case key.Matches(msg, m.keys.Submit):
		switch {
		case m.lobby.Focused() == join.FieldServerURL:
			return m.connect()
		case m.lobby.ActiveTab == join.TabCreate:
			return m.requestCreate()
		default:
			return m.requestJoin()
		}
	}

	// Left/right and space flip the role selector when it has focus.
	if m.lobby.Focused() == join.FieldRole {
		switch msg.String() {
		case "left", "right", " ":
			m.lobby.ToggleRole()
			return m, nil
		}
	}

	cmd := m.lobby.Update(msg)
	return m, cmd
}

func (m Model) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.machine.State().ActiveSessions)
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.machine.EndBrowsing()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.list.MoveDown(n)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.MoveUp(n)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m.requestRefresh()

	case key.Matches(msg, m.keys.Reconnect):
		return m.connect()

	case key.Matches(msg, m.keys.Submit):
		return m.requestJoinSelected()
	}
	return m, nil
}

func (m Model) handleRoomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.machine.State()
	switch {
	case key.Matches(msg, m.keys.StartClass):
		return m.command(m.dispatch.StartClass, "Requesting to start class...")

	case key.Matches(msg, m.keys.EndClass):
		return m.command(m.dispatch.EndClass, "Requesting to end class...")

	case key.Matches(msg, m.keys.Leave):
		return m.command(m.dispatch.Leave, "Leaving classroom...")

	case key.Matches(msg, m.keys.LogUp):
		m.room.ScrollLogUp(1, len(st.Log))
		return m, nil

	case key.Matches(msg, m.keys.LogDown):
		m.room.ScrollLogDown(1)
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		return m.connect()
	}
	return m, nil
}

// --- Commands ---

// command runs a zero-argument dispatcher call, logging the intent on
// success and surfacing the gate error otherwise.
func (m Model) command(fn func() error, note string) (tea.Model, tea.Cmd) {
	if err := fn(); err != nil {
		m.machine.SetError(friendly(err))
		return m, nil
	}
	m.machine.Note(note)
	return m, nil
}

func (m Model) requestJoin() (tea.Model, tea.Cmd) {
	v := m.lobby.Values()
	if err := m.dispatch.Join(v.Name, v.Email, v.Role, v.RoomID); err != nil {
		m.machine.SetError(friendly(err))
		return m, nil
	}
	m.machine.ClearError()
	m.machine.Note("Attempting to join room: " + strings.TrimSpace(v.RoomID))
	return m, nil
}

func (m Model) requestSessions() (tea.Model, tea.Cmd) {
	v := m.lobby.Values()
	if err := m.dispatch.ListSessions(v.Name, v.Email, v.Role, v.RoomID); err != nil {
		m.machine.SetError(friendly(err))
		return m, nil
	}
	m.machine.ClearError()
	m.machine.BeginBrowsing(false)
	return m, m.list.Tick()
}

func (m Model) requestRefresh() (tea.Model, tea.Cmd) {
	if err := m.dispatch.RefreshSessions(); err != nil {
		m.machine.SetError(friendly(err))
		return m, nil
	}
	m.machine.BeginBrowsing(true)
	return m, m.list.Tick()
}

func (m Model) requestJoinSelected() (tea.Model, tea.Cmd) {
	st := m.machine.State()
	if len(st.ActiveSessions) == 0 {
		return m, nil
	}
	idx := m.list.Selected
	if idx >= len(st.ActiveSessions) {
		idx = 0
	}
	s := st.ActiveSessions[idx]

	p := m.participant(st)
	if err := m.dispatch.JoinSession(s.ID, p); err != nil {
		m.machine.SetError(friendly(err))
		return m, nil
	}
	m.machine.Note("Joining session: " + s.DisplayName())
	return m, nil
}

// participant prefers the server-confirmed identity and falls back to the
// form values for a first join.
func (m Model) participant(st classroom.State) client.Participant {
	if st.Identity != nil {
		return *st.Identity
	}
	v := m.lobby.Values()
	return client.Participant{
		Name:  strings.TrimSpace(v.Name),
		Email: strings.TrimSpace(v.Email),
		Role:  v.Role,
	}
}

func (m Model) requestCreate() (tea.Model, tea.Cmd) {
	name := m.lobby.CreateName()
	d := m.dispatch
	return m, func() tea.Msg {
		resp, err := d.CreateClassroom(name)
		return createResultMsg{resp: resp, err: err}
	}
}

func (m Model) handleCreateResult(msg createResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, classroom.ErrInvalidInput) {
			m.machine.SetError("Please enter a classroom name")
		} else {
			m.machine.SetError("Failed to create classroom. Check if server is running.")
			m.machine.Note("Create classroom error: " + msg.err.Error())
		}
		return m, nil
	}
	if !msg.resp.Success {
		m.machine.SetError(msg.resp.Message)
		m.machine.Note("Failed to create classroom: " + msg.resp.Message)
		return m, nil
	}
	roomID := msg.resp.Data.RoomID
	m.machine.ClearError()
	m.machine.Note("Classroom created with ID: " + roomID)
	m.lobby.SetRoomID(roomID)
	m.lobby.ClearCreateName()
	m.lobby.SetTab(join.TabJoin)
	return m, nil
}

// connect opens a connection to the endpoint in the URL field. A live
// connection is torn down first so two never coexist, and the endpoint is
// only rewritten while disconnected.
func (m Model) connect() (tea.Model, tea.Cmd) {
	target := strings.TrimSpace(m.lobby.ServerURL())
	if target == "" {
		target = m.socket.URL()
	}

	if m.socket.Connected() {
		m.socket.Close()
		m.machine.Note("Attempting to reconnect...")
	}
	if err := m.socket.SetURL(target); err != nil {
		m.machine.SetError(err.Error())
		return m, nil
	}
	m.http.SetBaseURL(deriveHTTPBase(target))
	m.machine.ClearError()
	m.machine.BeginConnecting(target)
	return m, m.socket.Listen(m.ctx, false)
}

func (m Model) effectCmds(effects []classroom.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		switch e := e.(type) {
		case classroom.ScheduleSettle:
			token, stage := e.Token, e.Stage
			cmds = append(cmds, tea.Tick(e.Delay, func(time.Time) tea.Msg {
				return settleMsg{token: token, stage: stage}
			}))
		}
	}
	return cmds
}

// --- View ---

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	st := m.machine.State()

	if m.showHelp {
		return m.help.View()
	}

	sections := []string{
		m.renderHeader(st),
	}
	if st.ErrMsg != "" {
		sections = append(sections, theme.StyleError.Render("✗ "+st.ErrMsg))
	}

	switch m.screen() {
	case screenRoom:
		sections = append(sections, m.room.View(st))
	case screenBrowsing:
		sections = append(sections, m.list.View(st.ActiveSessions, st.LoadingSessions))
	default:
		sections = append(sections, m.lobby.View(st.Conn == classroom.Connected))
	}

	sections = append(sections, theme.StyleDimmed.Render("  ctrl+g:help  ctrl+c:quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(st classroom.State) string {
	title := theme.StyleHeader.Render("Virtual Classroom")

	var conn string
	switch st.Conn {
	case classroom.Connected:
		conn = lipgloss.NewStyle().Foreground(theme.ColorConnected).
			Render("● Connected to " + m.socket.URL())
	case classroom.Connecting:
		conn = lipgloss.NewStyle().Foreground(theme.ColorConnecting).
			Render("◌ Connecting...")
	case classroom.ReconnectFailed:
		conn = lipgloss.NewStyle().Foreground(theme.ColorDisconnected).
			Render("○ Reconnection failed. ctrl+r to retry")
	default:
		text := "○ Disconnected"
		if st.ConnErr != "" {
			text = "○ Connection failed: " + st.ConnErr
		}
		conn = lipgloss.NewStyle().Foreground(theme.ColorDisconnected).
			Render(text + ". ctrl+r to retry")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, conn)
}

// --- Helpers ---

func friendly(err error) string {
	switch {
	case errors.Is(err, classroom.ErrNotConnected):
		return "Not connected to server"
	case errors.Is(err, classroom.ErrInvalidInput):
		return "Please fill in all fields"
	default:
		return err.Error()
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
