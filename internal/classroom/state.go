// Package classroom holds the client-side session state machine: the single
// consistent view of connection, identity, room, and roster state, advanced
// only by typed transport events, user commands, and settle timers.
package classroom

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/virtual-classroom/tui/internal/client"
)

// ConnectionStatus tracks the transport lifecycle.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
	ReconnectFailed
)

// String returns the display name of a connection status.
func (s ConnectionStatus) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ReconnectFailed:
		return "reconnect failed"
	default:
		return "unknown"
	}
}

// Phase names the classroom state machine's position.
type Phase int

const (
	PhaseUnjoined Phase = iota
	PhaseBrowsing
	PhaseJoinedInactive
	PhaseJoinedActive
	PhaseEnding
)

// String returns the display name of a phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnjoined:
		return "unjoined"
	case PhaseBrowsing:
		return "browsing"
	case PhaseJoinedInactive:
		return "joined"
	case PhaseJoinedActive:
		return "class active"
	case PhaseEnding:
		return "ending"
	default:
		return "unknown"
	}
}

// SettleStage identifies which step of the ended-settle window a timer
// belongs to.
type SettleStage int

const (
	// SettleNotice fires after the ended message has been visible; it
	// appends the redirect notice and arms the final stage.
	SettleNotice SettleStage = iota + 1
	// SettleReset fires after the redirect notice; it performs the reset.
	SettleReset
)

// Effect is a side effect the host event loop must run for the machine.
type Effect interface{ isEffect() }

// ScheduleSettle asks the host to deliver a settle tick after Delay. The
// token ties the tick to the Ending window that armed it; a rotated token
// makes the tick a no-op.
type ScheduleSettle struct {
	Token uuid.UUID
	Stage SettleStage
	Delay time.Duration
}

func (ScheduleSettle) isEffect() {}

// SettleDelays configures the two pauses of the ended-settle window.
type SettleDelays struct {
	EndedNotice time.Duration
	Redirect    time.Duration
}

// DefaultSettleDelays returns the stock pauses: one second on the ended
// message, two more on the redirect notice.
func DefaultSettleDelays() SettleDelays {
	return SettleDelays{EndedNotice: 1 * time.Second, Redirect: 2 * time.Second}
}

// State is the read-only aggregate exposed to the renderer.
type State struct {
	Conn            ConnectionStatus
	ConnErr         string
	Phase           Phase
	Identity        *client.Participant
	Classroom       *client.Classroom
	Session         *client.ClassSession
	InClassroom     bool
	ClassActive     bool
	ActiveSessions  []client.SessionSummary
	LoadingSessions bool
	ErrMsg          string
	Log             []LogEntry
}

// Machine is the session state machine. It is not safe for concurrent use;
// the host loop serializes every input.
type Machine struct {
	delays SettleDelays

	conn        ConnectionStatus
	connErr     string
	phase       Phase
	identity    *client.Participant
	room        *client.Classroom
	session     *client.ClassSession
	inClassroom bool
	classActive bool
	sessions    []client.SessionSummary
	loading     bool
	errMsg      string
	log         Log

	// resetToken ties pending settle timers to the Ending window that
	// armed them. Rotating it invalidates every outstanding tick.
	resetToken uuid.UUID
}

// NewMachine creates a machine in the Unjoined, Disconnected state.
func NewMachine(delays SettleDelays) *Machine {
	return &Machine{delays: delays, resetToken: uuid.New()}
}

// State returns a snapshot of the current aggregate. Pointer and slice
// fields are copies; callers cannot mutate machine state through them.
func (m *Machine) State() State {
	st := State{
		Conn:            m.conn,
		ConnErr:         m.connErr,
		Phase:           m.phase,
		InClassroom:     m.inClassroom,
		ClassActive:     m.classActive,
		LoadingSessions: m.loading,
		ErrMsg:          m.errMsg,
		Log:             m.log.Entries(),
	}
	if m.identity != nil {
		p := *m.identity
		st.Identity = &p
	}
	if m.room != nil {
		st.Classroom = m.room.Clone()
	}
	if m.session != nil {
		s := *m.session
		st.Session = &s
	}
	if m.sessions != nil {
		st.ActiveSessions = make([]client.SessionSummary, len(m.sessions))
		copy(st.ActiveSessions, m.sessions)
	}
	return st
}

// --- Connection lifecycle ---

// BeginConnecting marks a dial in progress.
func (m *Machine) BeginConnecting(endpoint string) {
	m.conn = Connecting
	m.connErr = ""
	m.log.Append("Connecting to " + endpoint + "...")
}

// HandleConnected applies a successful (re)connect.
func (m *Machine) HandleConnected(attempt int, reconnected bool) {
	m.conn = Connected
	m.connErr = ""
	if reconnected {
		m.log.Append(fmt.Sprintf("Reconnected (attempt %d)", attempt))
	} else {
		m.log.Append("Connected to server")
	}
}

// HandleDisconnected applies a dropped connection. Membership is preserved
// so a reconnect can resume the classroom.
func (m *Machine) HandleDisconnected(reason string) {
	m.conn = Disconnected
	m.loading = false
	if reason != "" {
		m.log.Append("Disconnected: " + reason)
	} else {
		m.log.Append("Disconnected from server")
	}
}

// HandleConnectFailed applies an exhausted first-connect budget.
func (m *Machine) HandleConnectFailed(errText string, attempts int) {
	m.conn = Disconnected
	m.connErr = errText
	m.log.Append(fmt.Sprintf("Connection error: %s (gave up after %d attempts)", errText, attempts))
}

// HandleReconnectFailed applies an exhausted reconnect budget.
func (m *Machine) HandleReconnectFailed(errText string, attempts int) {
	m.conn = ReconnectFailed
	m.connErr = errText
	m.log.Append(fmt.Sprintf("Reconnection failed: %s (gave up after %d attempts)", errText, attempts))
}

// --- Classroom lifecycle ---

// HandleJoinSuccess enters the classroom. Arriving during an Ending window
// it cancels the pending reset; the new membership wins.
func (m *Machine) HandleJoinSuccess(p client.JoinSuccessPayload) {
	room := p.Classroom
	m.room = room.Clone()
	m.session = nil
	m.inClassroom = true
	m.classActive = m.room.HasActiveSession()
	if m.classActive {
		m.phase = PhaseJoinedActive
	} else {
		m.phase = PhaseJoinedInactive
	}
	m.sessions = nil
	m.loading = false
	m.errMsg = ""
	m.resetToken = uuid.New()
	if p.Message != "" {
		m.log.Append(p.Message)
	}
}

// HandleSetUser records the server-confirmed identity. Re-applying the same
// id is a no-op so duplicate delivery neither logs twice nor re-triggers
// role-dependent rendering.
func (m *Machine) HandleSetUser(p client.Participant) {
	if m.identity != nil && m.identity.ID == p.ID {
		return
	}
	m.identity = &p
	m.log.Append(fmt.Sprintf("Identity confirmed: %s (%s)", p.Name, p.Role))
}

// HandleClassroomUpdated replaces the classroom snapshot wholesale.
// Ignored when no classroom is held; the update may race a processed leave.
func (m *Machine) HandleClassroomUpdated(c client.Classroom) {
	if !m.inClassroom {
		return
	}
	m.room = c.Clone()
	m.log.Append("Classroom updated")
}

// HandleSessionUpdated replaces the class session and recomputes the
// derived active flag, flipping JoinedInactive ⇄ JoinedActive.
func (m *Machine) HandleSessionUpdated(s client.ClassSession) {
	m.session = &s
	m.classActive = s.Active()
	if m.inClassroom && m.phase != PhaseEnding {
		if m.classActive {
			m.phase = PhaseJoinedActive
		} else {
			m.phase = PhaseJoinedInactive
		}
	}
	m.log.Append("Class session updated")
}

// HandleSessionStarted applies a class start. Ignored when not in a
// classroom (raced with a processed leave).
func (m *Machine) HandleSessionStarted(p client.SessionStartedPayload) {
	if !m.inClassroom {
		return
	}
	m.classActive = true
	if m.phase != PhaseEnding {
		m.phase = PhaseJoinedActive
	}
	m.log.Append(fmt.Sprintf("%s by %s", p.Message, p.StartedBy))
}

// HandleSessionEnded opens the Ending window: the ended notice stays
// visible for the configured delay, then a redirect notice, then the reset.
// Ignored when not in a classroom (raced with a processed leave).
func (m *Machine) HandleSessionEnded(p client.SessionEndedPayload) []Effect {
	if !m.inClassroom {
		return nil
	}
	m.classActive = false
	m.phase = PhaseEnding
	m.log.Append(fmt.Sprintf("%s by %s", p.Message, p.EndedBy))
	m.resetToken = uuid.New()
	return []Effect{ScheduleSettle{
		Token: m.resetToken,
		Stage: SettleNotice,
		Delay: m.delays.EndedNotice,
	}}
}

// HandleSettleElapsed advances the Ending window. Ticks carrying a stale
// token, or arriving outside an Ending window, are no-ops: a join or leave
// processed in the meantime already superseded the reset.
func (m *Machine) HandleSettleElapsed(token uuid.UUID, stage SettleStage) []Effect {
	if m.phase != PhaseEnding || token != m.resetToken {
		return nil
	}
	switch stage {
	case SettleNotice:
		m.log.Append("Session ended. Redirecting to join page...")
		return []Effect{ScheduleSettle{
			Token: token,
			Stage: SettleReset,
			Delay: m.delays.Redirect,
		}}
	case SettleReset:
		m.resetToUnjoined()
	}
	return nil
}

// HandleLeaveSuccess resets to Unjoined immediately, cancelling any pending
// settle timer.
func (m *Machine) HandleLeaveSuccess(p client.LeavePayload) {
	msg := p.Message
	m.resetToUnjoined()
	if msg != "" {
		m.log.Append(msg)
	}
}

// HandleUserJoined applies a roster join delta. A delta with no classroom
// held is ignored; it may race a leave or end already processed.
func (m *Machine) HandleUserJoined(p client.RosterDeltaPayload) {
	if !m.inClassroom || m.room == nil {
		return
	}
	next := client.ApplyJoined(m.room, p.Participant)
	if next == m.room {
		return
	}
	m.room = next
	m.log.Append(fmt.Sprintf("%s joined as %s", p.Participant.Name, p.Participant.Role))
}

// HandleUserLeft applies a roster leave delta, with the same race policy.
func (m *Machine) HandleUserLeft(p client.RosterDeltaPayload) {
	if !m.inClassroom || m.room == nil {
		return
	}
	before := len(m.room.TeacherParticipants) + len(m.room.StudentParticipants)
	next := client.ApplyLeft(m.room, p.Participant)
	after := len(next.TeacherParticipants) + len(next.StudentParticipants)
	m.room = next
	if after < before {
		m.log.Append(fmt.Sprintf("%s left the classroom", p.Participant.Name))
	}
}

// HandleActiveSessions replaces the discovery list wholesale and clears the
// loading flag. A nil server payload becomes an empty list.
func (m *Machine) HandleActiveSessions(list []client.SessionSummary) {
	if m.inClassroom {
		return
	}
	if list == nil {
		list = []client.SessionSummary{}
	}
	m.sessions = list
	m.loading = false
	m.phase = PhaseBrowsing
	m.log.Append(fmt.Sprintf("Found %d active sessions", len(list)))
}

// HandleServerError records a server-rejected operation. No phase change;
// the state stays at the last known good value.
func (m *Machine) HandleServerError(msg string) {
	m.errMsg = msg
	m.loading = false
	m.log.Append("Error: " + msg)
}

// --- User commands ---

// BeginBrowsing marks a discovery request in flight.
func (m *Machine) BeginBrowsing(refresh bool) {
	if m.phase == PhaseUnjoined {
		m.phase = PhaseBrowsing
	}
	m.loading = true
	if refresh {
		m.log.Append("Refreshing active sessions...")
	} else {
		m.log.Append("Fetching active sessions...")
	}
}

// EndBrowsing returns from the discovery list to the join form.
func (m *Machine) EndBrowsing() {
	if m.phase != PhaseBrowsing {
		return
	}
	m.phase = PhaseUnjoined
	m.sessions = nil
	m.loading = false
	m.errMsg = ""
}

// Note appends a user-action notice to the activity log.
func (m *Machine) Note(text string) {
	m.log.Append(text)
}

// SetError records a locally rejected command, replacing any prior error.
func (m *Machine) SetError(msg string) {
	m.errMsg = msg
}

// ClearError empties the current-error slot.
func (m *Machine) ClearError() {
	m.errMsg = ""
}

// resetToUnjoined clears everything server-confirmed and rotates the reset
// token so any outstanding settle timer dies.
func (m *Machine) resetToUnjoined() {
	m.phase = PhaseUnjoined
	m.room = nil
	m.session = nil
	m.inClassroom = false
	m.classActive = false
	m.identity = nil
	m.sessions = nil
	m.loading = false
	m.resetToken = uuid.New()
}
