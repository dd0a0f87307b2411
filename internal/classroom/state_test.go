package classroom

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/virtual-classroom/tui/internal/client"
)

func testDelays() SettleDelays {
	return SettleDelays{EndedNotice: time.Millisecond, Redirect: time.Millisecond}
}

func joinedMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine(testDelays())
	m.HandleConnected(1, false)
	m.HandleJoinSuccess(client.JoinSuccessPayload{
		Classroom: client.Classroom{
			ID:   "r1",
			Name: "Algebra",
			TeacherParticipants: []client.Participant{
				{ID: "t1", Name: "Ada", Email: "ada@school.test", Role: client.RoleTeacher},
			},
		},
		Message: "Ada joined the classroom",
	})
	return m
}

func settleToken(m *Machine) uuid.UUID {
	return m.resetToken
}

func lastLog(t *testing.T, m *Machine) string {
	t.Helper()
	st := m.State()
	if len(st.Log) == 0 {
		t.Fatal("log is empty")
	}
	return st.Log[len(st.Log)-1].Text
}

func TestJoinSuccessSelectsPhaseFromSession(t *testing.T) {
	started := time.Now()
	cases := []struct {
		name      string
		startedAt *time.Time
		endedAt   *time.Time
		want      Phase
	}{
		{"no session", nil, nil, PhaseJoinedInactive},
		{"active session", &started, nil, PhaseJoinedActive},
		{"ended session", &started, &started, PhaseJoinedInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine(testDelays())
			m.HandleJoinSuccess(client.JoinSuccessPayload{
				Classroom: client.Classroom{ID: "r1", StartedAt: tc.startedAt, EndedAt: tc.endedAt},
				Message:   "joined",
			})
			st := m.State()
			if st.Phase != tc.want {
				t.Fatalf("phase = %v, want %v", st.Phase, tc.want)
			}
			if !st.InClassroom {
				t.Fatal("InClassroom should be set after join-success")
			}
			if st.ErrMsg != "" {
				t.Fatal("join-success should clear the error slot")
			}
		})
	}
}

func TestJoinSuccessLogsServerMessage(t *testing.T) {
	m := joinedMachine(t)
	if got := lastLog(t, m); got != "Ada joined the classroom" {
		t.Fatalf("last log = %q", got)
	}
}

func TestDisconnectPreservesMembership(t *testing.T) {
	m := joinedMachine(t)
	m.BeginBrowsing(false) // loading flag set while joined is unusual but must still clear
	m.HandleDisconnected("read tcp: connection reset")

	st := m.State()
	if st.Conn != Disconnected {
		t.Fatalf("conn = %v, want Disconnected", st.Conn)
	}
	if !st.InClassroom || st.Classroom == nil {
		t.Fatal("disconnect must not clear classroom membership")
	}
	if st.LoadingSessions {
		t.Fatal("disconnect must clear the loading flag")
	}
}

func TestReconnectFailedIsDistinctStatus(t *testing.T) {
	m := NewMachine(testDelays())
	m.HandleConnectFailed("dial tcp: refused", 10)
	if m.State().Conn != Disconnected {
		t.Fatalf("first-connect failure should land in Disconnected, got %v", m.State().Conn)
	}

	m.HandleConnected(1, false)
	m.HandleDisconnected("")
	m.HandleReconnectFailed("dial tcp: refused", 10)
	if m.State().Conn != ReconnectFailed {
		t.Fatalf("reconnect failure should land in ReconnectFailed, got %v", m.State().Conn)
	}
}

func TestSessionStartedFlipsToActive(t *testing.T) {
	m := joinedMachine(t)
	m.HandleSessionStarted(client.SessionStartedPayload{Message: "Class started", StartedBy: "Ada"})

	st := m.State()
	if st.Phase != PhaseJoinedActive || !st.ClassActive {
		t.Fatalf("phase = %v, active = %v", st.Phase, st.ClassActive)
	}
	if got := lastLog(t, m); got != "Class started by Ada" {
		t.Fatalf("last log = %q", got)
	}
}

func TestSessionUpdatedRecomputesActive(t *testing.T) {
	m := joinedMachine(t)
	started := time.Now()

	m.HandleSessionUpdated(client.ClassSession{ClassRoomID: "r1", StartedAt: &started})
	if st := m.State(); st.Phase != PhaseJoinedActive || !st.ClassActive {
		t.Fatalf("after start: phase = %v, active = %v", st.Phase, st.ClassActive)
	}

	ended := started.Add(time.Minute)
	m.HandleSessionUpdated(client.ClassSession{ClassRoomID: "r1", StartedAt: &started, EndedAt: &ended})
	if st := m.State(); st.Phase != PhaseJoinedInactive || st.ClassActive {
		t.Fatalf("after end: phase = %v, active = %v", st.Phase, st.ClassActive)
	}
}

func TestEndedSettleWindowRunsBothStages(t *testing.T) {
	m := joinedMachine(t)
	effects := m.HandleSessionEnded(client.SessionEndedPayload{Message: "Class ended", EndedBy: "Ada"})
	if len(effects) != 1 {
		t.Fatalf("expected one settle effect, got %d", len(effects))
	}
	first, ok := effects[0].(ScheduleSettle)
	if !ok || first.Stage != SettleNotice {
		t.Fatalf("first effect = %#v", effects[0])
	}
	if got := lastLog(t, m); got != "Class ended by Ada" {
		t.Fatalf("ended log = %q", got)
	}
	if m.State().Phase != PhaseEnding {
		t.Fatalf("phase = %v, want PhaseEnding", m.State().Phase)
	}

	effects = m.HandleSettleElapsed(first.Token, first.Stage)
	if len(effects) != 1 {
		t.Fatalf("notice stage should arm the reset, got %d effects", len(effects))
	}
	second := effects[0].(ScheduleSettle)
	if second.Stage != SettleReset {
		t.Fatalf("second stage = %v", second.Stage)
	}
	if got := lastLog(t, m); !strings.Contains(got, "Redirecting to join page") {
		t.Fatalf("redirect log = %q", got)
	}

	m.HandleSettleElapsed(second.Token, second.Stage)
	st := m.State()
	if st.Phase != PhaseUnjoined || st.InClassroom || st.Classroom != nil || st.Identity != nil {
		t.Fatalf("reset incomplete: %+v", st)
	}
}

func TestLeaveDuringEndingCancelsSettle(t *testing.T) {
	m := joinedMachine(t)
	effects := m.HandleSessionEnded(client.SessionEndedPayload{Message: "Class ended", EndedBy: "Ada"})
	pending := effects[0].(ScheduleSettle)

	m.HandleLeaveSuccess(client.LeavePayload{Message: "You left the classroom"})
	if m.State().Phase != PhaseUnjoined {
		t.Fatal("leave-success should reset immediately")
	}
	logLen := len(m.State().Log)

	// The stale tick fires after the leave already reset; it must be inert.
	if got := m.HandleSettleElapsed(pending.Token, pending.Stage); got != nil {
		t.Fatalf("stale settle tick produced effects: %#v", got)
	}
	if len(m.State().Log) != logLen {
		t.Fatal("stale settle tick appended to the log")
	}
}

func TestRejoinDuringEndingCancelsSettle(t *testing.T) {
	m := joinedMachine(t)
	effects := m.HandleSessionEnded(client.SessionEndedPayload{Message: "Class ended", EndedBy: "Ada"})
	pending := effects[0].(ScheduleSettle)

	m.HandleJoinSuccess(client.JoinSuccessPayload{
		Classroom: client.Classroom{ID: "r2", Name: "Geometry"},
		Message:   "joined",
	})
	if got := m.HandleSettleElapsed(pending.Token, pending.Stage); got != nil {
		t.Fatalf("stale settle tick produced effects after rejoin: %#v", got)
	}
	st := m.State()
	if !st.InClassroom || st.Classroom.ID != "r2" {
		t.Fatal("stale settle tick disturbed the new membership")
	}
}

func TestSettleTickWithRotatedTokenIsInert(t *testing.T) {
	m := joinedMachine(t)
	m.HandleSessionEnded(client.SessionEndedPayload{Message: "Class ended", EndedBy: "Ada"})

	stale := uuid.New()
	if stale == settleToken(m) {
		t.Skip("uuid collision")
	}
	if got := m.HandleSettleElapsed(stale, SettleNotice); got != nil {
		t.Fatalf("tick with foreign token produced effects: %#v", got)
	}
	if m.State().Phase != PhaseEnding {
		t.Fatal("foreign token changed the phase")
	}
}

func TestSetUserIsIdempotentPerID(t *testing.T) {
	m := NewMachine(testDelays())
	p := client.Participant{ID: "u1", Name: "Ada", Email: "ada@school.test", Role: client.RoleTeacher}

	m.HandleSetUser(p)
	n := len(m.State().Log)
	m.HandleSetUser(p)
	if len(m.State().Log) != n {
		t.Fatal("duplicate set-user logged twice")
	}

	p2 := p
	p2.ID = "u2"
	m.HandleSetUser(p2)
	if m.State().Identity.ID != "u2" {
		t.Fatal("new id should replace the identity")
	}
}

func TestRosterDeltasIgnoredWithoutClassroom(t *testing.T) {
	m := NewMachine(testDelays())
	delta := client.RosterDeltaPayload{
		Participant: client.Participant{Name: "Bob", Email: "bob@school.test", Role: client.RoleStudent},
	}
	m.HandleUserJoined(delta)
	m.HandleUserLeft(delta)
	st := m.State()
	if st.Classroom != nil || len(st.Log) != 0 {
		t.Fatalf("delta without classroom changed state: %+v", st)
	}
}

func TestUserJoinedLogsOnlyOnChange(t *testing.T) {
	m := joinedMachine(t)
	delta := client.RosterDeltaPayload{
		Participant: client.Participant{Name: "Bob", Email: "bob@school.test", Role: client.RoleStudent},
	}

	m.HandleUserJoined(delta)
	if got := lastLog(t, m); got != "Bob joined as Student" {
		t.Fatalf("join log = %q", got)
	}
	n := len(m.State().Log)

	m.HandleUserJoined(delta)
	if len(m.State().Log) != n {
		t.Fatal("duplicate user-joined logged twice")
	}

	m.HandleUserLeft(delta)
	if got := lastLog(t, m); got != "Bob left the classroom" {
		t.Fatalf("left log = %q", got)
	}
	n = len(m.State().Log)

	m.HandleUserLeft(delta)
	if len(m.State().Log) != n {
		t.Fatal("absent user-left logged")
	}
}

func TestClassroomUpdatedIgnoredAfterLeave(t *testing.T) {
	m := joinedMachine(t)
	m.HandleLeaveSuccess(client.LeavePayload{})

	m.HandleClassroomUpdated(client.Classroom{ID: "r1", Name: "Algebra"})
	if m.State().Classroom != nil {
		t.Fatal("classroom-updated after leave re-entered the room")
	}
}

func TestSessionStartedIgnoredAfterLeave(t *testing.T) {
	m := joinedMachine(t)
	m.HandleLeaveSuccess(client.LeavePayload{})
	logLen := len(m.State().Log)

	m.HandleSessionStarted(client.SessionStartedPayload{Message: "Class started", StartedBy: "Ada"})
	st := m.State()
	if st.ClassActive {
		t.Fatal("session-started after leave set the active flag")
	}
	if st.Phase != PhaseUnjoined {
		t.Fatalf("phase = %v, want PhaseUnjoined", st.Phase)
	}
	if len(st.Log) != logLen {
		t.Fatal("session-started after leave appended to the log")
	}
}

func TestStateSnapshotIsIsolated(t *testing.T) {
	m := joinedMachine(t)
	m.HandleSetUser(client.Participant{ID: "u1", Name: "Ada", Email: "ada@school.test", Role: client.RoleTeacher})
	started := time.Now()
	m.HandleSessionUpdated(client.ClassSession{ClassRoomID: "r1", StartedAt: &started})

	st := m.State()
	st.Identity.Name = "mutated"
	st.Classroom.Name = "mutated"
	st.Classroom.TeacherParticipants[0].Name = "mutated"
	st.Session.ClassRoomID = "mutated"

	fresh := m.State()
	if fresh.Identity.Name != "Ada" {
		t.Fatal("snapshot shares the identity with the machine")
	}
	if fresh.Classroom.Name != "Algebra" || fresh.Classroom.TeacherParticipants[0].Name != "Ada" {
		t.Fatal("snapshot shares the classroom with the machine")
	}
	if fresh.Session.ClassRoomID != "r1" {
		t.Fatal("snapshot shares the session with the machine")
	}

	m2 := NewMachine(testDelays())
	m2.HandleActiveSessions([]client.SessionSummary{{ID: "s1"}})
	list := m2.State()
	list.ActiveSessions[0].ID = "mutated"
	if m2.State().ActiveSessions[0].ID != "s1" {
		t.Fatal("snapshot shares the discovery list with the machine")
	}
}

func TestSessionEndedIgnoredAfterLeave(t *testing.T) {
	m := joinedMachine(t)
	m.HandleLeaveSuccess(client.LeavePayload{})

	if got := m.HandleSessionEnded(client.SessionEndedPayload{Message: "Class ended", EndedBy: "Ada"}); got != nil {
		t.Fatalf("session-ended after leave produced effects: %#v", got)
	}
	if m.State().Phase != PhaseUnjoined {
		t.Fatal("session-ended after leave changed the phase")
	}
}

func TestActiveSessionsReplacesListAndClearsLoading(t *testing.T) {
	m := NewMachine(testDelays())
	m.BeginBrowsing(false)
	if st := m.State(); !st.LoadingSessions || st.Phase != PhaseBrowsing {
		t.Fatalf("browsing not started: %+v", st)
	}

	m.HandleActiveSessions([]client.SessionSummary{{ID: "s1"}, {ID: "s2"}})
	st := m.State()
	if st.LoadingSessions {
		t.Fatal("loading flag not cleared")
	}
	if len(st.ActiveSessions) != 2 {
		t.Fatalf("list length = %d", len(st.ActiveSessions))
	}
	if got := lastLog(t, m); got != "Found 2 active sessions" {
		t.Fatalf("log = %q", got)
	}
}

func TestActiveSessionsNilBecomesEmpty(t *testing.T) {
	m := NewMachine(testDelays())
	m.BeginBrowsing(false)
	m.HandleActiveSessions(nil)
	if m.State().ActiveSessions == nil {
		t.Fatal("nil payload should surface as an empty list")
	}
}

func TestActiveSessionsIgnoredWhileJoined(t *testing.T) {
	m := joinedMachine(t)
	m.HandleActiveSessions([]client.SessionSummary{{ID: "s1"}})
	st := m.State()
	if st.Phase == PhaseBrowsing || len(st.ActiveSessions) != 0 {
		t.Fatal("discovery list applied while in a classroom")
	}
}

func TestServerErrorKeepsPhase(t *testing.T) {
	m := joinedMachine(t)
	m.HandleServerError("Only teachers can start a class")
	st := m.State()
	if st.ErrMsg != "Only teachers can start a class" {
		t.Fatalf("errMsg = %q", st.ErrMsg)
	}
	if st.Phase != PhaseJoinedInactive || !st.InClassroom {
		t.Fatal("server error changed the phase")
	}
	if got := lastLog(t, m); !strings.Contains(got, "Only teachers can start a class") {
		t.Fatalf("log = %q", got)
	}
}

func TestEndBrowsingReturnsToUnjoined(t *testing.T) {
	m := NewMachine(testDelays())
	m.BeginBrowsing(false)
	m.HandleActiveSessions([]client.SessionSummary{{ID: "s1"}})

	m.EndBrowsing()
	st := m.State()
	if st.Phase != PhaseUnjoined || st.ActiveSessions != nil || st.LoadingSessions {
		t.Fatalf("EndBrowsing left residue: %+v", st)
	}

	// EndBrowsing outside browsing is a no-op.
	m2 := joinedMachine(t)
	m2.EndBrowsing()
	if m2.State().Phase != PhaseJoinedInactive {
		t.Fatal("EndBrowsing changed a joined phase")
	}
}
