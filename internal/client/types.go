// Package client provides the WebSocket and HTTP clients for the classroom
// server. Types mirror the server wire protocol without importing server
// packages.
package client

import (
	"encoding/json"
	"time"
)

// EventName identifies a named event on the socket, in either direction.
type EventName string

// Outbound events (client → server).
const (
	EvGetUser               EventName = "get-user"
	EvGetActiveSessions     EventName = "get-active-sessions"
	EvGetActiveSessionsRoom EventName = "get-active-sessions-room"
	EvJoinSession           EventName = "join-session"
	EvStartClassRoom        EventName = "start-class-room"
	EvStartClass            EventName = "start-class"
	EvEndClass              EventName = "end-class"
	EvLeaveClassroom        EventName = "leave-classroom"
)

// Inbound events (server → client).
const (
	EvJoinSuccess         EventName = "join-success"
	EvSetUser             EventName = "set-user"
	EvClassroomUpdated    EventName = "classroom-updated"
	EvClassSessionUpdated EventName = "class-session-updated"
	EvClassSessionStarted EventName = "class-session-started"
	EvClassSessionEnded   EventName = "class-session-ended"
	EvLeaveSuccess        EventName = "leave-success"
	EvUserJoined          EventName = "user-joined"
	EvUserLeft            EventName = "user-left"
	EvActiveSessionsList  EventName = "active-sessions-list"
	EvError               EventName = "error"
)

// Envelope frames every socket message in both directions.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Role distinguishes teachers from students.
type Role string

const (
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// Participant is one classroom member, identified by a server-assigned id.
// Email is the stable roster key; ids may differ across rejoins.
type Participant struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Classroom is the server's room snapshot. The participant slices are the
// roster partitions; startedAt/endedAt describe the room's current session.
type Classroom struct {
	ID                  string        `json:"_id"`
	Name                string        `json:"name"`
	TeacherParticipants []Participant `json:"teacherParticipant"`
	StudentParticipants []Participant `json:"studentParticipant"`
	StartedAt           *time.Time    `json:"startedAt,omitempty"`
	EndedAt             *time.Time    `json:"endedAt,omitempty"`
}

// HasActiveSession reports whether the room carries an unterminated session.
func (c *Classroom) HasActiveSession() bool {
	return c.StartedAt != nil && c.EndedAt == nil
}

// Clone returns a deep copy, duplicating pointer and slice fields so the
// copy can be mutated independently of the original.
func (c *Classroom) Clone() *Classroom {
	cp := *c
	if c.StartedAt != nil {
		t := *c.StartedAt
		cp.StartedAt = &t
	}
	if c.EndedAt != nil {
		t := *c.EndedAt
		cp.EndedAt = &t
	}
	cp.TeacherParticipants = append([]Participant(nil), c.TeacherParticipants...)
	cp.StudentParticipants = append([]Participant(nil), c.StudentParticipants...)
	return &cp
}

// ClassSession is one bounded teaching interval within a classroom.
type ClassSession struct {
	ClassRoomID string     `json:"classRoomId"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// Active reports whether the session has started and not yet ended.
func (s *ClassSession) Active() bool {
	return s.StartedAt != nil && s.EndedAt == nil
}

// SessionRoomRef is the classroom reference embedded in a discovery row.
type SessionRoomRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// SessionSummary is one row of the active-session discovery list.
// Produced by the server, never mutated locally.
type SessionSummary struct {
	ID        string          `json:"_id"`
	RoomID    string          `json:"roomId,omitempty"`
	ClassRoom *SessionRoomRef `json:"classRoomId,omitempty"`
	StartedAt *time.Time      `json:"startedAt,omitempty"`
}

// DisplayName returns the best label for a discovery row.
func (s SessionSummary) DisplayName() string {
	if s.ClassRoom != nil && s.ClassRoom.Name != "" {
		return s.ClassRoom.Name
	}
	if s.RoomID != "" {
		return "Session " + s.RoomID
	}
	return s.ID
}

// --- Inbound payloads ---

// JoinSuccessPayload carries the joined classroom and a server message.
type JoinSuccessPayload struct {
	Classroom Classroom `json:"classroom"`
	Message   string    `json:"message"`
}

// SessionStartedPayload announces a class start.
type SessionStartedPayload struct {
	Message   string `json:"message"`
	StartedBy string `json:"startedBy"`
}

// SessionEndedPayload announces a class end.
type SessionEndedPayload struct {
	Message string `json:"message"`
	EndedBy string `json:"endedBy"`
}

// LeavePayload confirms this client left the classroom.
type LeavePayload struct {
	Message string `json:"message"`
}

// RosterDeltaPayload carries one user-joined / user-left participant.
type RosterDeltaPayload struct {
	Participant Participant `json:"participant"`
}

// ErrorPayload is the server's error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Outbound payloads ---

// ParticipantPayload wraps a participant for get-user.
type ParticipantPayload struct {
	Participant Participant `json:"participant"`
}

// JoinRoomPayload is the start-class-room body.
type JoinRoomPayload struct {
	RoomID      string      `json:"roomId"`
	Participant Participant `json:"participant"`
}

// JoinSessionPayload is the join-session body.
type JoinSessionPayload struct {
	SessionID   string      `json:"sessionId"`
	Participant Participant `json:"participant"`
}

// RoomIDPayload is the get-active-sessions-room body.
type RoomIDPayload struct {
	RoomID string `json:"roomId"`
}
