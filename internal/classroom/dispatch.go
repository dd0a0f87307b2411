package classroom

import (
	"fmt"
	"strings"

	"github.com/virtual-classroom/tui/internal/client"
)

// Emitter is the outbound half of the transport the dispatcher writes to.
// *client.SocketClient satisfies it.
type Emitter interface {
	Connected() bool
	Emit(event client.EventName, payload any) error
}

// Creator performs the plain request/response classroom-create call.
// *client.HTTPClient satisfies it.
type Creator interface {
	CreateClassroom(name string) (*client.CreateClassroomResponse, error)
}

// Dispatcher translates user intent into outbound traffic. Every socket
// operation is gated on the connection; join and list operations also
// validate the participant fields. A failed gate sends nothing.
type Dispatcher struct {
	emitter Emitter
	creator Creator
}

// NewDispatcher wires a dispatcher to its transport.
func NewDispatcher(emitter Emitter, creator Creator) *Dispatcher {
	return &Dispatcher{emitter: emitter, creator: creator}
}

// CreateClassroom requests a new room over HTTP. It is not gated on the
// socket: creation uses the request/response channel.
func (d *Dispatcher) CreateClassroom(name string) (*client.CreateClassroomResponse, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("classroom name: %w", ErrInvalidInput)
	}
	return d.creator.CreateClassroom(strings.TrimSpace(name))
}

// Join requests membership in roomID. The participant triple is embedded in
// the join event itself so the server never acts on a stale identity;
// get-user is still sent first so the server can upsert the account.
func (d *Dispatcher) Join(name, email string, role client.Role, roomID string) error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	p, err := participant(name, email, role)
	if err != nil {
		return err
	}
	if strings.TrimSpace(roomID) == "" {
		return fmt.Errorf("room id: %w", ErrInvalidInput)
	}
	if err := d.emitter.Emit(client.EvGetUser, client.ParticipantPayload{Participant: p}); err != nil {
		return err
	}
	return d.emitter.Emit(client.EvStartClassRoom, client.JoinRoomPayload{
		RoomID:      strings.TrimSpace(roomID),
		Participant: p,
	})
}

// ListSessions requests the discovery list, scoped to roomID when given.
func (d *Dispatcher) ListSessions(name, email string, role client.Role, roomID string) error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	p, err := participant(name, email, role)
	if err != nil {
		return err
	}
	if err := d.emitter.Emit(client.EvGetUser, client.ParticipantPayload{Participant: p}); err != nil {
		return err
	}
	if roomID = strings.TrimSpace(roomID); roomID != "" {
		return d.emitter.Emit(client.EvGetActiveSessionsRoom, client.RoomIDPayload{RoomID: roomID})
	}
	return d.emitter.Emit(client.EvGetActiveSessions, nil)
}

// RefreshSessions re-requests the unscoped discovery list.
func (d *Dispatcher) RefreshSessions() error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	return d.emitter.Emit(client.EvGetActiveSessions, nil)
}

// JoinSession joins a specific discovered session. The participant passes
// the same validation as a direct join; a blank name or email sends nothing.
func (d *Dispatcher) JoinSession(sessionID string, p client.Participant) error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	if sessionID == "" {
		return fmt.Errorf("session id: %w", ErrInvalidInput)
	}
	vp, err := participant(p.Name, p.Email, p.Role)
	if err != nil {
		return err
	}
	vp.ID = p.ID
	return d.emitter.Emit(client.EvJoinSession, client.JoinSessionPayload{
		SessionID:   sessionID,
		Participant: vp,
	})
}

// StartClass asks the server to start the class. Authorization is enforced
// server-side and reflected back via events.
func (d *Dispatcher) StartClass() error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	return d.emitter.Emit(client.EvStartClass, nil)
}

// EndClass asks the server to end the class.
func (d *Dispatcher) EndClass() error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	return d.emitter.Emit(client.EvEndClass, nil)
}

// Leave asks the server to remove this client from the classroom.
func (d *Dispatcher) Leave() error {
	if !d.emitter.Connected() {
		return ErrNotConnected
	}
	return d.emitter.Emit(client.EvLeaveClassroom, nil)
}

func participant(name, email string, role client.Role) (client.Participant, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return client.Participant{}, fmt.Errorf("name: %w", ErrInvalidInput)
	}
	if email == "" {
		return client.Participant{}, fmt.Errorf("email: %w", ErrInvalidInput)
	}
	if role != client.RoleTeacher {
		role = client.RoleStudent
	}
	return client.Participant{Name: name, Email: email, Role: role}, nil
}
