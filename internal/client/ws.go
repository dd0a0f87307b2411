package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// ReconnectPolicy bounds the automatic dial retries. Exhausting the budget
// surfaces a failure message instead of retrying silently forever.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy returns the stock retry budget.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: 10,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// SocketClient manages the single WebSocket connection to the classroom
// server. All writes are serialized; the read loop runs on a Bubble Tea
// command goroutine and surfaces inbound events as typed messages.
type SocketClient struct {
	policy ReconnectPolicy

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (ping, emit)
	url     string
	conn    *websocket.Conn
	pingCtx context.CancelFunc // cancels the active ping goroutine

	// dialGen identifies the current dial loop. Arming a new Listen bumps
	// the generation and cancels the pending loop, so two dials never both
	// install a connection.
	dialGen  uint64
	dialStop context.CancelFunc
}

// NewSocketClient creates a client that dials the given WebSocket URL.
func NewSocketClient(url string, policy ReconnectPolicy) *SocketClient {
	return &SocketClient{url: url, policy: policy}
}

// URL returns the currently configured endpoint.
func (c *SocketClient) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// SetURL changes the endpoint. Refused while a connection is live: the
// caller must Close first so two connections never coexist.
func (c *SocketClient) SetURL(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return fmt.Errorf("cannot change endpoint while connected")
	}
	c.url = url
	return nil
}

// Connected reports whether a connection is currently held.
func (c *SocketClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// --- Bubble Tea messages ---

// SocketConnectedMsg is sent when the socket (re)connects.
type SocketConnectedMsg struct {
	Attempt     int
	Reconnected bool
}

// SocketDisconnectedMsg is sent when the connection drops.
type SocketDisconnectedMsg struct{ Reason error }

// SocketConnectFailedMsg reports an exhausted first-connect budget.
type SocketConnectFailedMsg struct {
	Err      error
	Attempts int
}

// SocketReconnectFailedMsg reports an exhausted reconnect budget.
type SocketReconnectFailedMsg struct {
	Err      error
	Attempts int
}

// JoinSuccessMsg delivers a confirmed classroom join.
type JoinSuccessMsg struct{ Payload JoinSuccessPayload }

// SetUserMsg delivers the server-confirmed identity.
type SetUserMsg struct{ Payload Participant }

// ClassroomUpdatedMsg delivers a wholesale classroom snapshot.
type ClassroomUpdatedMsg struct{ Payload Classroom }

// SessionUpdatedMsg delivers the current class session.
type SessionUpdatedMsg struct{ Payload ClassSession }

// SessionStartedMsg announces a class start.
type SessionStartedMsg struct{ Payload SessionStartedPayload }

// SessionEndedMsg announces a class end.
type SessionEndedMsg struct{ Payload SessionEndedPayload }

// LeaveSuccessMsg confirms this client left the classroom.
type LeaveSuccessMsg struct{ Payload LeavePayload }

// UserJoinedMsg delivers a roster join delta.
type UserJoinedMsg struct{ Payload RosterDeltaPayload }

// UserLeftMsg delivers a roster leave delta.
type UserLeftMsg struct{ Payload RosterDeltaPayload }

// ActiveSessionsMsg delivers the discovery list.
type ActiveSessionsMsg struct{ Payload []SessionSummary }

// ServerErrorMsg wraps a server-side error event.
type ServerErrorMsg struct{ Payload ErrorPayload }

// Listen returns a command that dials the endpoint with bounded exponential
// backoff. reconnecting selects which failure message is reported when the
// attempt budget runs out. Arming a new Listen supersedes any pending one:
// the old loop is cancelled, and even a dial of it that is already past
// cancellation cannot install its connection.
func (c *SocketClient) Listen(ctx context.Context, reconnecting bool) tea.Cmd {
	c.mu.Lock()
	if c.dialStop != nil {
		c.dialStop()
	}
	dialCtx, cancel := context.WithCancel(ctx)
	c.dialStop = cancel
	c.dialGen++
	gen := c.dialGen
	c.mu.Unlock()

	return func() tea.Msg {
		delay := c.policy.BaseDelay
		if delay <= 0 {
			delay = time.Second
		}
		var lastErr error
		for attempt := 1; ; attempt++ {
			select {
			case <-dialCtx.Done():
				return nil
			default:
			}

			c.mu.Lock()
			url := c.url
			c.mu.Unlock()

			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				if !c.adopt(ctx, conn, gen) {
					conn.Close()
					return nil
				}
				return SocketConnectedMsg{Attempt: attempt, Reconnected: reconnecting}
			}
			lastErr = err
			log.Printf("ws dial error: %v (attempt %d/%d)", err, attempt, c.policy.MaxAttempts)

			if c.policy.MaxAttempts > 0 && attempt >= c.policy.MaxAttempts {
				if reconnecting {
					return SocketReconnectFailedMsg{Err: lastErr, Attempts: attempt}
				}
				return SocketConnectFailedMsg{Err: lastErr, Attempts: attempt}
			}

			select {
			case <-dialCtx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, c.policy.MaxDelay)
		}
	}
}

// adopt installs a freshly dialed connection, tearing down the previous
// ping goroutine so handlers from the old connection never fire again.
// It refuses connections from a superseded dial loop so only the newest
// loop's connection (and read loop) ever goes live.
func (c *SocketClient) adopt(ctx context.Context, conn *websocket.Conn, gen uint64) bool {
	c.mu.Lock()
	if gen != c.dialGen {
		c.mu.Unlock()
		return false
	}
	if c.pingCtx != nil {
		c.pingCtx()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	pingCtx, pingCancel := context.WithCancel(ctx)
	c.conn = conn
	c.pingCtx = pingCancel
	c.mu.Unlock()

	go c.pingLoop(pingCtx, conn)
	return true
}

// Close tears down the current connection, if any, and cancels a pending
// dial loop. Safe to call when already disconnected.
func (c *SocketClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	if c.dialStop != nil {
		c.dialStop()
		c.dialStop = nil
	}
	c.dialGen++
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// ReadLoop returns a command that reads envelopes from the connection in
// arrival order. It should be re-armed after every delivered message.
func (c *SocketClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return SocketDisconnectedMsg{Reason: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				stale := c.conn != conn
				if !stale {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				if stale {
					// A newer connection replaced this one; its read
					// loop owns disconnect reporting now.
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				return SocketDisconnectedMsg{Reason: err}
			}

			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}

			msg := dispatch(env)
			if msg != nil {
				return msg
			}
		}
	}
}

// Emit sends one named event with a JSON payload. payload may be nil for
// bare events such as start-class.
func (c *SocketClient) Emit(event EventName, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = data
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(env)
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (c *SocketClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func dispatch(env Envelope) tea.Msg {
	switch env.Event {
	case EvJoinSuccess:
		var p JoinSuccessPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return JoinSuccessMsg{Payload: p}
		}
	case EvSetUser:
		var p Participant
		if json.Unmarshal(env.Data, &p) == nil {
			return SetUserMsg{Payload: p}
		}
	case EvClassroomUpdated:
		var p Classroom
		if json.Unmarshal(env.Data, &p) == nil {
			return ClassroomUpdatedMsg{Payload: p}
		}
	case EvClassSessionUpdated:
		var p ClassSession
		if json.Unmarshal(env.Data, &p) == nil {
			return SessionUpdatedMsg{Payload: p}
		}
	case EvClassSessionStarted:
		var p SessionStartedPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return SessionStartedMsg{Payload: p}
		}
	case EvClassSessionEnded:
		var p SessionEndedPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return SessionEndedMsg{Payload: p}
		}
	case EvLeaveSuccess:
		var p LeavePayload
		if json.Unmarshal(env.Data, &p) == nil {
			return LeaveSuccessMsg{Payload: p}
		}
	case EvUserJoined:
		var p RosterDeltaPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return UserJoinedMsg{Payload: p}
		}
	case EvUserLeft:
		var p RosterDeltaPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return UserLeftMsg{Payload: p}
		}
	case EvActiveSessionsList:
		var p []SessionSummary
		if json.Unmarshal(env.Data, &p) == nil {
			return ActiveSessionsMsg{Payload: p}
		}
	case EvError:
		var p ErrorPayload
		if json.Unmarshal(env.Data, &p) == nil {
			return ServerErrorMsg{Payload: p}
		}
	}
	return nil
}
