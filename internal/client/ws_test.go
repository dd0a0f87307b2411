package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func envelope(t *testing.T, event EventName, data string) Envelope {
	t.Helper()
	return Envelope{Event: event, Data: json.RawMessage(data)}
}

func TestDispatchTypedMessages(t *testing.T) {
	cases := []struct {
		name  string
		env   Envelope
		check func(t *testing.T, msg interface{})
	}{
		{
			"join-success",
			envelope(t, EvJoinSuccess, `{"classroom":{"_id":"r1","name":"Algebra"},"message":"joined"}`),
			func(t *testing.T, msg interface{}) {
				m, ok := msg.(JoinSuccessMsg)
				if !ok {
					t.Fatalf("type %T", msg)
				}
				if m.Payload.Classroom.ID != "r1" || m.Payload.Message != "joined" {
					t.Fatalf("payload = %+v", m.Payload)
				}
			},
		},
		{
			"set-user",
			envelope(t, EvSetUser, `{"_id":"u1","name":"Ada","email":"ada@school.test","role":"Teacher"}`),
			func(t *testing.T, msg interface{}) {
				m, ok := msg.(SetUserMsg)
				if !ok {
					t.Fatalf("type %T", msg)
				}
				if m.Payload.ID != "u1" || m.Payload.Role != RoleTeacher {
					t.Fatalf("payload = %+v", m.Payload)
				}
			},
		},
		{
			"class-session-ended",
			envelope(t, EvClassSessionEnded, `{"message":"Class ended","endedBy":"Ada"}`),
			func(t *testing.T, msg interface{}) {
				m, ok := msg.(SessionEndedMsg)
				if !ok {
					t.Fatalf("type %T", msg)
				}
				if m.Payload.EndedBy != "Ada" {
					t.Fatalf("payload = %+v", m.Payload)
				}
			},
		},
		{
			"user-joined",
			envelope(t, EvUserJoined, `{"participant":{"name":"Bob","email":"bob@school.test","role":"Student"}}`),
			func(t *testing.T, msg interface{}) {
				m, ok := msg.(UserJoinedMsg)
				if !ok {
					t.Fatalf("type %T", msg)
				}
				if m.Payload.Participant.Email != "bob@school.test" {
					t.Fatalf("payload = %+v", m.Payload)
				}
			},
		},
		{
			"active-sessions-list",
			envelope(t, EvActiveSessionsList, `[{"_id":"s1","classRoomId":{"_id":"r1","name":"Algebra"}}]`),
			func(t *testing.T, msg interface{}) {
				m, ok := msg.(ActiveSessionsMsg)
				if !ok {
					t.Fatalf("type %T", msg)
				}
				if len(m.Payload) != 1 || m.Payload[0].DisplayName() != "Algebra" {
					t.Fatalf("payload = %+v", m.Payload)
				}
			},
		},
		{
			"error",
			envelope(t, EvError, `{"message":"room not found"}`),
			func(t *testing.T, msg interface{}) {
				m, ok := msg.(ServerErrorMsg)
				if !ok {
					t.Fatalf("type %T", msg)
				}
				if m.Payload.Message != "room not found" {
					t.Fatalf("payload = %+v", m.Payload)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := dispatch(tc.env)
			if msg == nil {
				t.Fatal("dispatch returned nil")
			}
			tc.check(t, msg)
		})
	}
}

func TestDispatchUnknownEventIsNil(t *testing.T) {
	if msg := dispatch(envelope(t, "no-such-event", `{}`)); msg != nil {
		t.Fatalf("unknown event dispatched: %#v", msg)
	}
}

func TestDispatchMalformedDataIsNil(t *testing.T) {
	if msg := dispatch(envelope(t, EvJoinSuccess, `"not an object"`)); msg != nil {
		t.Fatalf("malformed data dispatched: %#v", msg)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := Envelope{Event: EvStartClass}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var back Envelope
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Event != EvStartClass || len(back.Data) != 0 {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestSetURLRefusedWhileConnected(t *testing.T) {
	c := NewSocketClient("ws://a/ws", DefaultReconnectPolicy())
	if err := c.SetURL("ws://b/ws"); err != nil {
		t.Fatalf("SetURL while disconnected: %v", err)
	}
	if c.URL() != "ws://b/ws" {
		t.Fatalf("url = %q", c.URL())
	}
}

func wsTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListenSupersedesPendingDial(t *testing.T) {
	srv := wsTestServer(t)
	c := NewSocketClient(wsURL(srv), ReconnectPolicy{
		MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond,
	})
	defer c.Close()
	ctx := context.Background()

	// Arming a second Listen while the first has not run yet must cancel
	// the first: only one connection, and one read loop, may go live.
	first := c.Listen(ctx, false)
	second := c.Listen(ctx, true)

	if msg := first(); msg != nil {
		t.Fatalf("superseded dial produced %#v", msg)
	}
	raw := second()
	msg, ok := raw.(SocketConnectedMsg)
	if !ok {
		t.Fatalf("current dial produced %#v", raw)
	}
	if !msg.Reconnected {
		t.Fatal("current dial lost its reconnecting flag")
	}
	if !c.Connected() {
		t.Fatal("client not connected after the surviving dial")
	}
}

func TestCloseCancelsPendingDial(t *testing.T) {
	srv := wsTestServer(t)
	c := NewSocketClient(wsURL(srv), ReconnectPolicy{
		MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond,
	})

	pending := c.Listen(context.Background(), false)
	c.Close()
	if msg := pending(); msg != nil {
		t.Fatalf("dial survived Close: %#v", msg)
	}
	if c.Connected() {
		t.Fatal("closed client reports connected")
	}
}

func TestDefaultReconnectPolicy(t *testing.T) {
	p := DefaultReconnectPolicy()
	if p.MaxAttempts != 10 || p.BaseDelay != time.Second || p.MaxDelay != 30*time.Second {
		t.Fatalf("policy = %+v", p)
	}
}
