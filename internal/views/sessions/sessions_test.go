package sessions

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/virtual-classroom/tui/internal/client"
)

func sampleList() []client.SessionSummary {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []client.SessionSummary{
		{ID: "s1", ClassRoom: &client.SessionRoomRef{ID: "r1", Name: "Algebra"}, StartedAt: &started},
		{ID: "s2", RoomID: "r2"},
	}
}

func TestSelectionWrapsAndClamps(t *testing.T) {
	m := New()
	m.MoveDown(2)
	if m.Selected != 1 {
		t.Fatalf("selected = %d", m.Selected)
	}
	m.MoveDown(2)
	if m.Selected != 0 {
		t.Fatalf("selection should wrap, got %d", m.Selected)
	}
	m.MoveUp(2)
	if m.Selected != 1 {
		t.Fatalf("selection should wrap backwards, got %d", m.Selected)
	}

	m.Clamp(1)
	if m.Selected != 0 {
		t.Fatalf("Clamp after shrink = %d", m.Selected)
	}

	// Empty list: movement is inert.
	m.MoveDown(0)
	m.MoveUp(0)
	if m.Selected != 0 {
		t.Fatalf("movement on empty list = %d", m.Selected)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 24, "short"},
		{"abcdefghij", 8, "abcde..."},
		{"héllo wörld with ümläuts", 10, "héllo w..."},
		{"数学のクラスへようこそ", 8, "数学のクラ..."},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tc.in, tc.n)
		}
	}
}

func TestViewStates(t *testing.T) {
	m := New()
	m.Width = 80

	out := m.View(nil, true)
	if !strings.Contains(out, "Loading sessions") {
		t.Error("loading body missing")
	}

	out = m.View(nil, false)
	if !strings.Contains(out, "No active sessions found") {
		t.Error("empty body missing")
	}

	out = m.View(sampleList(), false)
	if !strings.Contains(out, "Algebra") || !strings.Contains(out, "room r1") {
		t.Error("named session row missing")
	}
	if !strings.Contains(out, "Session r2") {
		t.Error("fallback display name missing")
	}
	if !strings.Contains(out, "> ") {
		t.Error("selection marker missing")
	}
}
