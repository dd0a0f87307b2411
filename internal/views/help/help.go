// Package help renders the setup-instructions overlay shown while the
// client has no server connection.
package help

import (
	"github.com/charmbracelet/glamour"

	"github.com/virtual-classroom/tui/internal/theme"
)

const instructions = `# Virtual Classroom

A terminal client for a classroom server.

## Getting started

1. Make sure the classroom server is running on the configured URL.
2. Edit the **Server URL** field if needed (only while disconnected),
   then press ` + "`ctrl+r`" + ` to connect.
3. Join an existing room by ID, browse active sessions with
   ` + "`ctrl+l`" + `, or create a new classroom from the create tab.

## Keys

| Key | Action |
|-----|--------|
| tab / shift+tab | next / previous field |
| ctrl+t | switch join / create tab |
| enter | submit the active form |
| ctrl+l | view active sessions |
| ctrl+r | connect / reconnect |
| ctrl+g | toggle this help |
| ctrl+c | quit |

Connection drops are retried automatically with backoff; when the retry
budget runs out, press ` + "`ctrl+r`" + ` to try again.
`

// Model holds the pre-rendered help text.
type Model struct {
	rendered string
}

// New renders the instructions once. Rendering failures fall back to the
// raw markdown.
func New(width int) Model {
	if width < 40 {
		width = 40
	}
	out, err := glamour.Render(instructions, "dark")
	if err != nil {
		out = instructions
	}
	return Model{rendered: out}
}

// View returns the overlay body.
func (m Model) View() string {
	if m.rendered == "" {
		return theme.StyleDimmed.Render("help unavailable")
	}
	return m.rendered + theme.StyleDimmed.Render("  esc:close")
}
