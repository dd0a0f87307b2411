package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Quit      key.Binding
	Help      key.Binding
	Escape    key.Binding
	NextField key.Binding
	PrevField key.Binding
	SwitchTab key.Binding
	Submit    key.Binding
	Sessions  key.Binding
	Reconnect key.Binding

	// Letter keys, active only on screens without focused text inputs.
	Up         key.Binding
	Down       key.Binding
	Refresh    key.Binding
	StartClass key.Binding
	EndClass   key.Binding
	Leave      key.Binding
	LogUp      key.Binding
	LogDown    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / close"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		SwitchTab: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "join/create tab"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "active sessions"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "connect"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		StartClass: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start class"),
		),
		EndClass: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "end class"),
		),
		Leave: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "leave"),
		),
		LogUp: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "log up"),
		),
		LogDown: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "log down"),
		),
	}
}
