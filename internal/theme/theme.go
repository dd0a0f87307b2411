// Package theme provides the Lip Gloss color palette and reusable styles
// for the classroom TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Role colors.
var (
	ColorTeacher = lipgloss.Color("#3b82f6")
	ColorStudent = lipgloss.Color("#22c55e")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// Connection colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorConnecting   = lipgloss.Color("#d97706")
	ColorDisconnected = lipgloss.Color("#dc2626")
)

// Class state colors.
var (
	ColorActive   = lipgloss.Color("#16a34a")
	ColorInactive = lipgloss.Color("#4b5563")
	ColorEnding   = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#2563eb")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// RoleColor returns the color for a participant role name.
func RoleColor(role string) lipgloss.Color {
	switch role {
	case "Teacher":
		return ColorTeacher
	case "Student":
		return ColorStudent
	default:
		return ColorDefault
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorDimmed)
)
