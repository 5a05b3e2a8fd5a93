// Package theme provides the Lip Gloss palette and shared styles for the
// gobox TUI. It is a leaf package with no internal imports to avoid import
// cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Connection colors.
var (
	ColorConnecting   = lipgloss.Color("#eab308")
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorDisconnected = lipgloss.Color("#f59e0b")
	ColorReconnecting = lipgloss.Color("#06b6d4")
	ColorError        = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorAccent  = lipgloss.Color("#38bdf8")
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#0b1120")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// StatusColor returns the color for a connection status name.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "connecting":
		return ColorConnecting
	case "connected":
		return ColorConnected
	case "disconnected":
		return ColorDisconnected
	case "reconnecting":
		return ColorReconnecting
	case "error":
		return ColorError
	default:
		return ColorDefault
	}
}

// StatusGlyph returns the glyph shown next to a connection status name.
func StatusGlyph(status string) string {
	switch status {
	case "connected":
		return "●"
	case "disconnected":
		return "○"
	case "error":
		return "✖"
	default:
		return "◌"
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

	StyleBrand = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)
)
