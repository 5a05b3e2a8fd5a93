package status

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/faiyaz032/gobox/internal/theme"
	"github.com/faiyaz032/gobox/internal/transport"
)

// Model holds the status bar state.
type Model struct {
	Status   transport.Status
	Endpoint string
	Width    int

	spinner spinner.Model
}

// New creates a status bar for endpoint, starting in connecting.
func New(endpoint string) Model {
	return Model{
		Status:   transport.StatusConnecting,
		Endpoint: endpoint,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorConnecting)),
		),
	}
}

// Label is the text shown for s.
func Label(s transport.Status) string {
	switch s {
	case transport.StatusConnecting:
		return "connecting..."
	case transport.StatusConnected:
		return "connected"
	case transport.StatusDisconnected:
		return "disconnected"
	case transport.StatusReconnecting:
		return "reconnecting..."
	case transport.StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Tick starts the spinner.
func (m Model) Tick() tea.Msg {
	return m.spinner.Tick()
}

// Update advances the spinner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) busy() bool {
	return m.Status == transport.StatusConnecting || m.Status == transport.StatusReconnecting
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	name := m.Status.String()
	glyph := theme.StatusGlyph(name)
	if m.busy() {
		glyph = m.spinner.View()
	}
	connStr := lipgloss.NewStyle().Foreground(theme.StatusColor(name)).Render(glyph + " " + Label(m.Status))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := theme.StyleBrand.Render("GoBox") + sep + connStr
	if m.Endpoint != "" {
		content += sep + theme.StyleDimmed.Render(m.Endpoint)
	}

	// Width excludes the border.
	return lipgloss.NewStyle().
		Width(width - 2).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
