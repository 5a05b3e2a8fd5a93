// Package help renders the key binding reference shown over the terminal.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/faiyaz032/gobox/internal/theme"
)

const intro = `# GoBox

Every key not listed below is sent to your box as typed.
Output from the box is drawn in the terminal area below the status bar.
`

// Markdown builds the help document for bindings.
func Markdown(bindings []key.Binding) string {
	var sb strings.Builder
	sb.WriteString(intro)
	sb.WriteString("\n| key | action |\n|---|---|\n")
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	return sb.String()
}

// Render renders the help document for bindings wrapped to width.
func Render(bindings []key.Binding, width int) (string, error) {
	const gutter = 2
	wrap := width - gutter
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return "", fmt.Errorf("help renderer: %w", err)
	}
	out, err := r.Render(Markdown(bindings))
	if err != nil {
		return "", fmt.Errorf("render help: %w", err)
	}
	return out, nil
}

// View renders the help panel, falling back to the plain document when the
// markdown renderer fails.
func View(bindings []key.Binding, width int) string {
	innerW := width - 4
	if innerW < 24 {
		innerW = 24
	}
	body, err := Render(bindings, innerW)
	if err != nil {
		body = Markdown(bindings)
	}
	footer := theme.StyleDimmed.Render("esc:close")
	return lipgloss.NewStyle().
		Width(innerW).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorAccent).
		Render(lipgloss.JoinVertical(lipgloss.Left, strings.TrimRight(body, "\n"), footer))
}
