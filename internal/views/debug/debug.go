// Package debug renders the connection log overlay: every status transition
// of the session, lifecycle notes and failures, newest at the bottom.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/faiyaz032/gobox/internal/theme"
	"github.com/faiyaz032/gobox/internal/transport"
)

const capacity = 200

// Kind classifies a log event.
type Kind int

const (
	KindStatus Kind = iota
	KindSession
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindSession:
		return "session"
	case KindError:
		return "error"
	default:
		return "?"
	}
}

// Event is one log line. Consecutive identical events share a line and
// bump Count.
type Event struct {
	At     time.Time
	Kind   Kind
	Status transport.Status
	Text   string
	Count  int
}

// Since is the time between the first and the latest occurrence.
func (e Event) Since(first time.Time) time.Duration {
	return e.At.Sub(first)
}

// Model is the connection log.
type Model struct {
	events []Event
	// back counts lines scrolled away from the newest event.
	back int
	now  func() time.Time
}

func New() Model {
	return Model{now: time.Now}
}

// Status records a transition.
func (m *Model) Status(s transport.Status) {
	m.record(Event{Kind: KindStatus, Status: s, Text: s.String()})
}

// Session records a lifecycle note.
func (m *Model) Session(text string) {
	m.record(Event{Kind: KindSession, Text: text})
}

// Error records a failure.
func (m *Model) Error(err error) {
	if err == nil {
		return
	}
	m.record(Event{Kind: KindError, Text: err.Error()})
}

func (m *Model) record(e Event) {
	e.At = m.clock()
	e.Count = 1
	m.back = 0

	if n := len(m.events); n > 0 {
		last := &m.events[n-1]
		if last.Kind == e.Kind && last.Text == e.Text {
			last.At = e.At
			last.Count++
			return
		}
	}
	m.events = append(m.events, e)
	if drop := len(m.events) - capacity; drop > 0 {
		m.events = append(m.events[:0], m.events[drop:]...)
	}
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Events returns the log, oldest first.
func (m Model) Events() []Event { return m.events }

// Scroll moves the view by delta lines; positive is older.
func (m *Model) Scroll(delta int) {
	m.back = max(0, min(m.back+delta, len(m.events)-1))
}

// Following reports whether the newest event is in view.
func (m Model) Following() bool { return m.back == 0 }

// View renders the log into a width x height panel.
func (m Model) View(width, height int) string {
	inner := max(width-6, 24)
	rows := max(height-6, 3)

	mode := theme.StyleDimmed.Render("following")
	if !m.Following() {
		mode = theme.StyleDimmed.Render(fmt.Sprintf("%d newer below", m.back))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.StyleHeader.Render("Connection log "),
		theme.StyleDimmed.Render(fmt.Sprintf("(%d) ", len(m.events))),
		mode,
	)
	footer := theme.StyleDimmed.Render("↑/↓:scroll  esc:close")

	var body string
	if len(m.events) == 0 {
		body = theme.StyleDimmed.Render("No events yet. Status changes appear here.")
	} else {
		end := len(m.events) - m.back
		start := max(0, end-rows)
		first := m.events[0].At
		lines := make([]string, 0, end-start)
		for _, e := range m.events[start:end] {
			lines = append(lines, line(e, first, inner))
		}
		body = strings.Join(lines, "\n")
	}

	return lipgloss.NewStyle().
		Width(inner).
		Padding(0, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer))
}

func line(e Event, first time.Time, width int) string {
	offset := theme.StyleDimmed.Render(fmt.Sprintf("+%7.3fs", e.Since(first).Seconds()))

	var marker, text string
	switch e.Kind {
	case KindStatus:
		color := theme.StatusColor(e.Text)
		marker = lipgloss.NewStyle().Foreground(color).Render(theme.StatusGlyph(e.Text))
		text = lipgloss.NewStyle().Foreground(color).Render(e.Text)
	case KindError:
		marker = lipgloss.NewStyle().Foreground(theme.ColorError).Render("!")
		text = lipgloss.NewStyle().Foreground(theme.ColorError).Render(e.Text)
	default:
		marker = lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("·")
		text = e.Text
	}
	if e.Count > 1 {
		text += theme.StyleDimmed.Render(fmt.Sprintf(" ×%d", e.Count))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(offset + " " + marker + " " + text)
}
