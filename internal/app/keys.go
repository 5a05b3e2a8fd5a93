package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the keys the TUI keeps for itself. Everything else goes to
// the box.
type KeyMap struct {
	Destroy  key.Binding
	Help     key.Binding
	Debug    key.Binding
	Escape   key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Destroy: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "destroy box and quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
		Debug: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "toggle connection log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "scroll log up"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "scroll log down"),
		),
	}
}

// Bindings lists the bindings shown in the help overlay.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Destroy, k.Help, k.Debug, k.Escape, k.ScrollUp, k.ScrollDn}
}

// keyToInput encodes k as the bytes a VT100 shell expects. It returns "" for
// keys with no encoding.
func keyToInput(k tea.KeyMsg) string {
	var s string
	switch k.Type {
	case tea.KeyRunes:
		s = string(k.Runes)
	case tea.KeySpace:
		s = " "
	case tea.KeyUp:
		s = "\x1b[A"
	case tea.KeyDown:
		s = "\x1b[B"
	case tea.KeyRight:
		s = "\x1b[C"
	case tea.KeyLeft:
		s = "\x1b[D"
	case tea.KeyHome:
		s = "\x1b[H"
	case tea.KeyEnd:
		s = "\x1b[F"
	case tea.KeyInsert:
		s = "\x1b[2~"
	case tea.KeyDelete:
		s = "\x1b[3~"
	case tea.KeyPgUp:
		s = "\x1b[5~"
	case tea.KeyPgDown:
		s = "\x1b[6~"
	case tea.KeyShiftTab:
		s = "\x1b[Z"
	default:
		// Control keys carry their byte value as the key type.
		if k.Type >= 0 && k.Type <= 127 {
			s = string(rune(k.Type))
		}
	}
	if s == "" {
		return ""
	}
	if k.Alt {
		return "\x1b" + s
	}
	return s
}
