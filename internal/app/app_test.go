package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/faiyaz032/gobox/internal/emulator"
	"github.com/faiyaz032/gobox/internal/event"
	"github.com/faiyaz032/gobox/internal/transport"
	"github.com/faiyaz032/gobox/internal/views/debug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu          sync.Mutex
	activations int
	deactivated int
	status      transport.Status
	listeners   event.Listeners[transport.Status]
}

func (c *fakeController) Activate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activations++
	return nil
}

func (c *fakeController) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deactivated++
}

func (c *fakeController) Status() transport.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeController) OnStatusChange(fn func(transport.Status)) func() {
	return c.listeners.Add(fn)
}

func (c *fakeController) emit(s transport.Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.listeners.Emit(s)
}

type fakeScreen struct {
	text    string
	inputs  []string
	renders event.Listeners[struct{}]
}

func (s *fakeScreen) Render() string    { return s.text }
func (s *fakeScreen) Input(text string) { s.inputs = append(s.inputs, text) }
func (s *fakeScreen) OnRender(fn func()) func() {
	return s.renders.Add(func(struct{}) { fn() })
}

type fakeResizer struct {
	cols, rows int
}

func (r *fakeResizer) Set(cols, rows int) { r.cols, r.rows = cols, rows }

func newTestModel() (Model, *fakeController, *fakeScreen, *fakeResizer) {
	ctrl := &fakeController{status: transport.StatusConnecting}
	screen := &fakeScreen{text: "$ "}
	vp := &fakeResizer{}
	m := New(Config{Controller: ctrl, Screen: screen, Viewport: vp, Endpoint: "ws://localhost:8010/api/v1/box/connect"})
	return m, ctrl, screen, vp
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyToInput(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{"rune", runes("a"), "a"},
		{"unicode", runes("é"), "é"},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ls -la"), Paste: true}, "ls -la"},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, " "},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, "\r"},
		{"tab", tea.KeyMsg{Type: tea.KeyTab}, "\t"},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, "\x7f"},
		{"ctrl c", tea.KeyMsg{Type: tea.KeyCtrlC}, "\x03"},
		{"ctrl d", tea.KeyMsg{Type: tea.KeyCtrlD}, "\x04"},
		{"esc", tea.KeyMsg{Type: tea.KeyEscape}, "\x1b"},
		{"up", tea.KeyMsg{Type: tea.KeyUp}, "\x1b[A"},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, "\x1b[B"},
		{"right", tea.KeyMsg{Type: tea.KeyRight}, "\x1b[C"},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, "\x1b[D"},
		{"home", tea.KeyMsg{Type: tea.KeyHome}, "\x1b[H"},
		{"end", tea.KeyMsg{Type: tea.KeyEnd}, "\x1b[F"},
		{"delete", tea.KeyMsg{Type: tea.KeyDelete}, "\x1b[3~"},
		{"page up", tea.KeyMsg{Type: tea.KeyPgUp}, "\x1b[5~"},
		{"page down", tea.KeyMsg{Type: tea.KeyPgDown}, "\x1b[6~"},
		{"shift tab", tea.KeyMsg{Type: tea.KeyShiftTab}, "\x1b[Z"},
		{"alt rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b"), Alt: true}, "\x1bb"},
		{"alt left", tea.KeyMsg{Type: tea.KeyLeft, Alt: true}, "\x1b\x1b[D"},
		{"function key", tea.KeyMsg{Type: tea.KeyF5}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyToInput(tt.key))
		})
	}
}

func TestInitActivates(t *testing.T) {
	m, ctrl, _, _ := newTestModel()
	msg := m.activate()
	assert.Equal(t, activateMsg{}, msg)
	assert.Equal(t, 1, ctrl.activations)
}

func TestWindowSizeSetsViewport(t *testing.T) {
	m, _, _, vp := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, vp.cols)
	assert.Equal(t, 30-chromeHeight, vp.rows)

	vp.cols, vp.rows = 0, 0
	update(t, m, tea.WindowSizeMsg{Width: 100, Height: chromeHeight})
	assert.Zero(t, vp.rows, "no terminal area left")
}

func TestKeysGoToScreen(t *testing.T) {
	m, _, screen, _ := newTestModel()
	m, _ = update(t, m, runes("l"))
	m, _ = update(t, m, runes("s"))
	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"l", "s", "\r"}, screen.inputs)
}

func TestOverlaysCaptureKeys(t *testing.T) {
	m, _, screen, _ := newTestModel()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, OverlayHelp, m.overlay)
	m, _ = update(t, m, runes("x"))
	assert.Empty(t, screen.inputs, "keys stay with the overlay")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	assert.Equal(t, OverlayDebug, m.overlay)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	assert.Equal(t, OverlayNone, m.overlay)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, OverlayNone, m.overlay)
	assert.Empty(t, screen.inputs)

	update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, []string{"\x1b"}, screen.inputs, "esc goes to the box without an overlay")
}

func TestDestroyDeactivatesAndQuits(t *testing.T) {
	m, ctrl, screen, _ := newTestModel()
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlQ})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Equal(t, 1, ctrl.deactivated)
	assert.Equal(t, 0, ctrl.listeners.Len())
	assert.Equal(t, 0, screen.renders.Len())
	assert.Empty(t, m.View())
	assert.Error(t, m.ctx.Err())
}

func TestStatusEventsReachModel(t *testing.T) {
	m, ctrl, _, _ := newTestModel()
	ctrl.emit(transport.StatusConnected)

	msg := m.events.next()
	assert.Equal(t, statusMsg(transport.StatusConnected), msg)

	m, cmd := update(t, m, msg)
	assert.NotNil(t, cmd, "model keeps listening")
	assert.Equal(t, transport.StatusConnected, m.statusBar.Status)
	require.Len(t, m.debug.Events(), 1)
	assert.Equal(t, debug.KindStatus, m.debug.Events()[0].Kind)

	ctrl.emit(transport.StatusError)
	m, _ = update(t, m, m.events.next())
	assert.Equal(t, transport.StatusError, m.debug.Events()[1].Status)
}

func TestRendersAreCoalesced(t *testing.T) {
	m, _, screen, _ := newTestModel()
	screen.renders.Emit(struct{}{})
	screen.renders.Emit(struct{}{})
	assert.Len(t, m.events.ch, 1)

	m, _ = update(t, m, m.events.next())
	screen.renders.Emit(struct{}{})
	assert.Len(t, m.events.ch, 1, "a handled render re-arms the signal")
}

func TestStatusSendsNeverBlock(t *testing.T) {
	m, ctrl, _, _ := newTestModel()
	for i := 0; i < eventBuffer*2; i++ {
		ctrl.emit(transport.StatusConnecting)
	}
	assert.Len(t, m.events.ch, eventBuffer)
}

func TestView(t *testing.T) {
	m, _, screen, _ := newTestModel()
	assert.Equal(t, "Initializing...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	screen.text = "welcome\r\n$ "
	v := m.View()
	assert.Contains(t, v, "GoBox")
	assert.Contains(t, v, "connecting...")
	assert.Contains(t, v, "welcome")
	assert.Contains(t, v, "ctrl+q:destroy box")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	assert.Contains(t, m.View(), "CONNECTION LOG")
}

func TestTerminalRoutesToCurrentVT(t *testing.T) {
	vp := emulator.NewViewport()
	vp.Set(80, 24)
	term := NewTerminal(vp, emulator.DefaultVTOptions())

	assert.Empty(t, term.Render())
	term.Input("ignored")

	renders := 0
	term.OnRender(func() { renders++ })

	emu, err := term.Open()
	require.NoError(t, err)
	defer emu.Dispose()

	var got []string
	emu.OnInput(func(s string) { got = append(got, s) })
	term.Input("a")
	assert.Equal(t, []string{"a"}, got)

	emu.WriteString("hello")
	assert.Contains(t, term.Render(), "hello")
	assert.GreaterOrEqual(t, renders, 2)

	second, err := term.Open()
	require.NoError(t, err)
	defer second.Dispose()
	assert.False(t, strings.Contains(term.Render(), "hello"), "a new session gets a fresh screen")
}
