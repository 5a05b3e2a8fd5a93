package app

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/faiyaz032/gobox/internal/theme"
	"github.com/faiyaz032/gobox/internal/transport"
	"github.com/faiyaz032/gobox/internal/views/debug"
	"github.com/faiyaz032/gobox/internal/views/help"
	"github.com/faiyaz032/gobox/internal/views/status"
)

// Overlay identifies which panel covers the terminal.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayDebug
)

// chromeHeight is the status bar (three lines with its border) plus the
// footer line.
const chromeHeight = 4

const eventBuffer = 64

// Controller is the session the TUI drives. *session.Controller satisfies it.
type Controller interface {
	Activate(ctx context.Context) error
	Deactivate()
	Status() transport.Status
	OnStatusChange(fn func(transport.Status)) (unsubscribe func())
}

// Resizer receives the terminal area size. *emulator.Viewport satisfies it.
type Resizer interface {
	Set(cols, rows int)
}

// Config wires a Model.
type Config struct {
	Controller Controller
	Screen     Screen
	Viewport   Resizer
	Endpoint   string
}

type (
	statusMsg   transport.Status
	renderMsg   struct{}
	activateMsg struct{ err error }
)

// events carries callbacks from session goroutines into the update loop.
// Sends never block: statuses are dropped when the buffer is full (the model
// re-reads the controller on every render) and renders are coalesced.
type events struct {
	ch            chan tea.Msg
	renderPending atomic.Bool
}

func newEvents() *events {
	return &events{ch: make(chan tea.Msg, eventBuffer)}
}

func (e *events) status(s transport.Status) {
	select {
	case e.ch <- statusMsg(s):
	default:
	}
}

func (e *events) render() {
	if !e.renderPending.CompareAndSwap(false, true) {
		return
	}
	select {
	case e.ch <- renderMsg{}:
	default:
		e.renderPending.Store(false)
	}
}

func (e *events) next() tea.Msg {
	return <-e.ch
}

// Model is the root Bubble Tea model.
type Model struct {
	ctrl     Controller
	screen   Screen
	viewport Resizer
	events   *events
	unsub    []func()
	ctx      context.Context
	cancel   context.CancelFunc

	keys   KeyMap
	width  int
	height int

	overlay   Overlay
	statusBar status.Model
	debug     debug.Model
	lastErr   string
	quitting  bool
}

// New creates the root model and subscribes it to the controller and screen.
func New(cfg Config) Model {
	ctx, cancel := context.WithCancel(context.Background())
	ev := newEvents()
	m := Model{
		ctrl:      cfg.Controller,
		screen:    cfg.Screen,
		viewport:  cfg.Viewport,
		events:    ev,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		statusBar: status.New(cfg.Endpoint),
		debug:     debug.New(),
	}
	m.unsub = append(m.unsub,
		cfg.Controller.OnStatusChange(ev.status),
		cfg.Screen.OnRender(ev.render),
	)
	return m
}

// Init activates the session and starts listening for its events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.activate, m.events.next, m.statusBar.Tick)
}

func (m Model) activate() tea.Msg {
	return activateMsg{err: m.ctrl.Activate(m.ctx)}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		if cols, rows := m.termSize(); cols > 0 && rows > 0 {
			m.viewport.Set(cols, rows)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case activateMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.debug.Error(msg.err)
		} else {
			m.debug.Session("session activated")
		}
		return m, nil

	case statusMsg:
		s := transport.Status(msg)
		m.statusBar.Status = s
		m.debug.Status(s)
		return m, m.events.next

	case renderMsg:
		m.events.renderPending.Store(false)
		m.statusBar.Status = m.ctrl.Status()
		return m, m.events.next
	}

	var cmd tea.Cmd
	m.statusBar, cmd = m.statusBar.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Destroy) {
		return m.destroy()
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Help):
			m.overlay = toggle(m.overlay, OverlayHelp)
		case key.Matches(msg, m.keys.Debug):
			m.overlay = toggle(m.overlay, OverlayDebug)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.ScrollUp):
			m.debug.Scroll(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.ScrollDn):
			m.debug.Scroll(-1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	}

	if in := keyToInput(msg); in != "" {
		m.screen.Input(in)
	}
	return m, nil
}

func toggle(current, o Overlay) Overlay {
	if current == o {
		return OverlayNone
	}
	return o
}

// destroy tears the session down and quits. The backend keeps the box for
// this fingerprint; the next run reattaches to it.
func (m Model) destroy() (tea.Model, tea.Cmd) {
	for _, fn := range m.unsub {
		fn()
	}
	m.unsub = nil
	m.ctrl.Deactivate()
	m.cancel()
	m.quitting = true
	return m, tea.Quit
}

func (m Model) termSize() (cols, rows int) {
	return m.width, m.height - chromeHeight
}

// View renders the full TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	_, rows := m.termSize()
	var body string
	switch m.overlay {
	case OverlayHelp:
		body = lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center,
			help.View(m.keys.Bindings(), min(m.width, 72)))
	case OverlayDebug:
		body = m.debug.View(m.width, rows)
	default:
		body = lipgloss.NewStyle().MaxHeight(rows).Render(m.screen.Render())
	}

	footer := "  f1:help  f2:log  ctrl+q:destroy box"
	if m.lastErr != "" {
		footer = lipgloss.NewStyle().Foreground(theme.ColorError).Render("  "+m.lastErr) + "  " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render(footer),
	)
}
