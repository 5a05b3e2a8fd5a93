package app

import (
	"sync"

	"github.com/faiyaz032/gobox/internal/emulator"
	"github.com/faiyaz032/gobox/internal/event"
	"github.com/faiyaz032/gobox/internal/session"
)

// Screen is the terminal the model draws and types into.
type Screen interface {
	Render() string
	Input(text string)
	OnRender(fn func()) (unsubscribe func())
}

// Terminal opens one VT per session, sized by a shared surface, and routes
// the model's input and rendering to whichever VT is current.
type Terminal struct {
	surface emulator.Surface
	opts    emulator.VTOptions
	renders event.Listeners[struct{}]

	mu      sync.Mutex
	current *emulator.VT
}

// NewTerminal returns a Terminal whose VTs fit surface.
func NewTerminal(surface emulator.Surface, opts emulator.VTOptions) *Terminal {
	return &Terminal{surface: surface, opts: opts}
}

// Open is a session.EmulatorFactory.
func (t *Terminal) Open() (session.Emulator, error) {
	vt := emulator.OpenVT(t.surface, t.opts)
	vt.OnRender(func() { t.renders.Emit(struct{}{}) })

	t.mu.Lock()
	t.current = vt
	t.mu.Unlock()

	t.renders.Emit(struct{}{})
	return vt, nil
}

func (t *Terminal) vt() *emulator.VT {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Render returns the current screen, or "" before the first session.
func (t *Terminal) Render() string {
	if vt := t.vt(); vt != nil {
		return vt.Render()
	}
	return ""
}

// Input types text into the current VT.
func (t *Terminal) Input(text string) {
	if vt := t.vt(); vt != nil {
		vt.Input(text)
	}
}

// OnRender registers fn for screen changes of every VT this Terminal opens.
func (t *Terminal) OnRender(fn func()) (unsubscribe func()) {
	return t.renders.Add(func(struct{}) { fn() })
}
