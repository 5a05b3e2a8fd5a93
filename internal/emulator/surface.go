// Package emulator adapts terminal emulators to the session controller.
//
// VT renders inside the Bubble Tea UI with charmbracelet/x/vt. Host drives
// the real terminal the process runs in. Both accept raw backend output,
// report user input through listeners and fit themselves to a Surface.
package emulator

import (
	"errors"
	"sync"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/faiyaz032/gobox/internal/event"
)

// Geometry is a size in character cells.
type Geometry struct {
	Cols int
	Rows int
}

// Valid reports whether both dimensions are positive.
func (g Geometry) Valid() bool {
	return g.Cols > 0 && g.Rows > 0
}

// Surface is the container an emulator fits itself to.
type Surface interface {
	Size() (Geometry, error)
}

var errNoLayout = errors.New("surface has no size yet")

// Viewport is a Surface whose size is pushed by the UI, usually from
// tea.WindowSizeMsg. It is also a resize source.
type Viewport struct {
	mu      sync.Mutex
	geom    Geometry
	resized event.Listeners[Geometry]
}

// NewViewport returns a viewport with no size. Fitting to it fails until
// Set is called.
func NewViewport() *Viewport {
	return &Viewport{}
}

// Set records a new size and notifies resize listeners if it changed.
func (v *Viewport) Set(cols, rows int) {
	g := Geometry{Cols: cols, Rows: rows}
	v.mu.Lock()
	if g == v.geom {
		v.mu.Unlock()
		return
	}
	v.geom = g
	v.mu.Unlock()
	v.resized.Emit(g)
}

func (v *Viewport) Size() (Geometry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.geom.Valid() {
		return Geometry{}, apperrors.New(apperrors.KindFitFailed, "viewport size", errNoLayout)
	}
	return v.geom, nil
}

// OnResize registers fn for every size change.
func (v *Viewport) OnResize(fn func()) (unsubscribe func()) {
	return v.resized.Add(func(Geometry) { fn() })
}
