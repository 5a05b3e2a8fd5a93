package emulator

import (
	"sync"

	"github.com/charmbracelet/x/vt"
	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/faiyaz032/gobox/internal/event"
	"github.com/faiyaz032/gobox/internal/metrics"
	"go.uber.org/zap"
)

const ris = "\x1bc"

// VTOptions configures OpenVT.
type VTOptions struct {
	// ConvertEOL turns a lone "\n" into "\r\n" before it reaches the
	// emulator.
	ConvertEOL bool
	// Initial is the size used until the first successful Fit.
	Initial Geometry
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// DefaultVTOptions converts line endings and starts at 80x24.
func DefaultVTOptions() VTOptions {
	return VTOptions{ConvertEOL: true, Initial: Geometry{Cols: 80, Rows: 24}}
}

// VT is an in-process virtual terminal. It is safe for concurrent use.
type VT struct {
	surface    Surface
	emu        *vt.SafeEmulator
	log        *zap.Logger
	metrics    *metrics.Metrics
	convertEOL bool

	input  event.Listeners[string]
	render event.Listeners[struct{}]

	mu       sync.Mutex
	geom     Geometry
	focused  bool
	disposed bool
	lastCR   bool
}

// OpenVT creates an emulator attached to surface. The caller should follow
// it with a deferred Fit once the surface has been laid out.
func OpenVT(surface Surface, opts VTOptions) *VT {
	if !opts.Initial.Valid() {
		opts.Initial = DefaultVTOptions().Initial
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	t := &VT{
		surface:    surface,
		emu:        vt.NewSafeEmulator(opts.Initial.Cols, opts.Initial.Rows),
		log:        log.With(zap.String("component", "vt")),
		metrics:    opts.Metrics,
		convertEOL: opts.ConvertEOL,
		geom:       opts.Initial,
	}

	// The emulator writes its replies (device attributes, cursor reports)
	// to an internal pipe. Unread, that pipe blocks Write, so drain it for
	// the emulator's lifetime and forward replies as input.
	go t.drainReplies()
	return t
}

func (t *VT) drainReplies() {
	buf := make([]byte, 4096)
	for {
		n, err := t.emu.Read(buf)
		if n > 0 && !t.isDisposed() {
			t.input.Emit(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (t *VT) isDisposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// Write renders backend output.
func (t *VT) Write(p []byte) {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	if t.convertEOL {
		p, t.lastCR = convertEOL(p, t.lastCR)
	}
	t.mu.Unlock()

	if _, err := t.emu.Write(p); err != nil {
		t.log.Debug("emulator write failed", zap.Error(err))
		return
	}
	t.render.Emit(struct{}{})
}

// WriteString renders text output.
func (t *VT) WriteString(s string) {
	t.Write([]byte(s))
}

// Input reports user input, one decoded key or paste at a time.
func (t *VT) Input(text string) {
	if text == "" || t.isDisposed() {
		return
	}
	t.input.Emit(text)
}

// OnInput registers fn for user input and terminal replies. Replies are
// delivered while a Write is still in progress, so fn must not wait on
// anything the writer holds.
func (t *VT) OnInput(fn func(string)) (unsubscribe func()) {
	return t.input.Add(fn)
}

// OnRender registers fn to be called after the screen changes.
func (t *VT) OnRender(fn func()) (unsubscribe func()) {
	return t.render.Add(func(struct{}) { fn() })
}

// Fit resizes the emulator to the surface. It fails with KindFitFailed when
// the surface has no size yet.
func (t *VT) Fit() error {
	g, err := t.surface.Size()
	if err == nil && !g.Valid() {
		err = errNoLayout
	}
	if err != nil {
		t.metrics.FitFailed()
		return apperrors.New(apperrors.KindFitFailed, "fit", err)
	}

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return nil
	}
	changed := g != t.geom
	t.geom = g
	t.mu.Unlock()

	if changed {
		t.emu.Resize(g.Cols, g.Rows)
		t.render.Emit(struct{}{})
	}
	return nil
}

// Geometry returns the size of the last successful Fit.
func (t *VT) Geometry() Geometry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.geom
}

// Focus gives the emulator input focus.
func (t *VT) Focus() {
	t.mu.Lock()
	if t.disposed || t.focused {
		t.mu.Unlock()
		return
	}
	t.focused = true
	t.mu.Unlock()
	t.emu.Emulator.Focus()
}

// Focused reports whether Focus has been called.
func (t *VT) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

// Reset clears the screen and scrollback.
func (t *VT) Reset() {
	t.mu.Lock()
	t.lastCR = false
	t.mu.Unlock()
	t.Write([]byte(ris))
}

// Render returns the current screen with styling.
func (t *VT) Render() string {
	if t.isDisposed() {
		return ""
	}
	return t.emu.Render()
}

// Dispose releases the emulator. Every later call is a no-op.
func (t *VT) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	t.mu.Unlock()

	t.input.Clear()
	t.render.Clear()
	if err := t.emu.Close(); err != nil {
		t.log.Debug("emulator close failed", zap.Error(err))
	}
}

// convertEOL rewrites every "\n" not preceded by "\r" as "\r\n". prevCR
// carries the last byte of the previous chunk.
func convertEOL(p []byte, prevCR bool) ([]byte, bool) {
	var out []byte
	for i, b := range p {
		if b == '\n' && !prevCR {
			if out == nil {
				out = make([]byte, 0, len(p)+8)
				out = append(out, p[:i]...)
			}
			out = append(out, '\r', '\n')
		} else if out != nil {
			out = append(out, b)
		}
		prevCR = b == '\r'
	}
	if out == nil {
		return p, prevCR
	}
	return out, prevCR
}
