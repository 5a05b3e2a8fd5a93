package emulator

import (
	"errors"
	"io"
	"sync"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/faiyaz032/gobox/internal/event"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// File is a terminal device such as os.Stdin.
type File interface {
	io.Reader
	Fd() uintptr
}

// HostOptions configures OpenHost.
type HostOptions struct {
	// Raw puts the input terminal in raw mode until Dispose.
	Raw    bool
	Logger *zap.Logger
}

// Host uses the process's own terminal as the emulator. Output is written
// verbatim and keystrokes are read from in.
type Host struct {
	in  File
	out io.Writer
	log *zap.Logger

	input event.Listeners[string]

	mu       sync.Mutex
	writeMu  sync.Mutex
	state    *term.State
	geom     Geometry
	disposed bool
}

// OpenHost attaches to the terminal behind in and out and starts reading
// input.
func OpenHost(in File, out io.Writer, opts HostOptions) (*Host, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Host{in: in, out: out, log: log.With(zap.String("component", "host"))}

	if opts.Raw {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return nil, errors.New("raw mode requires a terminal")
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		h.state = state
	}

	go h.readLoop()
	return h, nil
}

func (h *Host) readLoop() {
	buf := make([]byte, 1024)
	for {
		n, err := h.in.Read(buf)
		if n > 0 {
			h.mu.Lock()
			disposed := h.disposed
			h.mu.Unlock()
			if disposed {
				return
			}
			h.input.Emit(string(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.log.Debug("terminal read ended", zap.Error(err))
			}
			return
		}
	}
}

func (h *Host) Write(p []byte) {
	h.mu.Lock()
	disposed := h.disposed
	h.mu.Unlock()
	if disposed {
		return
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.out.Write(p); err != nil {
		h.log.Debug("terminal write failed", zap.Error(err))
	}
}

func (h *Host) WriteString(s string) {
	h.Write([]byte(s))
}

func (h *Host) OnInput(fn func(string)) (unsubscribe func()) {
	return h.input.Add(fn)
}

// Size reports the terminal size, making Host its own Surface.
func (h *Host) Size() (Geometry, error) {
	cols, rows, err := term.GetSize(int(h.in.Fd()))
	if err != nil {
		return Geometry{}, apperrors.New(apperrors.KindFitFailed, "terminal size", err)
	}
	return Geometry{Cols: cols, Rows: rows}, nil
}

// Fit refreshes the recorded geometry from the terminal. The real terminal
// reflows on its own.
func (h *Host) Fit() error {
	g, err := h.Size()
	if err != nil {
		return err
	}
	if !g.Valid() {
		return apperrors.New(apperrors.KindFitFailed, "fit", errNoLayout)
	}
	h.mu.Lock()
	h.geom = g
	h.mu.Unlock()
	return nil
}

// Geometry returns the size of the last successful Fit.
func (h *Host) Geometry() Geometry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.geom
}

// Focus is a no-op: the host terminal always has focus.
func (h *Host) Focus() {}

func (h *Host) Reset() {
	h.Write([]byte(ris))
}

// Dispose restores the terminal mode. Input arriving afterwards is dropped.
func (h *Host) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	state := h.state
	h.state = nil
	h.mu.Unlock()

	h.input.Clear()
	if state != nil {
		if err := term.Restore(int(h.in.Fd()), state); err != nil {
			h.log.Warn("restore terminal failed", zap.Error(err))
		}
	}
}
