// Package session owns the lifecycle of one terminal session: resolve the
// identity, open the emulator, connect the transport, pump bytes both ways
// and tear everything down in a fixed order.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/faiyaz032/gobox/internal/event"
	"github.com/faiyaz032/gobox/internal/metrics"
	"github.com/faiyaz032/gobox/internal/transport"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the controller's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateActivating
	StateStreaming
	StateTearingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActivating:
		return "activating"
	case StateStreaming:
		return "streaming"
	case StateTearingDown:
		return "tearing_down"
	default:
		return "unknown"
	}
}

// Lines written to the emulator around the session.
const (
	lineConnecting   = "  \x1b[33m⏳ Connecting to GoBox Container...\x1b[0m\r\n"
	lineConnected    = "  \x1b[1;32m✅ Connected to GoBox!\x1b[0m\r\n\r\n"
	lineDisconnected = "\r\n\x1b[1;33m⚠ Disconnected from server.\x1b[0m\r\n"
	lineErrorFormat  = "\r\n\x1b[1;31m✖ %s\x1b[0m\r\n"
)

// wakeLine prompts the backend shell to print its first prompt.
const wakeLine = "\n"

// Config wires a Controller.
type Config struct {
	Endpoint      string
	Identity      IdentitySource
	OpenTransport TransportFactory
	OpenEmulator  EmulatorFactory
	// Viewport is optional. Each resize it reports triggers one Fit.
	Viewport ResizeSource
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Controller runs at most one session at a time. Activate and Deactivate
// may be called from any goroutine.
type Controller struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics

	statusListeners event.Listeners[transport.Status]

	mu     sync.Mutex
	active bool
	state  State
	status transport.Status
	run    *run
}

// run is one activation. Its mutex serialises every callback against
// teardown; alive turns false exactly once.
//
// Input is guarded by sendMu alone. The emulator reports terminal replies
// from inside Write, which runs under mu, so onInput must never take mu.
type run struct {
	id     string
	log    *zap.Logger
	cancel context.CancelFunc
	subs   event.Group

	mu     sync.Mutex
	alive  bool
	emu    Emulator
	tr     Transport
	status transport.Status

	sendMu sync.Mutex
	// sendTo is set only while the transport is connected.
	sendTo Transport
}

// New returns an idle controller.
func New(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		cfg:     cfg,
		log:     log.With(zap.String("component", "session")),
		metrics: cfg.Metrics,
		state:   StateIdle,
		status:  transport.StatusDisconnected,
	}
}

// State returns the lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the connection status of the current run, or
// StatusDisconnected when idle.
func (c *Controller) Status() transport.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// OnStatusChange registers fn for status changes of every run. fn runs on
// the transport's goroutine and must not block.
func (c *Controller) OnStatusChange(fn func(transport.Status)) (unsubscribe func()) {
	return c.statusListeners.Add(fn)
}

// Activate starts a session and returns without waiting for the network.
// A second call while a session is active does nothing. The only error is
// failing to open the emulator; every later failure becomes a status.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		c.log.Debug("activate ignored, session already active")
		return nil
	}
	emu, err := c.cfg.OpenEmulator()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("open emulator: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	r := &run{
		id:     id,
		log:    c.log.With(zap.String("run_id", id)),
		cancel: cancel,
		alive:  true,
		emu:    emu,
		status: transport.StatusConnecting,
	}
	c.active = true
	c.state = StateActivating
	c.status = transport.StatusConnecting
	c.run = r
	c.mu.Unlock()

	c.metrics.SessionStarted()
	r.log.Info("session activating", zap.String("endpoint", c.cfg.Endpoint))

	r.mu.Lock()
	emu.WriteString(lineConnecting)
	r.subs.Add(emu.OnInput(func(s string) { c.onInput(r, s) }))
	if c.cfg.Viewport != nil {
		r.subs.Add(c.cfg.Viewport.OnResize(func() { c.fit(r) }))
	}
	r.mu.Unlock()

	c.statusListeners.Emit(transport.StatusConnecting)

	// The surface may not be laid out yet.
	go c.fit(r)
	go c.connect(ctx, r)
	return nil
}

func (c *Controller) connect(ctx context.Context, r *run) {
	token, err := c.cfg.Identity.Identity(ctx)
	if err != nil {
		c.fail(r, "identity", err)
		return
	}
	r.log.Debug("identity resolved")

	tr, err := c.cfg.OpenTransport(c.cfg.Endpoint, token)
	if err != nil {
		c.fail(r, "open transport", err)
		return
	}

	r.mu.Lock()
	if !r.alive {
		r.mu.Unlock()
		r.log.Debug("transport created after teardown, closing")
		tr.Close()
		return
	}
	r.tr = tr
	r.subs.Add(tr.OnReceive(func(f transport.Frame) { c.onFrame(r, f) }))
	r.subs.Add(tr.OnStatusChange(func(s transport.Status) { c.onStatus(r, s) }))
	r.mu.Unlock()

	c.setState(r, StateStreaming)
	tr.Connect(ctx)
}

func (c *Controller) fail(r *run, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.mu.Lock()
	if !r.alive {
		r.mu.Unlock()
		return
	}
	r.status = transport.StatusError
	r.emu.WriteString(fmt.Sprintf(lineErrorFormat, apperrors.Message(err)))
	r.mu.Unlock()

	r.log.Error("session failed", zap.String("op", op), zap.Error(err))
	c.setState(r, StateStreaming)
	c.publish(r, transport.StatusError)
}

func (c *Controller) onFrame(r *run, f transport.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.alive {
		return
	}
	if f.Kind == transport.FrameBinary {
		r.emu.Write(f.Data)
		return
	}
	r.emu.WriteString(string(f.Data))
}

func (c *Controller) onInput(r *run, s string) {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if r.sendTo == nil {
		return
	}
	r.sendTo.Send(transport.Text(s))
}

// forwardInput sets where input goes; nil drops it.
func (r *run) forwardInput(tr Transport) {
	r.sendMu.Lock()
	r.sendTo = tr
	r.sendMu.Unlock()
}

func (c *Controller) fit(r *run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.alive {
		return
	}
	if err := r.emu.Fit(); err != nil {
		r.log.Debug("fit skipped", zap.Error(err))
	}
}

func (c *Controller) onStatus(r *run, s transport.Status) {
	r.mu.Lock()
	if !r.alive {
		r.mu.Unlock()
		return
	}
	r.status = s
	if s != transport.StatusConnected {
		r.forwardInput(nil)
	}
	switch s {
	case transport.StatusConnected:
		r.emu.Reset()
		r.emu.WriteString(lineConnected)
		r.emu.Focus()
		r.tr.Send(transport.Text(wakeLine))
		r.forwardInput(r.tr)
	case transport.StatusDisconnected:
		r.emu.WriteString(lineDisconnected)
	case transport.StatusError:
		err := r.tr.Err()
		if err == nil {
			err = apperrors.ErrTransportError
		}
		r.emu.WriteString(fmt.Sprintf(lineErrorFormat, apperrors.Message(err)))
	}
	r.mu.Unlock()

	r.log.Info("connection status", zap.String("status", s.String()))
	c.publish(r, s)
}

// publish records s as the controller status and notifies listeners, unless
// r is no longer the current run.
func (c *Controller) publish(r *run, s transport.Status) {
	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		return
	}
	c.status = s
	c.mu.Unlock()
	c.statusListeners.Emit(s)
}

func (c *Controller) setState(r *run, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == r {
		c.state = s
	}
}

// Deactivate tears the current session down: stop input, close the
// transport, dispose the emulator, clear the active flag, then release every
// listener. It is idempotent.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	r := c.run
	if r == nil {
		c.mu.Unlock()
		return
	}
	c.run = nil
	c.state = StateTearingDown
	c.mu.Unlock()

	r.log.Info("session tearing down")
	r.forwardInput(nil)

	r.mu.Lock()
	r.alive = false
	r.cancel()
	if r.tr != nil {
		r.tr.Close()
	}
	r.emu.Dispose()
	r.mu.Unlock()

	c.mu.Lock()
	c.active = false
	c.mu.Unlock()

	r.subs.Release()

	c.mu.Lock()
	if c.run == nil {
		c.state = StateIdle
		c.status = transport.StatusDisconnected
	}
	c.mu.Unlock()
	c.metrics.SessionEnded()
}
