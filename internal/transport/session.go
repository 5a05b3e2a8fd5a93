// Package transport manages the websocket to the gobox backend. A Session
// carries raw terminal bytes in both directions and reports a small status
// machine: connecting, then connected, then disconnected or error. There is
// no reconnection.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/faiyaz032/gobox/internal/event"
	"github.com/faiyaz032/gobox/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// FingerprintParam is the query parameter the backend keys a box by.
	FingerprintParam = "fingerprint"

	DefaultPingInterval = 30 * time.Second
	DefaultPongTimeout  = 60 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	closeGrace          = time.Second
)

// ConnectURL attaches the fingerprint to base. The scheme must be ws or wss.
func ConnectURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", apperrors.New(apperrors.KindConfig, "connect url", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", apperrors.Newf(apperrors.KindConfig, "connect url", "scheme %q is not ws or wss", u.Scheme)
	}
	if u.Host == "" {
		return "", apperrors.Newf(apperrors.KindConfig, "connect url", "missing host in %q", base)
	}
	q := u.Query()
	q.Set(FingerprintParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Session is one websocket connection attempt and its lifetime.
type Session struct {
	url              string
	dialer           *websocket.Dialer
	log              *zap.Logger
	metrics          *metrics.Metrics
	pingInterval     time.Duration
	pongTimeout      time.Duration
	writeTimeout     time.Duration
	handshakeTimeout time.Duration

	receive event.Listeners[Frame]
	status  event.Listeners[Status]

	mu          sync.Mutex
	writeMu     sync.Mutex // serialises data writes
	current     Status
	conn        *websocket.Conn
	started     bool
	closed      bool
	cancel      context.CancelFunc
	closeCode   int
	closeReason string
	err         error
	done        chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) {
		if d != nil {
			s.dialer = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithKeepalive sets the ping interval and the pong deadline. Zero disables
// the respective mechanism.
func WithKeepalive(ping, pong time.Duration) Option {
	return func(s *Session) {
		s.pingInterval = ping
		s.pongTimeout = pong
	}
}

// WithWriteTimeout bounds each write. Zero or less keeps the default.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithHandshakeTimeout bounds the opening handshake. Zero waits indefinitely.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Session) { s.handshakeTimeout = d }
}

// New returns a Session for endpoint keyed by token. Its status is
// connecting; nothing touches the network until Connect.
func New(endpoint, token string, opts ...Option) (*Session, error) {
	u, err := ConnectURL(endpoint, token)
	if err != nil {
		return nil, err
	}
	s := &Session{
		url:          u,
		dialer:       websocket.DefaultDialer,
		log:          zap.NewNop(),
		pingInterval: DefaultPingInterval,
		pongTimeout:  DefaultPongTimeout,
		writeTimeout: DefaultWriteTimeout,
		current:      StatusConnecting,
		done:         make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("component", "transport"))
	return s, nil
}

// URL returns the full connection URL including the fingerprint.
func (s *Session) URL() string { return s.url }

// OnReceive registers fn for every inbound frame.
func (s *Session) OnReceive(fn func(Frame)) (unsubscribe func()) {
	return s.receive.Add(fn)
}

// OnStatusChange registers fn for every status transition.
func (s *Session) OnStatusChange(fn func(Status)) (unsubscribe func()) {
	return s.status.Add(fn)
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Err returns the failure behind StatusError, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CloseInfo returns the close code and reason sent by the peer. The code is
// zero if no close frame was seen.
func (s *Session) CloseInfo() (code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCode, s.closeReason
}

// Done is closed once the connection goroutine has exited. It never closes
// for a Session that was not connected.
func (s *Session) Done() <-chan struct{} { return s.done }

// Connect starts the handshake in the background. All callbacks then run on
// that goroutine in arrival order. Calling Connect twice, or after Close,
// does nothing.
func (s *Session) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Send writes f if the connection is open and silently drops it otherwise.
func (s *Session) Send(f Frame) {
	s.mu.Lock()
	conn := s.conn
	open := s.current == StatusConnected && !s.closed && conn != nil
	s.mu.Unlock()
	if !open {
		s.metrics.SendDropped()
		return
	}

	mt := websocket.TextMessage
	if f.Kind == FrameBinary {
		mt = websocket.BinaryMessage
	}
	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	err := conn.WriteMessage(mt, f.Data)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Warn("websocket write failed", zap.Error(err))
		return
	}
	s.metrics.FrameSent()
}

// Close ends the session. It is idempotent and safe before Connect. A
// handshake that completes after Close is closed immediately.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		conn.Close()
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	dialCtx := ctx
	if s.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.handshakeTimeout)
		defer cancel()
	}

	conn, resp, err := s.dialer.DialContext(dialCtx, s.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if s.isClosed() {
			s.transition(StatusDisconnected, nil)
			return
		}
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		s.transition(StatusError, apperrors.New(apperrors.KindTransportOpenFailed, "dial", err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		s.log.Debug("handshake completed after close")
		s.transition(StatusDisconnected, nil)
		return
	}
	s.conn = conn
	s.mu.Unlock()

	if s.pongTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	}

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	if s.pingInterval > 0 {
		go s.pingLoop(pingCtx, conn)
	}

	s.log.Info("websocket connected")
	s.transition(StatusConnected, nil)
	s.readLoop(conn)
}

func (s *Session) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			s.readFailed(err)
			return
		}

		var f Frame
		switch mt {
		case websocket.BinaryMessage:
			f = Frame{Kind: FrameBinary, Data: data}
		case websocket.TextMessage:
			f = Frame{Kind: FrameText, Data: data}
		default:
			continue
		}
		s.metrics.FrameReceived(f.Kind.String(), len(data))
		s.receive.Emit(f)
	}
}

func (s *Session) readFailed(err error) {
	var ce *websocket.CloseError
	switch {
	case errors.As(err, &ce):
		s.mu.Lock()
		s.closeCode, s.closeReason = ce.Code, ce.Text
		s.mu.Unlock()
		s.log.Info("websocket closed", zap.Int("code", ce.Code), zap.String("reason", ce.Text))
		s.transition(StatusDisconnected, nil)
	case s.isClosed():
		s.log.Info("websocket closed locally")
		s.transition(StatusDisconnected, nil)
	default:
		s.transition(StatusError, apperrors.New(apperrors.KindTransportError, "read", err))
	}
}

// pingLoop sends periodic pings on conn until ctx is done or a write fails.
func (s *Session) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout)); err != nil {
				return
			}
		}
	}
}

// transition moves to next and notifies listeners. Terminal statuses are
// final: later transitions are dropped.
func (s *Session) transition(next Status, err error) {
	s.mu.Lock()
	if s.current.Terminal() || s.current == next {
		s.mu.Unlock()
		return
	}
	s.current = next
	if err != nil {
		s.err = err
	}
	if next.Terminal() {
		s.conn = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("websocket failed", zap.String("status", next.String()), zap.Error(err))
	}
	s.metrics.Transition(next.String())
	s.status.Emit(next)
}
