package session

import (
	"context"

	"github.com/faiyaz032/gobox/internal/transport"
)

// IdentitySource yields the device token the backend keys a box by.
type IdentitySource interface {
	Identity(ctx context.Context) (string, error)
}

// Transport is one connection to the backend. *transport.Session
// satisfies it.
type Transport interface {
	OnReceive(fn func(transport.Frame)) (unsubscribe func())
	OnStatusChange(fn func(transport.Status)) (unsubscribe func())
	Connect(ctx context.Context)
	Send(f transport.Frame)
	Close()
	// Err returns the failure behind StatusError, or nil.
	Err() error
}

// Emulator renders backend output and produces user input.
// *emulator.VT and *emulator.Host satisfy it.
type Emulator interface {
	Write(p []byte)
	WriteString(s string)
	OnInput(fn func(string)) (unsubscribe func())
	Fit() error
	Focus()
	Reset()
	Dispose()
}

// ResizeSource reports changes of the surface the emulator fits to.
// *emulator.Viewport and *emulator.ResizeWatcher satisfy it.
type ResizeSource interface {
	OnResize(fn func()) (unsubscribe func())
}

// TransportFactory builds an unconnected transport for endpoint and token.
type TransportFactory func(endpoint, token string) (Transport, error)

// EmulatorFactory builds a fresh emulator for one run.
type EmulatorFactory func() (Emulator, error)

// DialTransport returns a TransportFactory backed by transport.New.
func DialTransport(opts ...transport.Option) TransportFactory {
	return func(endpoint, token string) (Transport, error) {
		s, err := transport.New(endpoint, token, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
