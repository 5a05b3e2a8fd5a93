package transport

// Status is the observable connection status of a Session.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
	StatusError
	// StatusReconnecting is reserved. No Session ever emits it.
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can follow s.
func (s Status) Terminal() bool {
	return s == StatusDisconnected || s == StatusError
}

// FrameKind distinguishes text from binary websocket messages.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
)

func (k FrameKind) String() string {
	if k == FrameBinary {
		return "binary"
	}
	return "text"
}

// Frame is one websocket message. Data is delivered as received.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// Text returns a text frame.
func Text(s string) Frame {
	return Frame{Kind: FrameText, Data: []byte(s)}
}

// Binary returns a binary frame.
func Binary(b []byte) Frame {
	return Frame{Kind: FrameBinary, Data: b}
}
