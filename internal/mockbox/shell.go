package mockbox

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

const (
	keyInterrupt = 0x03
	keyEOF       = 0x04
	keyBackspace = 0x7f
	keyEscape    = 0x1b
)

// shell is a line discipline that echoes what it is given. It never runs
// anything.
type shell struct {
	prompt string
	line   []byte
	lastCR bool
}

func newShell(prompt string) *shell {
	return &shell{prompt: prompt}
}

// feed consumes one input frame and returns the bytes to send back. exit
// reports that the user asked to leave (ctrl+d on an empty line, or
// "exit").
func (s *shell) feed(p []byte) (out []byte, exit bool) {
	var buf bytes.Buffer
	// Escape sequences (arrows, function keys) arrive one per frame and
	// have no meaning here.
	if len(p) > 0 && p[0] == keyEscape {
		return nil, false
	}

	for _, b := range p {
		wasCR := s.lastCR
		s.lastCR = b == '\r'

		switch {
		case b == '\n' && wasCR:
		case b == '\r' || b == '\n':
			buf.WriteString("\r\n")
			cmd := strings.TrimSpace(string(s.line))
			s.line = s.line[:0]
			if cmd == "exit" {
				buf.WriteString("logout\r\n")
				return buf.Bytes(), true
			}
			if cmd != "" {
				buf.WriteString(cmd)
				buf.WriteString("\r\n")
			}
			buf.WriteString(s.prompt)
		case b == keyBackspace || b == '\b':
			if len(s.line) > 0 {
				_, size := utf8.DecodeLastRune(s.line)
				s.line = s.line[:len(s.line)-size]
				buf.WriteString("\b \b")
			}
		case b == keyInterrupt:
			s.line = s.line[:0]
			buf.WriteString("^C\r\n")
			buf.WriteString(s.prompt)
		case b == keyEOF:
			if len(s.line) == 0 {
				buf.WriteString("logout\r\n")
				return buf.Bytes(), true
			}
		case b == '\t' || b >= 0x20:
			s.line = append(s.line, b)
			buf.WriteByte(b)
		}
	}
	return buf.Bytes(), false
}
