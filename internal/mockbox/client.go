package mockbox

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

type outbound struct {
	data   []byte
	close  bool
	code   int
	reason string
}

// client owns the write side of one connection. Only the connection's
// handler goroutine queues to it.
type client struct {
	conn        *websocket.Conn
	messageType int
	send        chan outbound
	done        chan struct{}
}

func newClient(conn *websocket.Conn, messageType int) *client {
	c := &client{
		conn:        conn,
		messageType: messageType,
		send:        make(chan outbound, sendBuffer),
		done:        make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer close(c.done)
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if msg.close {
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(msg.code, msg.reason))
			return
		}
		if err := c.conn.WriteMessage(c.messageType, msg.data); err != nil {
			return
		}
	}
}

// queue reports false if the client is too slow and the frame was dropped.
func (c *client) queue(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	select {
	case c.send <- outbound{data: data}:
		return true
	default:
		return false
	}
}

// closeWith asks the write pump to send a close frame and stop.
func (c *client) closeWith(code int, reason string) {
	select {
	case c.send <- outbound{close: true, code: code, reason: reason}:
	default:
		c.conn.Close()
	}
}

// close stops the write pump after it drains. It must be called once.
func (c *client) close() {
	close(c.send)
}
