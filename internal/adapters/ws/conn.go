package ws

import (
	"errors"
	"sync"

	"github.com/dkeye/Tabletop/internal/core"
	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")
var ErrConnClosed = errors.New("connection closed")

// Conn wraps a gorilla connection behind the core.SignalConnection contract:
// non-blocking sends into a buffered channel drained by the write pump.
type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(wsc *websocket.Conn) *Conn {
	return &Conn{
		conn: wsc,
		send: make(chan core.Frame, 32),
	}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
