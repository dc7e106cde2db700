package transport

import (
	"net"
	"sync"
	"time"
)

// sessionChannel is the concrete domain.Channel for this facade: a
// liveness token wrapping a net.Conn opened through the pluggable
// transport's SOCKS proxy. It never writes to the connection, and it
// reads only inside IsClosing, a short bounded read.
type sessionChannel struct {
	conn   net.Conn
	mu     sync.Mutex
	closed bool
}

func newSessionChannel(conn net.Conn) *sessionChannel {
	return &sessionChannel{conn: conn}
}

// IsClosing reports whether the session has (or appears to have)
// already gone away. It reads one byte with a 1ms deadline: a timeout
// means the session is still up, EOF or any other error means it is
// gone. A byte that happens to be pending is read and discarded. (A
// deadline already in the past would not do: Read then times out
// without looking at the socket, so a closed peer is never seen.)
func (c *sessionChannel) IsClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return true
	}
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	one := make([]byte, 1)
	_, err := c.conn.Read(one)
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return false
	}
	return true
}

func (c *sessionChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
