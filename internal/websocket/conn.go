// Package websocket defines the exam stream wire schema and a small
// write-safe wrapper around the underlying connection.
package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 5 * time.Minute
)

// Conn serializes writes to one candidate connection. The read loop,
// the countdown ticker, and the alert dismissal timer all write frames;
// the underlying gorilla connection allows only one concurrent writer.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// Wrap adopts an upgraded connection.
func Wrap(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a typed event frame with a write deadline.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse frame.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes the next inbound frame with a read deadline.
// Only the connection's read loop may call it.
func (c *Conn) ReadJSON(v interface{}) error {
	c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	return c.ws.ReadJSON(v)
}

// Interrupt expires the read deadline immediately, forcing a blocked
// ReadJSON to return. The read side is unusable afterwards; writes still
// go through, so the caller can send a final frame before closing.
func (c *Conn) Interrupt() {
	c.ws.SetReadDeadline(time.Now())
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
