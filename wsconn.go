package chatwire

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// wsConn carries the same encoded payloads as netConn, but one payload
// per websocket binary message. The ws frame replaces the outer length
// prefix; the payload layout is identical, so both transports are
// mutually routable through the same registry.
type wsConn struct {
	conn  net.Conn
	rw    io.ReadWriter // reads may come via a handshake-buffered reader
	state ws.State

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps an upgraded server-side websocket connection.
func NewWSConn(c net.Conn) Conn {
	return &wsConn{conn: c, rw: c, state: ws.StateServerSide}
}

// newWSClientConn wraps a dialed connection. br, when non-nil, holds
// frames the dialer read past the handshake and must be drained first.
func newWSClientConn(c net.Conn, br *bufio.Reader) Conn {
	var rw io.ReadWriter = c
	if br != nil {
		rw = struct {
			io.Reader
			io.Writer
		}{br, c}
	}
	return &wsConn{conn: c, rw: rw, state: ws.StateClientSide}
}

func (c *wsConn) ReadMessage() (Message, error) {
	payload, op, err := wsutil.ReadData(c.rw, c.state)
	if err != nil {
		return Message{}, err
	}
	if op != ws.OpBinary {
		return Message{}, fmt.Errorf("%w: unexpected opcode %v", ErrMalformedFrame, op)
	}
	if len(payload) > MaxFrameSize {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	return Decode(payload)
}

func (c *wsConn) WriteMessage(m Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wsutil.WriteMessage(c.conn, c.state, ws.OpBinary, Encode(m))
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
