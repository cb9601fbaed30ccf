package chatwire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
)

// Conn is one client link able to carry framed messages both ways.
// WriteMessage must be safe for concurrent use: the router writes to a
// conn from other sessions' goroutines while the owning session writes
// its own replies.
type Conn interface {
	// ReadMessage blocks until a full frame arrives. It returns an error
	// on disconnect, on a malformed frame, or on an oversized frame;
	// callers treat all three identically.
	ReadMessage() (Message, error)
	// WriteMessage sends one frame. Delivery is best-effort.
	WriteMessage(Message) error
	Close() error
	RemoteAddr() net.Addr
}

// netConn frames messages over a raw byte stream with a 4-byte
// big-endian length prefix in front of each encoded payload.
type netConn struct {
	conn net.Conn
	br   *bufio.Reader

	wmu       sync.Mutex // serializes whole frames onto the wire
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps a stream connection in the framed protocol.
func NewConn(c net.Conn) Conn {
	return &netConn{conn: c, br: bufio.NewReader(c)}
}

// Dial connects to a chat server and returns the framed connection.
func Dial(addr string) (Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(c), nil
}

func (c *netConn) ReadMessage() (Message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(c.br, hdr[:]); err != nil {
		return Message{}, err
	}
	n := int32(binary.BigEndian.Uint32(hdr[:]))
	if n <= 0 {
		return Message{}, fmt.Errorf("%w: length prefix %d", ErrMalformedFrame, n)
	}
	if n > MaxFrameSize {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.br, payload); err != nil {
		return Message{}, err
	}
	return Decode(payload)
}

func (c *netConn) WriteMessage(m Message) error {
	payload := Encode(m)
	frame := make([]byte, 0, 4+len(payload))
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(frame)
	return err
}

func (c *netConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *netConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
