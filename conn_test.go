package chatwire

import (
	"encoding/binary"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConns(t *testing.T) (Conn, Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca, cb := NewConn(a), NewConn(b)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

// pipeRaw returns a framed server end and the raw client end, for
// tests that need to write bytes below the codec.
func pipeRaw(t *testing.T) (Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca := NewConn(a)
	t.Cleanup(func() {
		ca.Close()
		b.Close()
	})
	return ca, b
}

func TestNetConnReadWrite(t *testing.T) {
	server, client := pipeConns(t)

	want := Message{Type: PublicMessage, Timestamp: 12345, Sender: "alice", Content: "hi"}
	go func() {
		server.WriteMessage(want)
	}()

	got, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNetConnReadRejectsBadPrefix(t *testing.T) {
	t.Run("zero length", func(t *testing.T) {
		a, b := net.Pipe()
		defer a.Close()
		conn := NewConn(b)
		defer conn.Close()

		go func() {
			var hdr [4]byte
			a.Write(hdr[:]) // length prefix 0
		}()

		_, err := conn.ReadMessage()
		require.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("oversized length", func(t *testing.T) {
		a, b := net.Pipe()
		defer a.Close()
		conn := NewConn(b)
		defer conn.Close()

		go func() {
			var hdr [4]byte
			binary.BigEndian.PutUint32(hdr[:], MaxFrameSize+1)
			a.Write(hdr[:])
		}()

		_, err := conn.ReadMessage()
		require.ErrorIs(t, err, ErrFrameTooLarge)
	})
}

func TestNetConnReadDisconnect(t *testing.T) {
	a, b := net.Pipe()
	conn := NewConn(b)
	defer conn.Close()

	a.Close()
	_, err := conn.ReadMessage()
	require.Error(t, err)
}

// Concurrent writers on one conn must never interleave partial frames.
func TestNetConnConcurrentWrites(t *testing.T) {
	server, client := pipeConns(t)

	const writers = 8
	const perWriter = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				server.WriteMessage(Message{Type: PublicMessage, Sender: "w", Content: "payload"})
			}
		}()
	}

	for i := 0; i < writers*perWriter; i++ {
		m, err := client.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "payload", m.Content)
	}
	wg.Wait()
}

func TestNetConnCloseIdempotent(t *testing.T) {
	_, client := pipeConns(t)
	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}
