package chatwire

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatLogWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.log")
	l := OpenChatLog(path, slog.Default())

	l.Write(LogEntry{
		Timestamp: 1700000000123,
		EventType: PrivateMessage,
		Actor:     "alice",
		Target:    "bob",
		Content:   "psst",
	})
	l.LogMessage(Message{Type: PublicMessage, Timestamp: 7, Sender: "bob", Content: "hi all"})
	l.LogSystem("Server started")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, fmt.Sprintf("1700000000123 | %d | alice | bob | psst", int32(PrivateMessage)), lines[0])
	assert.Equal(t, fmt.Sprintf("7 | %d | bob |  | hi all", int32(PublicMessage)), lines[1])
	assert.Contains(t, lines[2], "| Server |  | Server started")
}

func TestChatLogAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.log")

	first := OpenChatLog(path, slog.Default())
	first.LogSystem("one")
	require.NoError(t, first.Close())

	second := OpenChatLog(path, slog.Default())
	second.LogSystem("two")
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "one")
	assert.Contains(t, string(data), "two")
}

func TestChatLogOpenFailureIsNonFatal(t *testing.T) {
	// A directory that does not exist cannot be opened; writes must be
	// swallowed, not panic, and Close must still work.
	l := OpenChatLog(filepath.Join(t.TempDir(), "missing", "history.log"), slog.Default())
	require.NotNil(t, l)
	l.LogSystem("dropped")
	l.LogMessage(Message{Type: PublicMessage, Sender: "alice"})
	assert.NoError(t, l.Close())
}

func TestChatLogNilReceiver(t *testing.T) {
	var l *ChatLog
	l.Write(LogEntry{})
	l.LogSystem("ignored")
	assert.NoError(t, l.Close())
}
