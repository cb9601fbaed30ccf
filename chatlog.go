package chatwire

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// ChatLog is the append-only chat history sink. One formatted line per
// event:
//
//	timestamp | type code | actor | target | content
//
// The log is write-only for the engine; nothing reads it back. Open or
// write failures are reported through the diagnostic logger and
// otherwise swallowed, so a broken sink never takes down a session.
type ChatLog struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	slogger *slog.Logger
}

// OpenChatLog opens (creating if absent) the history file in append
// mode. On failure it still returns a usable ChatLog whose writes are
// reported and discarded.
func OpenChatLog(path string, slogger *slog.Logger) *ChatLog {
	if slogger == nil {
		slogger = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slogger.Error("could not open chat log", "path", path, "err", err)
		f = nil
	}
	return &ChatLog{f: f, path: path, slogger: slogger}
}

// Write appends one entry.
func (l *ChatLog) Write(e LogEntry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		l.slogger.Warn("chat log unavailable", "path", l.path)
		return
	}
	line := fmt.Sprintf("%d | %d | %s | %s | %s\n",
		e.Timestamp, int32(e.EventType), e.Actor, e.Target, e.Content)
	if _, err := l.f.WriteString(line); err != nil {
		l.slogger.Error("could not write to chat log", "path", l.path, "err", err)
	}
}

// LogMessage records a message's flattened projection.
func (l *ChatLog) LogMessage(m Message) {
	l.Write(EntryFromMessage(m))
}

// LogSystem records a server-originated system event.
func (l *ChatLog) LogSystem(text string) {
	l.Write(LogEntry{
		Timestamp: nowMillis(),
		EventType: SystemAnnouncement,
		Actor:     ServerName,
		Content:   text,
	})
}

func (l *ChatLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
