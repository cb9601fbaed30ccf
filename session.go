package chatwire

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// defaultAuthRetries is the total number of username attempts before
// the handshake gives up with AUTH_FAILED.
const defaultAuthRetries = 3

// Session owns exactly one connection for its whole lifecycle:
// authentication handshake, active read loop, teardown. Nothing else
// reads from the conn; other goroutines write to it only through the
// router, which is safe because conn writes are serialized internally.
type Session struct {
	id   string
	conn Conn

	reg     *Registry
	router  *Router
	proc    *Processor
	history *ChatLog

	authRetries int
	slogger     *slog.Logger
}

func NewSession(conn Conn, reg *Registry, router *Router, proc *Processor, history *ChatLog, authRetries int, slogger *slog.Logger) *Session {
	if authRetries <= 0 {
		authRetries = defaultAuthRetries
	}
	if slogger == nil {
		slogger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:          id,
		conn:        conn,
		reg:         reg,
		router:      router,
		proc:        proc,
		history:     history,
		authRetries: authRetries,
		slogger:     slogger.With("session", id),
	}
}

// ID returns the opaque per-connection identifier.
func (s *Session) ID() string {
	return s.id
}

// Run drives the session to completion and always closes the conn. It
// is the goroutine entry point for one accepted connection.
func (s *Session) Run() {
	sl := s.slogger.With("func", "session.Run")
	defer s.conn.Close()

	user, ok := s.authenticate()
	if !ok {
		// Nothing was registered, so there is nothing to broadcast.
		sl.Debug("handshake failed")
		return
	}
	sl.Info("user joined", "username", user.Username, "remote", s.conn.RemoteAddr())

	join := Message{
		Type:      UserJoined,
		Timestamp: nowMillis(),
		Sender:    user.Username,
		Content:   fmt.Sprintf("%s joined", user.Username),
	}
	s.router.BroadcastPublic(join)
	s.history.LogMessage(join)

	s.loop(user)

	// Teardown runs on every loop exit: disconnect, bye, or shutdown.
	s.reg.Remove(user.Username)
	left := Message{
		Type:      UserLeft,
		Timestamp: nowMillis(),
		Sender:    user.Username,
		Content:   fmt.Sprintf("%s left", user.Username),
	}
	s.router.BroadcastPublic(left)
	s.history.LogMessage(left)
	sl.Info("user left", "username", user.Username)
}

// authenticate runs the username handshake. On success the user is
// already registered. Registration happens through the registry's
// atomic insert, so a race between two sessions proposing the same
// name resolves to exactly one winner.
func (s *Session) authenticate() (User, bool) {
	sl := s.slogger.With("func", "session.authenticate")
	for attempt := 0; attempt < s.authRetries; attempt++ {
		if err := s.conn.WriteMessage(serverCommand(CmdEnterUsername)); err != nil {
			return User{}, false
		}
		reply, err := s.conn.ReadMessage()
		if err != nil {
			sl.Debug("handshake read failed", "err", err)
			return User{}, false
		}

		username := reply.Content
		user := User{
			ID:       s.id,
			Username: username,
			JoinedAt: nowMillis(),
		}
		if username != "" && s.reg.Add(user, s.conn) {
			if err := s.conn.WriteMessage(serverCommand(CmdUsernameAccepted)); err != nil {
				// The peer vanished between registration and the ack;
				// undo so no dangling entry survives this session.
				s.reg.Remove(username)
				return User{}, false
			}
			return user, true
		}

		sl.Debug("username rejected", "username", username, "attempt", attempt+1)
		if err := s.conn.WriteMessage(serverCommand(CmdUsernameTaken)); err != nil {
			return User{}, false
		}
	}
	s.conn.WriteMessage(serverCommand(CmdAuthFailed))
	return User{}, false
}

// loop reads and dispatches until the transport fails or the processor
// orders a disconnect.
func (s *Session) loop(user User) {
	sl := s.slogger.With("func", "session.loop", "username", user.Username)
	for {
		m, err := s.conn.ReadMessage()
		if err != nil {
			sl.Debug("read loop ended", "err", err)
			return
		}

		// The server, not the client, is authoritative for identity.
		m.Sender = user.Username
		if m.Timestamp == 0 {
			m.Timestamp = nowMillis()
		}

		if s.proc.Process(m, s.conn) == Disconnect {
			sl.Debug("processor ordered disconnect")
			return
		}
	}
}
