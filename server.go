package chatwire

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
)

// DefaultAddr is the listening endpoint used when Options.Addr is empty.
const DefaultAddr = ":12345"

// DefaultChatLogFile is the history sink used when Options.ChatLogFile
// is empty.
const DefaultChatLogFile = "chat_history.log"

// Options configures a Server. Zero values select the defaults.
type Options struct {
	// Addr is the TCP listening endpoint.
	Addr string
	// ChatLogFile is the path of the append-only history log.
	ChatLogFile string
	// AuthRetries overrides how many username attempts are allowed.
	AuthRetries int

	Slogger *slog.Logger
}

// Server ties the engine together: it owns the registry, router,
// processor and history sink, accepts connections and runs one session
// goroutine per client.
type Server struct {
	opts Options

	reg     *Registry
	router  *Router
	proc    *Processor
	history *ChatLog

	ln      net.Listener
	Slogger *slog.Logger
}

func NewServer(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.ChatLogFile == "" {
		opts.ChatLogFile = DefaultChatLogFile
	}
	slogger := opts.Slogger
	if slogger == nil {
		slogger = slog.Default()
	}

	reg := NewRegistry()
	history := OpenChatLog(opts.ChatLogFile, slogger)
	router := NewRouter(reg, slogger)
	proc := NewProcessor(reg, router, history, slogger)

	return &Server{
		opts:    opts,
		reg:     reg,
		router:  router,
		proc:    proc,
		history: history,
		Slogger: slogger,
	}
}

// Registry exposes the user registry, mainly for introspection.
func (s *Server) Registry() *Registry {
	return s.reg
}

// ListenAndServe binds the TCP endpoint and runs the accept loop. It
// only returns once the listener is closed (see Shutdown) or fails to
// bind.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve runs the accept loop on ln. Accept failures are logged and the
// loop keeps going; only a closed listener ends it.
func (s *Server) Serve(ln net.Listener) error {
	s.ln = ln
	sl := s.Slogger.With("func", "server.Serve")
	sl.Info("listening", "addr", ln.Addr())
	s.Announce("Welcome to the chat room!")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				sl.Info("listener closed")
				return nil
			}
			sl.Error("accept failed", "err", err)
			s.history.LogSystem("Accept failed")
			continue
		}
		sl.Debug("accepted", "remote", conn.RemoteAddr())
		go s.serveConn(NewConn(conn))
	}
}

func (s *Server) serveConn(conn Conn) {
	NewSession(conn, s.reg, s.router, s.proc, s.history, s.opts.AuthRetries, s.Slogger).Run()
}

// Announce broadcasts a system announcement from the server to every
// registered connection and records it in the history log.
func (s *Server) Announce(text string) {
	m := Message{
		Type:      SystemAnnouncement,
		Timestamp: nowMillis(),
		Sender:    ServerName,
		Content:   text,
	}
	s.router.BroadcastPublic(m)
	s.history.LogMessage(m)
}

// ShutdownAll announces the shutdown and closes every registered
// connection. Registry entries are left in place: the process is on its
// way out and each session's own teardown still runs as its read loop
// fails.
func (s *Server) ShutdownAll() {
	s.Announce("Server is shutting down")
	s.reg.ForEachConn(func(c Conn) {
		c.Close()
	})
	s.history.LogSystem("Server shutdown broadcasted")
}

// Shutdown stops the accept loop, disconnects everyone and releases the
// history sink.
func (s *Server) Shutdown() {
	if s.ln != nil {
		s.ln.Close()
	}
	s.ShutdownAll()
	s.history.Close()
}

// WSHandler upgrades an HTTP request to a websocket and runs the
// standard session lifecycle on it. Websocket and TCP clients share the
// registry, so they see each other.
func (s *Server) WSHandler() http.HandlerFunc {
	sl := s.Slogger.With("func", "server.WSHandler")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			sl.Error("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		sl.Debug("websocket accepted", "remote", conn.RemoteAddr())
		go s.serveConn(NewWSConn(conn))
	}
}

// HTTPHandler mounts the websocket endpoint and a health probe.
func (s *Server) HTTPHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Get("/ws", s.WSHandler())
	return mux
}
