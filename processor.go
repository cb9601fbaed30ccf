package chatwire

import (
	"log/slog"
	"strings"
)

// Verdict tells the owning session what to do after a message has been
// processed.
type Verdict int

const (
	Continue Verdict = iota
	Disconnect
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "Continue"
	case Disconnect:
		return "Disconnect"
	default:
		return "Unknown"
	}
}

// Processor dispatches one inbound message to the router or registry.
// It holds no state of its own beyond its collaborators.
type Processor struct {
	reg     *Registry
	router  *Router
	history *ChatLog
	slogger *slog.Logger
}

func NewProcessor(reg *Registry, router *Router, history *ChatLog, slogger *slog.Logger) *Processor {
	if slogger == nil {
		slogger = slog.Default()
	}
	return &Processor{reg: reg, router: router, history: history, slogger: slogger}
}

// Process handles m on behalf of the session owning conn. The sender
// and timestamp fields are expected to be stamped already.
func (p *Processor) Process(m Message, conn Conn) Verdict {
	sl := p.slogger.With("func", "processor.Process")
	switch {
	case m.Type == UserListRequest:
		resp := Message{
			Type:      UserListResponse,
			Timestamp: nowMillis(),
			Sender:    ServerName,
			Content:   strings.Join(p.reg.Usernames(), ","),
		}
		if err := conn.WriteMessage(resp); err != nil {
			sl.Debug("dropped user list response", "err", err)
		}
		p.history.LogMessage(resp)
		return Continue

	case m.Type == PrivateMessage:
		p.router.SendPrivate(m)
		p.history.LogMessage(m)
		return Continue

	case m.Type == PublicMessage:
		p.router.BroadcastPublic(m)
		p.history.LogMessage(m)
		return Continue

	case m.Type == CommandResponse && m.Content == CmdBye:
		if err := conn.WriteMessage(serverCommand(CmdGoodbye)); err != nil {
			sl.Debug("dropped goodbye", "err", err)
		}
		return Disconnect

	default:
		sl.Debug("unknown command", "type", m.Type, "sender", m.Sender)
		if err := conn.WriteMessage(serverCommand(CmdUnknown)); err != nil {
			sl.Debug("dropped unknown-command reply", "err", err)
		}
		return Continue
	}
}
