package chatwire

import "log/slog"

// Router delivers messages to registered connections. Delivery is
// fire-and-forget: a failed write is logged and skipped, it neither
// aborts delivery to other peers nor surfaces to the caller.
type Router struct {
	reg     *Registry
	slogger *slog.Logger
}

func NewRouter(reg *Registry, slogger *slog.Logger) *Router {
	if slogger == nil {
		slogger = slog.Default()
	}
	return &Router{reg: reg, slogger: slogger}
}

// BroadcastPublic delivers m to every registered connection, including
// the sender's own. The echo is intentional: the sender sees its public
// messages through the same path as everyone else.
func (rt *Router) BroadcastPublic(m Message) {
	sl := rt.slogger.With("func", "router.BroadcastPublic")
	rt.reg.ForEachConn(func(c Conn) {
		if err := c.WriteMessage(m); err != nil {
			sl.Debug("dropped send", "type", m.Type, "err", err)
		}
	})
}

// SendPrivate delivers m to its target. An unresolvable target bounces
// a USER_NOT_FOUND command back to the sender; if the sender has also
// gone, the notification is dropped.
func (rt *Router) SendPrivate(m Message) {
	sl := rt.slogger.With("func", "router.SendPrivate")
	if target, ok := rt.reg.Conn(m.Target); ok {
		if err := target.WriteMessage(m); err != nil {
			sl.Debug("dropped private send", "target", m.Target, "err", err)
		}
		return
	}

	sl.Debug("target not found", "target", m.Target, "sender", m.Sender)
	notify := serverCommand(UserNotFoundPrefix + m.Target)
	sender, ok := rt.reg.Conn(m.Sender)
	if !ok {
		return
	}
	if err := sender.WriteMessage(notify); err != nil {
		sl.Debug("dropped bounce", "sender", m.Sender, "err", err)
	}
}
