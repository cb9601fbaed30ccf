package chatwire

import "time"

// MessageType determines routing policy on the server and rendering on
// the client. The numeric values are part of the wire protocol: they are
// the codes written into every frame, so the declaration order is fixed.
type MessageType int32

const (
	PublicMessage MessageType = iota
	PrivateMessage
	SystemAnnouncement
	UserJoined
	UserLeft
	UserListRequest
	UserListResponse
	CommandResponse
)

func (t MessageType) String() string {
	switch t {
	case PublicMessage:
		return "PublicMessage"
	case PrivateMessage:
		return "PrivateMessage"
	case SystemAnnouncement:
		return "SystemAnnouncement"
	case UserJoined:
		return "UserJoined"
	case UserLeft:
		return "UserLeft"
	case UserListRequest:
		return "UserListRequest"
	case UserListResponse:
		return "UserListResponse"
	case CommandResponse:
		return "CommandResponse"
	default:
		return "Unknown"
	}
}

// Command strings carried in CommandResponse content. These are matched
// verbatim by clients, so they must never change spelling.
const (
	CmdEnterUsername    = "ENTER_USERNAME"
	CmdUsernameAccepted = "USERNAME_ACCEPTED"
	CmdUsernameTaken    = "USERNAME_TAKEN"
	CmdAuthFailed       = "AUTH_FAILED"
	CmdBye              = "BYE"
	CmdGoodbye          = "GOODBYE"
	CmdUnknown          = "UNKNOWN_COMMAND"

	// UserNotFoundPrefix is followed by the unresolved target username.
	UserNotFoundPrefix = "USER_NOT_FOUND:"
)

// ServerName is the sender username on every server-originated message.
const ServerName = "Server"

// Message is the unit of wire transmission and internal routing. It is a
// transient value: no identity beyond its fields, never persisted.
type Message struct {
	Type      MessageType
	Timestamp int64 // epoch milliseconds; zero means "server, fill it in"
	Sender    string
	Target    string // only set on directed messages
	Content   string
}

// User is one authenticated, currently connected client. The registry
// owns the authoritative copy; sessions hold a read-only value.
type User struct {
	ID       string
	Username string
	JoinedAt int64
}

// LogEntry is the flattened projection of a Message written to the chat
// history sink. Derived only, never read back.
type LogEntry struct {
	Timestamp int64
	EventType MessageType
	Actor     string
	Target    string
	Content   string
}

// EntryFromMessage flattens a message into its log projection.
func EntryFromMessage(m Message) LogEntry {
	return LogEntry{
		Timestamp: m.Timestamp,
		EventType: m.Type,
		Actor:     m.Sender,
		Target:    m.Target,
		Content:   m.Content,
	}
}

func serverCommand(content string) Message {
	return Message{
		Type:      CommandResponse,
		Timestamp: nowMillis(),
		Sender:    ServerName,
		Content:   content,
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
