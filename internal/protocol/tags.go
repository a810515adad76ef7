// Package protocol defines the wire-level message tags, bodies, and framing
// shared by the TCP session-management stream and the UDP datagram stream.
package protocol

// Tag identifies the type of one message record inside a UDP datagram or a
// TCP packet's message stream. Tags below MinUserTag are reserved for the
// transport itself; everything at or above MinUserTag is opaque application
// payload handed to the game layer as-is.
type Tag uint8

// NoMessage terminates a message stream early, the same way running out of
// buffer does.
const NoMessage Tag = 0

// Built-in transport tags.
const (
	TagSessionRequest          Tag = 1
	TagSessionPositiveResponse Tag = 2
	TagSessionIsFull           Tag = 3
	TagSessionWrongPassword    Tag = 4
	TagSessionNewMember        Tag = 5
	TagSessionRemoveMember     Tag = 6

	TagLanServerDiscovery Tag = 7
	TagLanServerResponse  Tag = 8

	TagTimeInitialRequest Tag = 9
	TagTimeUpdateRequest  Tag = 10
	TagTimeResponse       Tag = 11

	TagAckRequest  Tag = 12
	TagAckResponse Tag = 13
)

// MinUserTag is the first tag value available to application messages.
const MinUserTag Tag = 32

// IsUser reports whether tag is an application-defined payload rather than
// a built-in transport message.
func (t Tag) IsUser() bool { return t >= MinUserTag }

// String gives a readable name for built-in tags, "no-message" for
// NoMessage, "user" for application tags, and "reserved" for unassigned
// values below MinUserTag — useful in log fields.
func (t Tag) String() string {
	switch t {
	case NoMessage:
		return "no-message"
	case TagSessionRequest:
		return "session-request"
	case TagSessionPositiveResponse:
		return "session-positive-response"
	case TagSessionIsFull:
		return "session-is-full"
	case TagSessionWrongPassword:
		return "session-wrong-password"
	case TagSessionNewMember:
		return "session-new-member"
	case TagSessionRemoveMember:
		return "session-remove-member"
	case TagLanServerDiscovery:
		return "lan-server-discovery"
	case TagLanServerResponse:
		return "lan-server-response"
	case TagTimeInitialRequest:
		return "time-initial-request"
	case TagTimeUpdateRequest:
		return "time-update-request"
	case TagTimeResponse:
		return "time-response"
	case TagAckRequest:
		return "ack-request"
	case TagAckResponse:
		return "ack-response"
	}
	if t.IsUser() {
		return "user"
	}
	return "reserved"
}
