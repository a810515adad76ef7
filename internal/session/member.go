// Package session holds the roster of peers taking part in one game
// session: the local member's own id, every known member's address, and
// the join/leave observer dispatch described in the teacher's event
// manager, generalized from a global event bus to one observer list per
// roster.
package session

import (
	"net"

	"tanknet/internal/protocol"
)

// Member is one roster entry: its session-assigned id, its UDP
// endpoint, and whether it can receive multicast traffic.
type Member struct {
	ID        uint16
	IP        net.IP
	Port      uint16
	Multicast bool
}

// Info converts Member to its wire shape.
func (m Member) Info() protocol.MemberInfo {
	return protocol.MemberInfo{
		IP:        protocol.IPv4ToUint32(m.IP),
		Port:      m.Port,
		ID:        m.ID,
		Multicast: m.Multicast,
	}
}

// MemberFromInfo is the inverse of Info.
func MemberFromInfo(i protocol.MemberInfo) Member {
	return Member{
		ID:        i.ID,
		IP:        protocol.Uint32ToIPv4(i.IP),
		Port:      i.Port,
		Multicast: i.Multicast,
	}
}
