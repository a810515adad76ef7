package protocol

import (
	"encoding/binary"
	"net"

	"tanknet/pkg/wire"
)

// MemberInfo is the wire shape of one roster entry, embedded in
// SessionPositiveResponse and carried whole by SessionNewMember.
type MemberInfo struct {
	IP        uint32
	Port      uint16
	ID        uint16
	Multicast bool
}

// WireSize returns the number of bytes MemberInfo occupies on the wire.
func (MemberInfo) WireSize() int { return 4 + 2 + 2 + 1 }

func writeMemberInfo(w *wire.Writer, m MemberInfo) {
	w.WriteUint32(m.IP)
	w.WriteUint16(m.Port)
	w.WriteUint16(m.ID)
	w.WriteBool(m.Multicast)
}

func readMemberInfo(r *wire.Reader) (MemberInfo, error) {
	var m MemberInfo
	var err error
	if m.IP, err = r.ReadUint32(); err != nil {
		return m, err
	}
	if m.Port, err = r.ReadUint16(); err != nil {
		return m, err
	}
	if m.ID, err = r.ReadUint16(); err != nil {
		return m, err
	}
	if m.Multicast, err = r.ReadBool(); err != nil {
		return m, err
	}
	return m, nil
}

// IPv4ToUint32 converts a net.IP (or nil) to its big-endian uint32 wire
// representation. Non-IPv4 addresses convert to 0 — IPv6 is out of scope.
func IPv4ToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(ip4)
}

// Uint32ToIPv4 is the inverse of IPv4ToUint32.
func Uint32ToIPv4(v uint32) net.IP {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// SessionRequest is sent once by a client immediately after its TCP
// connection becomes writable: u32 ip; u16 udpPort; cstring password; bool
// multicast.
type SessionRequest struct {
	IP          uint32
	UDPPort     uint16
	Password    string
	Multicast   bool
}

func (m SessionRequest) WireSize() int {
	return 4 + 2 + wire.SizeString(m.Password) + 1
}

func (m SessionRequest) Encode(w *wire.Writer) {
	w.WriteUint8(uint8(TagSessionRequest))
	w.WriteUint32(m.IP)
	w.WriteUint16(m.UDPPort)
	w.WriteString(m.Password)
	w.WriteBool(m.Multicast)
}

func DecodeSessionRequest(r *wire.Reader) (SessionRequest, error) {
	var m SessionRequest
	var err error
	if m.IP, err = r.ReadUint32(); err != nil {
		return m, err
	}
	if m.UDPPort, err = r.ReadUint16(); err != nil {
		return m, err
	}
	if m.Password, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Multicast, err = r.ReadBool(); err != nil {
		return m, err
	}
	return m, nil
}

// SessionPositiveResponse is the server's acceptance reply: u16 assignedId;
// u16 maxClients; cstring password; f32 startTime; u16 memberCount;
// memberCount x MemberInfo.
type SessionPositiveResponse struct {
	AssignedID uint16
	MaxClients uint16
	Password   string
	StartTime  float32
	Members    []MemberInfo
}

func (m SessionPositiveResponse) WireSize() int {
	size := 2 + 2 + wire.SizeString(m.Password) + 4 + 2
	size += len(m.Members) * MemberInfo{}.WireSize()
	return size
}

func (m SessionPositiveResponse) Encode(w *wire.Writer) {
	w.WriteUint8(uint8(TagSessionPositiveResponse))
	w.WriteUint16(m.AssignedID)
	w.WriteUint16(m.MaxClients)
	w.WriteString(m.Password)
	w.WriteFloat32(m.StartTime)
	w.WriteUint16(uint16(len(m.Members)))
	for _, mem := range m.Members {
		writeMemberInfo(w, mem)
	}
}

func DecodeSessionPositiveResponse(r *wire.Reader) (SessionPositiveResponse, error) {
	var m SessionPositiveResponse
	var err error
	if m.AssignedID, err = r.ReadUint16(); err != nil {
		return m, err
	}
	if m.MaxClients, err = r.ReadUint16(); err != nil {
		return m, err
	}
	if m.Password, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.StartTime, err = r.ReadFloat32(); err != nil {
		return m, err
	}
	count, err := r.ReadUint16()
	if err != nil {
		return m, err
	}
	m.Members = make([]MemberInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		mem, err := readMemberInfo(r)
		if err != nil {
			return m, err
		}
		m.Members = append(m.Members, mem)
	}
	return m, nil
}

// SessionNewMember announces one joining member: same shape as MemberInfo.
type SessionNewMember struct {
	Member MemberInfo
}

func (m SessionNewMember) WireSize() int { return m.Member.WireSize() }

func (m SessionNewMember) Encode(w *wire.Writer) {
	w.WriteUint8(uint8(TagSessionNewMember))
	writeMemberInfo(w, m.Member)
}

func DecodeSessionNewMember(r *wire.Reader) (SessionNewMember, error) {
	mem, err := readMemberInfo(r)
	return SessionNewMember{Member: mem}, err
}

// SessionRemoveMember announces a departing member by id.
type SessionRemoveMember struct {
	ID uint16
}

func (m SessionRemoveMember) WireSize() int { return 2 }

func (m SessionRemoveMember) Encode(w *wire.Writer) {
	w.WriteUint8(uint8(TagSessionRemoveMember))
	w.WriteUint16(m.ID)
}

func DecodeSessionRemoveMember(r *wire.Reader) (SessionRemoveMember, error) {
	id, err := r.ReadUint16()
	return SessionRemoveMember{ID: id}, err
}

// EncodeEmptyTCP encodes a bare tag with no body (session-is-full,
// session-wrong-password).
func EncodeEmptyTCP(w *wire.Writer, tag Tag) {
	w.WriteUint8(uint8(tag))
}

// LanServerResponse carries the advertising server's TCP address.
type LanServerResponse struct {
	IP   uint32
	Port uint16
}

func (m LanServerResponse) WireSize() int { return 4 + 2 }

func (m LanServerResponse) Encode(w *wire.Writer) {
	w.WriteUint8(uint8(TagLanServerResponse))
	w.WriteUint32(m.IP)
	w.WriteUint16(m.Port)
}

func DecodeLanServerResponse(r *wire.Reader) (LanServerResponse, error) {
	var m LanServerResponse
	var err error
	if m.IP, err = r.ReadUint32(); err != nil {
		return m, err
	}
	if m.Port, err = r.ReadUint16(); err != nil {
		return m, err
	}
	return m, nil
}

// TimeExchange is the shared shape of time-initial-request and
// time-update-request: f32 clientTime.
type TimeExchange struct {
	ClientTime float32
}

func (m TimeExchange) WireSize() int { return 4 }

func (m TimeExchange) Encode(w *wire.Writer, tag Tag) {
	w.WriteUint8(uint8(tag))
	w.WriteFloat32(m.ClientTime)
}

func DecodeTimeExchange(r *wire.Reader) (TimeExchange, error) {
	ct, err := r.ReadFloat32()
	return TimeExchange{ClientTime: ct}, err
}

// TimeResponse echoes the client's request time along with the server's
// own clock reading: f32 clientTime; f32 serverTime.
type TimeResponse struct {
	ClientTime float32
	ServerTime float32
}

func (m TimeResponse) WireSize() int { return 8 }

func (m TimeResponse) Encode(w *wire.Writer) {
	w.WriteUint8(uint8(TagTimeResponse))
	w.WriteFloat32(m.ClientTime)
	w.WriteFloat32(m.ServerTime)
}

func DecodeTimeResponse(r *wire.Reader) (TimeResponse, error) {
	var m TimeResponse
	var err error
	if m.ClientTime, err = r.ReadFloat32(); err != nil {
		return m, err
	}
	if m.ServerTime, err = r.ReadFloat32(); err != nil {
		return m, err
	}
	return m, nil
}

// AckMessage is the shared shape of ack-request and ack-response: u16
// ackNumber.
type AckMessage struct {
	AckNumber uint16
}

func (m AckMessage) WireSize() int { return 2 }

func (m AckMessage) Encode(w *wire.Writer, tag Tag) {
	w.WriteUint8(uint8(tag))
	w.WriteUint16(m.AckNumber)
}

func DecodeAckMessage(r *wire.Reader) (AckMessage, error) {
	n, err := r.ReadUint16()
	return AckMessage{AckNumber: n}, err
}
