package protocol

import (
	"encoding/binary"

	"tanknet/pkg/wire"
)

// TcpPacket is one length-prefixed logical packet read from, or destined
// for, a TCP stream.
type TcpPacket struct {
	Payload  []byte
	SenderID uint16
}

// UdpPacket is one datagram's worth of payload (minus the 4-byte network
// time header, which callers decode separately via DecodeUDPHeader), plus
// the member id it was attributed to.
type UdpPacket struct {
	NetworkTime float32
	Payload     []byte
	SenderID    uint16
}

// EncodeTCPFrame wraps payload with its 2-byte big-endian length prefix.
func EncodeTCPFrame(payload []byte) []byte {
	out := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	copy(out[2:], payload)
	return out
}

// TCPFrameReader incrementally reassembles length-prefixed packets from a
// byte stream that may deliver partial reads, one read() at a time.
type TCPFrameReader struct {
	pending []byte
}

// Feed appends newly read bytes to the partial-packet buffer.
func (f *TCPFrameReader) Feed(data []byte) {
	f.pending = append(f.pending, data...)
}

// Next extracts one complete framed packet if the buffer holds one,
// draining it from the pending buffer. Call it in a loop: a single Feed
// may complete more than one packet.
func (f *TCPFrameReader) Next() ([]byte, bool) {
	if len(f.pending) < 2 {
		return nil, false
	}
	length := binary.BigEndian.Uint16(f.pending[:2])
	if len(f.pending) < 2+int(length) {
		return nil, false
	}
	payload := make([]byte, length)
	copy(payload, f.pending[2:2+int(length)])
	f.pending = f.pending[2+int(length):]
	return payload, true
}

// EncodeUDPHeader returns the 4-byte "network time at send" header that
// prefixes every outgoing datagram.
func EncodeUDPHeader(networkTime float32) []byte {
	w := wire.NewWriter(4)
	w.WriteFloat32(networkTime)
	return w.Bytes()
}

// DecodeUDPHeader reads the leading network-time header and returns the
// remaining message-stream bytes.
func DecodeUDPHeader(datagram []byte) (networkTime float32, body []byte, err error) {
	r := wire.NewReader(datagram)
	networkTime, err = r.ReadFloat32()
	if err != nil {
		return 0, nil, err
	}
	return networkTime, r.Rest(), nil
}

// MessageStream reads a sequence of tag||body records out of one packet's
// payload. Decoding the body for a given tag is the caller's
// responsibility, done against the same *wire.Reader so offsets stay in
// sync.
type MessageStream struct {
	R    *wire.Reader
	done bool
}

// NewMessageStream wraps payload for tag-by-tag consumption.
func NewMessageStream(payload []byte) *MessageStream {
	return &MessageStream{R: wire.NewReader(payload)}
}

// NextTag reads the next message's tag. It returns ok=false once it hits
// the NO_MESSAGE sentinel or runs out of buffer — both terminate the
// stream per spec.
func (s *MessageStream) NextTag() (Tag, bool) {
	if s.done || s.R.Remaining() == 0 {
		return NoMessage, false
	}
	b, err := s.R.ReadUint8()
	if err != nil || Tag(b) == NoMessage {
		s.done = true
		return NoMessage, false
	}
	return Tag(b), true
}
