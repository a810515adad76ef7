package protocol

import (
	"testing"

	"tanknet/pkg/wire"
)

func TestSessionRequestRoundTrip(t *testing.T) {
	req := SessionRequest{IP: 0x7F000001, UDPPort: 7000, Password: "hunter2", Multicast: true}
	w := wire.NewWriter(req.WireSize() + 1)
	req.Encode(w)

	r := wire.NewReader(w.Bytes())
	tag, err := r.ReadUint8()
	if err != nil || Tag(tag) != TagSessionRequest {
		t.Fatalf("expected TagSessionRequest, got %v err=%v", tag, err)
	}
	got, err := DecodeSessionRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != req {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, req)
	}
}

func TestSessionPositiveResponseRoundTrip(t *testing.T) {
	resp := SessionPositiveResponse{
		AssignedID: 1,
		MaxClients: 4,
		Password:   "",
		StartTime:  12.5,
		Members: []MemberInfo{
			{IP: 1, Port: 1, ID: 0, Multicast: false},
			{IP: 2, Port: 2, ID: 1, Multicast: true},
		},
	}
	w := wire.NewWriter(resp.WireSize() + 1)
	resp.Encode(w)

	r := wire.NewReader(w.Bytes())
	tag, _ := r.ReadUint8()
	if Tag(tag) != TagSessionPositiveResponse {
		t.Fatalf("wrong tag %v", tag)
	}
	got, err := DecodeSessionPositiveResponse(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got.Members) != 2 || got.Members[1].ID != 1 {
		t.Fatalf("members mismatch: %+v", got.Members)
	}
}

func TestMessageStreamStopsAtNoMessage(t *testing.T) {
	w := wire.NewWriter(32)
	ack := AckMessage{AckNumber: 7}
	ack.Encode(w, TagAckRequest)
	w.WriteUint8(uint8(NoMessage))
	w.WriteUint8(uint8(TagAckResponse)) // should never be reached

	ms := NewMessageStream(w.Bytes())
	tag, ok := ms.NextTag()
	if !ok || tag != TagAckRequest {
		t.Fatalf("expected TagAckRequest, got %v ok=%v", tag, ok)
	}
	if _, err := DecodeAckMessage(ms.R); err != nil {
		t.Fatalf("decode ack failed: %v", err)
	}
	if _, ok := ms.NextTag(); ok {
		t.Fatal("expected stream to stop at NO_MESSAGE")
	}
}

func TestMessageStreamStopsAtBufferEnd(t *testing.T) {
	ms := NewMessageStream(nil)
	if _, ok := ms.NextTag(); ok {
		t.Fatal("expected empty stream to report no tag")
	}
}

func TestTCPFrameReaderPartialReads(t *testing.T) {
	var fr TCPFrameReader
	payload := []byte{uint8(TagAckRequest), 0x00, 0x09}
	framed := EncodeTCPFrame(payload)

	// Deliver the frame split across two partial reads.
	fr.Feed(framed[:3])
	if _, ok := fr.Next(); ok {
		t.Fatal("should not have a complete frame yet")
	}
	fr.Feed(framed[3:])
	got, ok := fr.Next()
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if len(got) != len(payload) || got[0] != payload[0] {
		t.Fatalf("frame mismatch: got %v want %v", got, payload)
	}
}

func TestTCPFrameReaderMultiplePackets(t *testing.T) {
	var fr TCPFrameReader
	a := EncodeTCPFrame([]byte{1, 2, 3})
	b := EncodeTCPFrame([]byte{4, 5})
	fr.Feed(append(append([]byte{}, a...), b...))

	first, ok := fr.Next()
	if !ok || len(first) != 3 {
		t.Fatalf("expected first frame of 3 bytes, got %v ok=%v", first, ok)
	}
	second, ok := fr.Next()
	if !ok || len(second) != 2 {
		t.Fatalf("expected second frame of 2 bytes, got %v ok=%v", second, ok)
	}
}

func TestUDPHeaderRoundTrip(t *testing.T) {
	raw := EncodeUDPHeader(123.5)
	raw = append(raw, uint8(TagAckRequest))
	nt, body, err := DecodeUDPHeader(raw)
	if err != nil {
		t.Fatalf("decode header failed: %v", err)
	}
	if nt != 123.5 {
		t.Fatalf("expected 123.5, got %v", nt)
	}
	if len(body) != 1 || body[0] != uint8(TagAckRequest) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestIPv4ConversionRoundTrip(t *testing.T) {
	ip := Uint32ToIPv4(0x01020304)
	back := IPv4ToUint32(ip)
	if back != 0x01020304 {
		t.Fatalf("expected 0x01020304, got 0x%08X", back)
	}
}
