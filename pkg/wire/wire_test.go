package wire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.WriteUint8(0x42)
	w.WriteBool(true)
	w.WriteUint16(1234)
	w.WriteUint32(567890)
	w.WriteFloat32(3.5)
	w.WriteString("hello")

	r := NewReader(w.Bytes())

	if b, err := r.ReadUint8(); err != nil || b != 0x42 {
		t.Fatalf("ReadUint8 = %v, %v", b, err)
	}
	if b, err := r.ReadBool(); err != nil || b != true {
		t.Fatalf("ReadBool = %v, %v", b, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 1234 {
		t.Fatalf("ReadUint16 = %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 567890 {
		t.Fatalf("ReadUint32 = %v, %v", v, err)
	}
	if f, err := r.ReadFloat32(); err != nil || f != 3.5 {
		t.Fatalf("ReadFloat32 = %v, %v", f, err)
	}
	if s, err := r.ReadString(); err != nil || s != "hello" {
		t.Fatalf("ReadString = %q, %v", s, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", r.Remaining())
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUint32(); err != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestReaderStringMissingTerminator(t *testing.T) {
	r := NewReader([]byte("no-nul"))
	if _, err := r.ReadString(); err != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
	if r.Offset() != 0 {
		t.Fatalf("offset should be unchanged on failed read, got %d", r.Offset())
	}
}

func TestWriterRemainingBytes(t *testing.T) {
	w := NewWriter(4)
	if w.RemainingBytes() != 4 {
		t.Fatalf("expected 4 remaining, got %d", w.RemainingBytes())
	}
	w.WriteUint16(1)
	if w.RemainingBytes() != 2 {
		t.Fatalf("expected 2 remaining, got %d", w.RemainingBytes())
	}
}

func TestRoundTripTable(t *testing.T) {
	cases := []uint32{0, 1, 255, 65535, 1 << 20, 0xFFFFFFFF}
	for _, v := range cases {
		w := NewWriter(4)
		w.WriteUint32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadUint32()
		if err != nil || got != v {
			t.Errorf("uint32 round-trip failed for %d: got %d, err %v", v, got, err)
		}
	}
}
