// Package wire implements the fixed-endianness binary codec shared by the
// TCP and UDP transports: big-endian fixed-width integers, boolean-as-byte,
// IEEE-754 32-bit floats in native host byte order, and null-terminated
// strings.
package wire

import (
	"encoding/binary"
	"math"
)

// Writer is a capacity-bounded, append-only byte buffer writer. Callers
// must check RemainingBytes before appending a message; Writer itself never
// grows past the capacity it was constructed with by silently truncating —
// callers that overflow it get a slice past the declared capacity, which is
// why every caller in this module checks size first.
type Writer struct {
	buf []byte
	cap int
}

// NewWriter returns a Writer whose backing buffer is reserved for capacity
// bytes. RemainingBytes reports space against that capacity, not len(buf).
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity), cap: capacity}
}

// RemainingBytes returns how many more bytes can be written before
// exceeding the writer's declared capacity.
func (w *Writer) RemainingBytes() int {
	return w.cap - len(w.buf)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written bytes. The slice aliases the writer's internal
// buffer and must not be retained across further writes.
func (w *Writer) Bytes() []byte { return w.buf }

// Reset discards all written bytes, keeping the same capacity.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

func (w *Writer) WriteUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteFloat32 writes f in native host byte order rather than a fixed wire
// order — a documented, intentional bug-for-bug carry-over from the
// original implementation (see DESIGN.md). All supported build targets are
// little-endian, so that's what's used here; this is not portable to a
// big-endian host and is not meant to be.
func (w *Writer) WriteFloat32(f float32) {
	bits := math.Float32bits(f)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], bits)
	w.buf = append(w.buf, b[:]...)
}

// WriteString writes s followed by a single NUL terminator.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Sizer is implemented by built-in message bodies so callers can check
// RequiredBytes before attempting to append.
type Sizer interface {
	WireSize() int
}

// RequiredBytes reports how many bytes msg needs to serialize.
func RequiredBytes(msg Sizer) int { return msg.WireSize() }

// SizeString returns the wire size of a null-terminated string.
func SizeString(s string) int { return len(s) + 1 }
