// Package tcp implements the TCP session-management transport: a
// nonblocking stream endpoint with partial-send/partial-read handling,
// length-prefixed framing, and the server-side fan-out queue that lets
// one logical packet be delivered to many receivers.
package tcp

import (
	"errors"
	"net"
	"time"

	"tanknet/internal/protocol"
)

// ErrWouldBlock mirrors udp.ErrWouldBlock for the stream socket: no
// bytes were ready to read, or the write would have blocked.
var ErrWouldBlock = errors.New("tcp: would block")

const pollTimeout = time.Millisecond

// End is one nonblocking TCP endpoint: a nagle-disabled stream socket,
// its incremental frame reader, and any partially-sent packet still in
// flight.
type End struct {
	conn   *net.TCPConn
	frames protocol.TCPFrameReader

	outPending []byte // unsent framed bytes of queued packets, oldest first
	sendDone   bool    // stopSending() half-close issued
}

// NewEnd wraps conn, disabling Nagle per the spec's latency requirement.
func NewEnd(conn *net.TCPConn) (*End, error) {
	if err := conn.SetNoDelay(true); err != nil {
		return nil, err
	}
	return &End{conn: conn}, nil
}

// Dial opens a new nonblocking TCP connection to addr.
func Dial(addr string, timeout time.Duration) (*End, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return NewEnd(conn.(*net.TCPConn))
}

// RemoteAddr returns the peer's address.
func (e *End) RemoteAddr() net.Addr { return e.conn.RemoteAddr() }

// Conn returns the underlying TCP connection, for callers that need the
// raw socket (netstat's TCP_INFO lookup).
func (e *End) Conn() *net.TCPConn { return e.conn }

// Poll performs one nonblocking read attempt, feeding any bytes read
// into the frame reassembler, and returns every packet that became
// complete as a result. A zero-byte read indicates the remote end
// closed its side.
func (e *End) Poll() (packets [][]byte, closed bool, err error) {
	buf := make([]byte, 4096)
	if err := e.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return nil, false, err
	}
	n, readErr := e.conn.Read(buf)
	if readErr != nil {
		if ne, ok := readErr.(net.Error); ok && ne.Timeout() {
			return nil, false, nil
		}
		return nil, true, nil // any other read error: treat as peer close
	}
	if n == 0 {
		return nil, true, nil
	}
	e.frames.Feed(buf[:n])
	for {
		pkt, ok := e.frames.Next()
		if !ok {
			break
		}
		packets = append(packets, pkt)
	}
	return packets, false, nil
}

// Send appends payload, framed with its length prefix, behind any bytes
// of earlier packets still unsent, then makes one nonblocking TrySend
// attempt. Bytes that attempt could not write stay queued for later
// TrySend calls. Returns an error if sendDone or if the write failed
// with anything other than ErrWouldBlock.
func (e *End) Send(payload []byte) error {
	if e.sendDone {
		return errors.New("tcp: send after stopSending")
	}
	e.outPending = append(e.outPending, protocol.EncodeTCPFrame(payload)...)
	if _, err := e.TrySend(); err != nil && err != ErrWouldBlock {
		return err
	}
	return nil
}

// TrySend attempts to drain outPending in one nonblocking write. It
// returns ErrWouldBlock (not a fatal error) when the socket isn't
// writable yet; callers retry on the next cycle. Returns true once
// outPending is fully drained.
func (e *End) TrySend() (drained bool, err error) {
	if len(e.outPending) == 0 {
		return true, nil
	}
	if err := e.conn.SetWriteDeadline(time.Now().Add(pollTimeout)); err != nil {
		return false, err
	}
	n, writeErr := e.conn.Write(e.outPending)
	if n > 0 {
		e.outPending = e.outPending[n:]
	}
	if writeErr != nil {
		if ne, ok := writeErr.(net.Error); ok && ne.Timeout() {
			return false, ErrWouldBlock
		}
		return false, writeErr
	}
	return len(e.outPending) == 0, nil
}

// StopSending half-closes the local write side and disables further
// outbound packets on this endpoint.
func (e *End) StopSending() error {
	e.sendDone = true
	return e.conn.CloseWrite()
}

// Close releases the underlying socket entirely.
func (e *End) Close() error { return e.conn.Close() }
