// Package netstat exposes kernel-level TCP_INFO diagnostics (round-trip
// time, retransmit count, congestion window) for a connected TCP end,
// used to cross-check the transport's own badRTT estimate against what
// the OS socket layer actually measured. The real implementation is
// Linux-only; other platforms get a stub that always reports
// ErrUnsupported.
package netstat

import "errors"

// ErrUnsupported is returned by Read on platforms without a TCP_INFO
// implementation.
var ErrUnsupported = errors.New("netstat: unsupported on this platform")

// Info is the small slice of tcp_info this package surfaces. Fields
// mirror struct tcp_info from linux/tcp.h.
type Info struct {
	State          uint8
	RTTMicros      uint32
	RTTVarMicros   uint32
	Retransmits    uint8
	TotalRetrans   uint32
	SendCongestWnd uint32
	SendMSS        uint32
}
