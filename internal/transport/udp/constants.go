// Package udp implements the per-peer UDP sender described in the spec:
// an assembly buffer with MTU and per-period budget checks, reliable
// resend, loss-info listeners, and the multicast fan-out sender used by
// the server.
package udp

import "time"

// Defaults. The per-period byte budget and MTU-safe payload are
// constructor arguments of PeerSender and MulticastSender; the other
// values are fixed.
const (
	SendPeriod = 50 * time.Millisecond

	DefaultBytesPerPeriodToServer = 500
	DefaultBytesPerPeriodToClient = 3000

	DefaultMTUSafePayload = 500

	// MinDatagramOverhead is reserved from every period's byte budget for
	// the 4-byte network-time header that prefixes each datagram.
	MinDatagramOverhead = 4

	// ResendFactor scales badRTT into the reliable-resend deadline.
	ResendFactor = 1.5
)

// ackHeaderWireSize is tag(1) + ack#(2) for the ack-request message that
// heads any datagram carrying reliable or loss-info payloads.
const ackHeaderWireSize = 3
