package udp

import "tanknet/internal/metrics"

// multicastPeerLabel is the fixed metrics label for the fan-out sender,
// distinguishing it from any individual member's unicast label.
const multicastPeerLabel = "multicast"

// MulticastGroup and MulticastPort are the fixed rendezvous address that
// tanknetd sends the multicast sender's datagrams to. The server does not
// join or probe this group at startup.
const (
	MulticastGroup = "230.201.147.201"
	MulticastPort  = 35917
)

type multicastReliableRecord struct {
	ackNum   uint16
	payload  []byte
	deadline float32
	pending  map[uint16]bool // receiver ids not yet acked
}

type multicastLossRecord struct {
	ackNum   uint16
	deadline float32
	listener LossListener
	pending  map[uint16]bool
	fired    bool
}

// UnicastResolver returns the unicast PeerSender for a receiver id, used
// to re-target a multicast reliable record's bytes once its deadline
// passes with receivers still pending.
type UnicastResolver func(receiverID uint16) *PeerSender

// MulticastSender is the logical peer sender the server uses to fan out
// one payload to every multicast-capable client in a single datagram,
// while keeping per-receiver ack bookkeeping for reliable and loss-info
// messages.
type MulticastSender struct {
	mtuSafePayload int
	maxBytes       int
	meanBadRTT     BadRTTFunc
	resolveUnicast UnicastResolver

	budget int
	body   []byte

	ackReserved bool
	currentAck  uint16
	nextAck     uint16

	reliable []*multicastReliableRecord
	lossPend []*multicastLossRecord

	metrics *metrics.Registry
}

// AttachMetrics wires r into this sender under the fixed "multicast"
// label. Safe to call with r == nil.
func (m *MulticastSender) AttachMetrics(r *metrics.Registry) {
	m.metrics = r
}

// NewMulticastSender creates a multicast fan-out sender. meanBadRTT
// supplies the fleet-wide mean badRTT used to size deadlines; resolve
// supplies each receiver's unicast sender for reliable-record fallback.
func NewMulticastSender(maxBytesPerPeriod, mtuSafePayload int, meanBadRTT BadRTTFunc, resolve UnicastResolver) *MulticastSender {
	m := &MulticastSender{
		mtuSafePayload: mtuSafePayload,
		maxBytes:       maxBytesPerPeriod,
		meanBadRTT:     meanBadRTT,
		resolveUnicast: resolve,
	}
	m.budget = m.periodBudget()
	return m
}

func (m *MulticastSender) periodBudget() int {
	b := m.maxBytes - MinDatagramOverhead
	if b < 0 {
		b = 0
	}
	return b
}

// ResetPeriod resets the residual byte budget for a new send period.
func (m *MulticastSender) ResetPeriod() { m.budget = m.periodBudget() }

func (m *MulticastSender) remainingMTU() int {
	return m.mtuSafePayload - MinDatagramOverhead - len(m.body)
}

func (m *MulticastSender) deadline() float32 {
	return m.meanBadRTT() * ResendFactor
}

// Append applies the MTU and per-period-budget checks once for the
// whole fan-out, then records receivers for reliable/loss-info
// bookkeeping.
func (m *MulticastSender) Append(message []byte, class DeliveryClass, listener LossListener, receivers []uint16) bool {
	needsHeader := class != Unreliable && !m.ackReserved
	headerLen := 0
	if needsHeader {
		headerLen = ackHeaderWireSize
	}
	total := len(message) + headerLen
	if total > m.remainingMTU() || total > m.budget {
		return false
	}

	var ackNum uint16
	if needsHeader {
		ackNum = m.nextAck
		m.nextAck++
		m.body = append(encodeAckRequest(ackNum), m.body...)
		m.ackReserved = true
		m.currentAck = ackNum
	} else if class != Unreliable {
		ackNum = m.currentAck
	}

	m.body = append(m.body, message...)
	m.budget -= total
	if m.metrics != nil {
		m.metrics.PeriodBytesUsed.WithLabelValues(multicastPeerLabel).Set(float64(m.periodBudget() - m.budget))
	}

	pending := make(map[uint16]bool, len(receivers))
	for _, id := range receivers {
		pending[id] = true
	}

	switch class {
	case Reliable:
		cp := make([]byte, len(message))
		copy(cp, message)
		m.reliable = append(m.reliable, &multicastReliableRecord{ackNum: ackNum, payload: cp, deadline: m.deadline(), pending: pending})
	case LossInfo:
		if listener != nil {
			m.lossPend = append(m.lossPend, &multicastLossRecord{ackNum: ackNum, deadline: m.deadline(), listener: listener, pending: pending})
		}
	}
	return true
}

// OnAckResponse removes receiverID from every pending set matching
// ackNum. A reliable record whose pending set empties is dropped; a
// loss-info record whose pending set empties is discarded without firing.
func (m *MulticastSender) OnAckResponse(receiverID, ackNum uint16) {
	var keptReliable []*multicastReliableRecord
	for _, r := range m.reliable {
		if r.ackNum == ackNum {
			delete(r.pending, receiverID)
			if len(r.pending) == 0 {
				continue
			}
		}
		keptReliable = append(keptReliable, r)
	}
	m.reliable = keptReliable

	var keptLoss []*multicastLossRecord
	for _, l := range m.lossPend {
		if l.ackNum == ackNum {
			delete(l.pending, receiverID)
			if len(l.pending) == 0 {
				continue
			}
		}
		keptLoss = append(keptLoss, l)
	}
	m.lossPend = keptLoss
}

// PeriodTick re-targets expired reliable records' bytes onto each still
// pending receiver's own unicast sender, and fires expired loss
// listeners exactly once for records with any receiver still pending.
func (m *MulticastSender) PeriodTick(elapsed float32) {
	var stillReliable []*multicastReliableRecord
	for _, r := range m.reliable {
		r.deadline -= elapsed
		if r.deadline > 0 {
			stillReliable = append(stillReliable, r)
			continue
		}
		for receiverID := range r.pending {
			if sender := m.resolveUnicast(receiverID); sender != nil {
				sender.Append(r.payload, Reliable, nil)
			}
		}
		// Dropped: resend now continues per-receiver over unicast.
	}
	m.reliable = stillReliable

	var stillLoss []*multicastLossRecord
	for _, l := range m.lossPend {
		l.deadline -= elapsed
		if l.deadline > 0 {
			stillLoss = append(stillLoss, l)
			continue
		}
		if len(l.pending) > 0 {
			if m.metrics != nil {
				m.metrics.LossListenerFires.WithLabelValues(multicastPeerLabel).Inc()
			}
			l.listener()
		}
	}
	m.lossPend = stillLoss
}

// PrepareSend returns the fan-out datagram body and whether there is
// anything to send.
func (m *MulticastSender) PrepareSend() ([]byte, bool) {
	if len(m.body) == 0 {
		return nil, false
	}
	return m.body, true
}

// Flush clears the assembly buffer after a successful multicast send.
func (m *MulticastSender) Flush() {
	m.body = nil
	m.ackReserved = false
}
