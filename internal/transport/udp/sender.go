package udp

import (
	"tanknet/internal/metrics"
	"tanknet/internal/protocol"
	"tanknet/pkg/wire"
)

type reliableRecord struct {
	ackNum   uint16
	payload  []byte
	deadline float32
	age      float32 // seconds since this attempt (send or resend) was recorded
}

type lossRecord struct {
	ackNum   uint16
	deadline float32
	listener LossListener
}

// BadRTTFunc supplies the current badRTT estimate for the peer this
// sender targets; callers typically close over a timesync tracker.
type BadRTTFunc func() float32

// PeerSender is one outgoing direction's assembly buffer: a
// budget-checked, MTU-checked accumulation of messages destined for the
// next datagram, plus the reliable-resend and loss-listener bookkeeping
// for everything already sent.
type PeerSender struct {
	maxBytesPerPeriod int
	mtuSafePayload    int
	badRTT            BadRTTFunc

	budget int
	body   []byte

	ackReserved bool
	currentAck  uint16
	nextAck     uint16

	reliable []*reliableRecord
	lossPend []*lossRecord

	metrics   *metrics.Registry
	peerLabel string
}

// NewPeerSender creates a sender with the given per-period byte budget
// and MTU-safe payload size; badRTT supplies the current resend deadline
// unit for this peer.
func NewPeerSender(maxBytesPerPeriod, mtuSafePayload int, badRTT BadRTTFunc) *PeerSender {
	p := &PeerSender{
		maxBytesPerPeriod: maxBytesPerPeriod,
		mtuSafePayload:    mtuSafePayload,
		badRTT:            badRTT,
	}
	p.budget = p.periodBudget()
	return p
}

// AttachMetrics wires r into this sender, labeled by peer (typically the
// member id as a string). Safe to call with r == nil, which leaves the
// sender unobserved — tests construct senders without ever calling this.
func (p *PeerSender) AttachMetrics(r *metrics.Registry, peer string) {
	p.metrics = r
	p.peerLabel = peer
}

func (p *PeerSender) periodBudget() int {
	b := p.maxBytesPerPeriod - MinDatagramOverhead
	if b < 0 {
		b = 0
	}
	return b
}

// ResetPeriod resets the residual byte budget to its period-start value.
// Callers invoke this once per SendPeriod tick, before Append calls for
// that period.
func (p *PeerSender) ResetPeriod() {
	p.budget = p.periodBudget()
}

func (p *PeerSender) remainingMTU() int {
	return p.mtuSafePayload - MinDatagramOverhead - len(p.body)
}

// Append adds one already-encoded message (tag||body) to the assembly
// buffer, subject to the MTU and per-period budget checks. It returns
// false, leaving the buffer untouched, if either check fails.
func (p *PeerSender) Append(message []byte, class DeliveryClass, listener LossListener) bool {
	needsHeader := class != Unreliable && !p.ackReserved
	headerLen := 0
	if needsHeader {
		headerLen = ackHeaderWireSize
	}
	total := len(message) + headerLen

	if total > p.remainingMTU() {
		return false
	}
	if total > p.budget {
		return false
	}

	var ackNum uint16
	if needsHeader {
		ackNum = p.allocateAck()
		p.body = append(encodeAckRequest(ackNum), p.body...)
		p.ackReserved = true
		p.currentAck = ackNum
	} else if class != Unreliable {
		ackNum = p.currentAck
	}

	p.body = append(p.body, message...)
	p.budget -= total
	if p.metrics != nil {
		p.metrics.PeriodBytesUsed.WithLabelValues(p.peerLabel).Set(float64(p.periodBudget() - p.budget))
	}

	switch class {
	case Reliable:
		p.recordReliable(ackNum, message)
	case LossInfo:
		if listener != nil {
			p.lossPend = append(p.lossPend, &lossRecord{ackNum: ackNum, deadline: p.deadline(), listener: listener})
		}
	}
	return true
}

func (p *PeerSender) allocateAck() uint16 {
	n := p.nextAck
	p.nextAck++
	return n
}

func (p *PeerSender) deadline() float32 {
	return p.badRTT() * ResendFactor
}

func (p *PeerSender) recordReliable(ackNum uint16, payload []byte) {
	for _, r := range p.reliable {
		if r.ackNum == ackNum {
			r.payload = append(r.payload, payload...)
			return
		}
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	p.reliable = append(p.reliable, &reliableRecord{ackNum: ackNum, payload: cp, deadline: p.deadline()})
}

func encodeAckRequest(ackNum uint16) []byte {
	w := wire.NewWriter(ackHeaderWireSize)
	ack := protocol.AckMessage{AckNumber: ackNum}
	ack.Encode(w, protocol.TagAckRequest)
	return w.Bytes()
}

// OnAckResponse drops the reliable record and discards any loss
// listeners matching ackNum.
func (p *PeerSender) OnAckResponse(ackNum uint16) {
	kept := p.reliable[:0]
	for _, r := range p.reliable {
		if r.ackNum != ackNum {
			kept = append(kept, r)
			continue
		}
		if p.metrics != nil {
			p.metrics.AckRTT.Observe(float64(r.age))
		}
	}
	p.reliable = kept

	keptLoss := p.lossPend[:0]
	for _, l := range p.lossPend {
		if l.ackNum != ackNum {
			keptLoss = append(keptLoss, l)
		}
	}
	p.lossPend = keptLoss
}

// PeriodTick re-appends any reliable record past its deadline (subject
// to budget) under a fresh ack#, and fires + discards any loss listener
// past its deadline. elapsedSinceLastTick is the number of seconds since
// the previous call; every record's remaining deadline counts down by it.
func (p *PeerSender) PeriodTick(elapsedSinceLastTick float32) {
	pending := p.reliable
	p.reliable = nil
	for _, r := range pending {
		r.deadline -= elapsedSinceLastTick
		r.age += elapsedSinceLastTick
		if r.deadline > 0 {
			p.reliable = append(p.reliable, r)
			continue
		}
		// Append re-records under a fresh (or already-reserved) ack into
		// the now-live p.reliable; building it incrementally instead of
		// replacing it afterward means that record survives this tick.
		if !p.Append(r.payload, Reliable, nil) {
			r.deadline = p.deadline()
			p.reliable = append(p.reliable, r)
			continue
		}
		if p.metrics != nil {
			p.metrics.ReliableResends.WithLabelValues(p.peerLabel).Inc()
		}
	}

	var stillLoss []*lossRecord
	for _, l := range p.lossPend {
		l.deadline -= elapsedSinceLastTick
		if l.deadline > 0 {
			stillLoss = append(stillLoss, l)
			continue
		}
		if p.metrics != nil {
			p.metrics.LossListenerFires.WithLabelValues(p.peerLabel).Inc()
		}
		l.listener()
	}
	p.lossPend = stillLoss
}

// PrepareSend returns the datagram body ready to send (messages only,
// without the 4-byte network-time header) and whether there is anything
// to send at all. It does not clear the buffer — call Flush after a
// successful sendto.
func (p *PeerSender) PrepareSend() ([]byte, bool) {
	if len(p.body) == 0 {
		return nil, false
	}
	return p.body, true
}

// Flush clears the assembly buffer after a successful send. On
// EWOULDBLOCK callers must not call Flush, leaving the sender armed to
// retry the same buffer next cycle.
func (p *PeerSender) Flush() {
	p.body = nil
	p.ackReserved = false
}

// PendingReliableCount reports how many reliable records await ack,
// exposed for tests and metrics.
func (p *PeerSender) PendingReliableCount() int { return len(p.reliable) }

// PendingLossCount reports how many loss-info listeners are armed.
func (p *PeerSender) PendingLossCount() int { return len(p.lossPend) }
