package timesync

import (
	"strconv"

	"tanknet/internal/metrics"
	"tanknet/internal/session"
)

// maxAcceptedRTT is the ceiling above which a computed server-side RTT
// sample is treated as bogus and dropped rather than recorded.
const maxAcceptedRTT float32 = 1.0

// ServerTracker holds one RTT ring per connected client, created when the
// member joins and destroyed when it leaves, mirroring the ring's
// lifetime to the member's.
type ServerTracker struct {
	rings   map[uint16]*rttRing
	metrics *metrics.Registry
}

// NewServerTracker creates an empty tracker.
func NewServerTracker() *ServerTracker {
	return &ServerTracker{rings: make(map[uint16]*rttRing)}
}

// AttachMetrics wires r into this tracker, so every accepted RTT sample
// updates the per-member badRTT gauge. Safe to call with r == nil.
func (s *ServerTracker) AttachMetrics(r *metrics.Registry) {
	s.metrics = r
}

// MemberAdded creates a fresh ring for a newly joined client; the
// server's own roster entry gets none. Implements session.Observer so a
// tracker can register directly with a roster.
func (s *ServerTracker) MemberAdded(m session.Member) {
	if m.ID == session.ServerID {
		return
	}
	s.rings[m.ID] = &rttRing{}
}

// MemberRemoved discards the ring for a departed client.
func (s *ServerTracker) MemberRemoved(id uint16) {
	delete(s.rings, id)
	if s.metrics != nil {
		s.metrics.MemberBadRTT.DeleteLabelValues(strconv.Itoa(int(id)))
	}
}

// RecordUpdateRTT computes rtt = 2*(systemNow - clientReqTime) for a
// time-update-request from id, clamps it to non-negative, drops samples
// above 1s as bogus, and inserts the rest into that client's ring. It
// reports the accepted rtt and whether it was recorded.
func (s *ServerTracker) RecordUpdateRTT(id uint16, systemNow, clientReqTime float32) (rtt float32, accepted bool) {
	rtt = 2 * (systemNow - clientReqTime)
	if rtt < 0 {
		rtt = 0
	}
	if rtt > maxAcceptedRTT {
		return rtt, false
	}
	ring, ok := s.rings[id]
	if !ok {
		ring = &rttRing{}
		s.rings[id] = ring
	}
	ring.insert(rtt)
	if s.metrics != nil {
		s.metrics.MemberBadRTT.WithLabelValues(strconv.Itoa(int(id))).Set(float64(ring.badRTT()))
	}
	return rtt, true
}

// BadRTT is the 80th-percentile RTT for id, or DefaultBadRTT if id is
// unknown or its ring hasn't filled yet.
func (s *ServerTracker) BadRTT(id uint16) float32 {
	ring, ok := s.rings[id]
	if !ok {
		return DefaultBadRTT
	}
	return ring.badRTT()
}

// MeanBadRTT is the arithmetic mean of every tracked client's badRTT,
// used to size multicast loss-detection timers. Returns DefaultBadRTT
// when no clients are tracked.
func (s *ServerTracker) MeanBadRTT() float32 {
	if len(s.rings) == 0 {
		return DefaultBadRTT
	}
	var sum float32
	for _, ring := range s.rings {
		sum += ring.badRTT()
	}
	return sum / float32(len(s.rings))
}
