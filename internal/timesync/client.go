package timesync

import (
	"tanknet/pkg/clock"
)

// SyncDeadband is the minimum clock correction worth applying; smaller
// corrections are ignored to avoid jittering the shared network time.
const SyncDeadband float32 = 0.007

// ClientClock estimates network time from the local clock plus a
// periodically-resynchronized anchor: networkNow() = systemNow() -
// systemAtSync + networkAtSync.
type ClientClock struct {
	clk *clock.Clock

	systemAtSync  float32
	networkAtSync float32
	synced        bool

	ring rttRing
}

// NewClientClock creates an estimator anchored to clk, reading raw
// elapsed seconds as network time until the first sync response arrives.
func NewClientClock(clk *clock.Clock) *ClientClock {
	return &ClientClock{clk: clk}
}

func (c *ClientClock) systemNow() float32 { return float32(c.clk.Seconds()) }

// NetworkNow returns the client's current estimate of shared network
// time, used both to stamp outgoing time requests and as the basis of
// every other timestamped message.
func (c *ClientClock) NetworkNow() float32 {
	return c.networkAtSync + (c.systemNow() - c.systemAtSync)
}

// Ready reports whether the RTT ring has 32 samples, i.e. BadRTT is a
// real estimate rather than the 1s default.
func (c *ClientClock) Ready() bool { return c.ring.full() }

// BadRTT is the 80th-percentile RTT sample, defaulting to 1s until the
// ring fills.
func (c *ClientClock) BadRTT() float32 { return c.ring.badRTT() }

// OnResponse processes a time-response's (clientReqTime, serverTime)
// pair against a request period of requestPeriodSeconds, per §4.4.
// It reports the computed rtt and whether it was discarded as stale.
func (c *ClientClock) OnResponse(clientReqTime, serverTime, requestPeriodSeconds float32) (rtt float32, discarded bool) {
	rtt = c.NetworkNow() - clientReqTime
	if rtt >= requestPeriodSeconds {
		return rtt, true
	}

	c.ring.insert(rtt)

	if !c.synced {
		c.resyncIfBeyondDeadband(serverTime, rtt)
		c.synced = true
		return rtt, false
	}

	if c.ring.isBest20(rtt) {
		c.resyncIfBeyondDeadband(serverTime, rtt)
	}
	return rtt, false
}

func (c *ClientClock) resyncIfBeyondDeadband(serverTime, rtt float32) {
	desired := serverTime + rtt/2
	clientReceipt := c.NetworkNow()
	delta := desired - clientReceipt
	if delta < 0 {
		delta = -delta
	}
	if delta > SyncDeadband {
		c.systemAtSync = c.systemNow()
		c.networkAtSync = desired
	}
}
