// Package clock provides the process-wide monotone time source and the
// registrable fixed-length periods used to drive send-budget resets,
// clock-sync requests, and housekeeping sweeps.
package clock

import "time"

// Clock is a monotone real-valued time source. Seconds is non-decreasing
// across calls for the lifetime of the process; it is reset only by
// constructing a new Clock (done on client reconnect).
type Clock struct {
	start time.Time
}

// New creates a Clock anchored at the current instant.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// Seconds returns the number of seconds elapsed since the clock was
// created. Relies on Go's monotonic reading inside time.Time, so it never
// decreases even if the wall clock is adjusted.
func (c *Clock) Seconds() float64 {
	return time.Since(c.start).Seconds()
}

// Now returns the instant the Seconds reading is derived from, useful for
// feeding Period.Due/Reset without re-querying time.Now() redundantly.
func (c *Clock) Now() time.Time {
	return time.Now()
}

// Period is a recurring fixed-length interval, polled once per event-loop
// iteration via Due with the caller's current time.
type Period struct {
	interval time.Duration
	last     time.Time
	armed    bool
}

// NewPeriod creates a Period that is immediately due.
func NewPeriod(interval time.Duration) *Period {
	return &Period{interval: interval}
}

// Due reports whether the interval has elapsed since the period was last
// reset (or since construction, if it has never fired).
func (p *Period) Due(now time.Time) bool {
	if !p.armed {
		return true
	}
	return now.Sub(p.last) >= p.interval
}

// Reset marks the period as having just fired at now.
func (p *Period) Reset(now time.Time) {
	p.last = now
	p.armed = true
}

// Elapsed returns how long it has been since the period last fired.
func (p *Period) Elapsed(now time.Time) time.Duration {
	if !p.armed {
		return p.interval
	}
	return now.Sub(p.last)
}

// Interval returns the configured period length.
func (p *Period) Interval() time.Duration { return p.interval }
