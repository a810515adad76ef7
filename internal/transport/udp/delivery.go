package udp

// DeliveryClass selects the resend/notification behavior applied to one
// appended message.
type DeliveryClass int

const (
	// Unreliable is fire-and-forget: no ack#, no bookkeeping.
	Unreliable DeliveryClass = iota
	// Reliable re-sends the payload under a fresh ack# if not acked by
	// its deadline.
	Reliable
	// LossInfo notifies a listener once if the ack# isn't acked by its
	// deadline; the payload itself is never resent.
	LossInfo
)

// LossListener is invoked exactly once, from PeriodTick, when a loss-info
// message's deadline passes without an ack.
type LossListener func()
