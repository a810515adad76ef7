package timesync

import (
	"testing"

	"tanknet/internal/session"
	"tanknet/pkg/clock"
)

func TestClientClockDefaultsBadRTTUntilRingFull(t *testing.T) {
	c := NewClientClock(clock.New())
	if c.Ready() {
		t.Fatal("fresh clock should not be ready")
	}
	if got := c.BadRTT(); got != DefaultBadRTT {
		t.Fatalf("expected default badRTT %v, got %v", DefaultBadRTT, got)
	}
}

func TestClientClockFirstResponseSyncsBeyondDeadband(t *testing.T) {
	c := NewClientClock(clock.New())
	before := c.NetworkNow()

	rtt, discarded := c.OnResponse(before, before+5.0, 3.0)
	if discarded {
		t.Fatal("did not expect discard")
	}
	if rtt < 0 {
		t.Fatalf("unexpected negative rtt: %v", rtt)
	}
	after := c.NetworkNow()
	if after < before+4.5 {
		t.Fatalf("expected clock to jump toward server time, before=%v after=%v", before, after)
	}
}

func TestClientClockDiscardsStaleResponse(t *testing.T) {
	c := NewClientClock(clock.New())
	now := c.NetworkNow()
	_, discarded := c.OnResponse(now-10, now, 3.0)
	if !discarded {
		t.Fatal("expected stale response (rtt >= requestPeriod) to be discarded")
	}
}

func TestRttRingBadRTTIsEightiethPercentileWhenFull(t *testing.T) {
	var r rttRing
	for i := 0; i < RingSize; i++ {
		r.insert(float32(i) / 100) // 0.00 .. 0.31
	}
	if !r.full() {
		t.Fatal("expected ring to be full")
	}
	got := r.badRTT()
	want := float32(rankWorst) / 100
	if got != want {
		t.Fatalf("expected badRTT %v, got %v", want, got)
	}
}

func TestServerTrackerLifecycleFollowsMembership(t *testing.T) {
	tr := NewServerTracker()
	tr.MemberAdded(session.Member{ID: 1})

	rtt, accepted := tr.RecordUpdateRTT(1, 10.0, 9.995)
	if !accepted {
		t.Fatalf("expected accepted rtt, got rtt=%v", rtt)
	}

	tr.MemberRemoved(1)
	if got := tr.BadRTT(1); got != DefaultBadRTT {
		t.Fatalf("expected default badRTT after removal, got %v", got)
	}
}

func TestServerTrackerDropsBogusRTT(t *testing.T) {
	tr := NewServerTracker()
	tr.MemberAdded(session.Member{ID: 1})

	_, accepted := tr.RecordUpdateRTT(1, 100.0, 0.0) // 2*100s, way over 1s ceiling
	if accepted {
		t.Fatal("expected bogus rtt to be dropped")
	}
}

func TestServerTrackerMeanBadRTTDefaultsWithNoClients(t *testing.T) {
	tr := NewServerTracker()
	if got := tr.MeanBadRTT(); got != DefaultBadRTT {
		t.Fatalf("expected default mean badRTT, got %v", got)
	}
}
