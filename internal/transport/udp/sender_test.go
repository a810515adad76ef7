package udp

import "testing"

func fixedBadRTT(v float32) BadRTTFunc { return func() float32 { return v } }

func TestAppendRespectsPeriodBudget(t *testing.T) {
	p := NewPeerSender(20, 500, fixedBadRTT(0.1))
	msg := make([]byte, 10)
	if !p.Append(msg, Unreliable, nil) {
		t.Fatal("expected first append to fit budget")
	}
	if p.Append(msg, Unreliable, nil) {
		t.Fatal("expected second append to exceed remaining period budget")
	}
}

func TestAppendReservesAckHeaderOnceForReliable(t *testing.T) {
	p := NewPeerSender(500, 500, fixedBadRTT(0.1))
	msg := []byte{1, 2, 3}
	if !p.Append(msg, Reliable, nil) {
		t.Fatal("expected append to succeed")
	}
	body, ok := p.PrepareSend()
	if !ok {
		t.Fatal("expected pending datagram")
	}
	// ack-request header (3 bytes) + message (3 bytes).
	if len(body) != ackHeaderWireSize+len(msg) {
		t.Fatalf("expected body len %d, got %d", ackHeaderWireSize+len(msg), len(body))
	}

	if !p.Append([]byte{9}, Reliable, nil) {
		t.Fatal("expected second reliable append to succeed")
	}
	body, _ = p.PrepareSend()
	// No second ack header: only one more byte added.
	if len(body) != ackHeaderWireSize+len(msg)+1 {
		t.Fatalf("expected single ack header reused, got body len %d", len(body))
	}
}

func TestOnAckResponseDropsReliableRecord(t *testing.T) {
	p := NewPeerSender(500, 500, fixedBadRTT(0.1))
	p.Append([]byte{1}, Reliable, nil)
	if p.PendingReliableCount() != 1 {
		t.Fatalf("expected 1 pending reliable record, got %d", p.PendingReliableCount())
	}
	p.OnAckResponse(0)
	if p.PendingReliableCount() != 0 {
		t.Fatal("expected ack response to drop the reliable record")
	}
}

func TestPeriodTickResendsExpiredReliable(t *testing.T) {
	p := NewPeerSender(500, 500, fixedBadRTT(0.1)) // deadline = 0.15s
	p.Append([]byte{1, 2}, Reliable, nil)
	p.Flush() // simulate having sent the first datagram

	p.PeriodTick(0.2) // past the 0.15s deadline
	if p.PendingReliableCount() != 1 {
		t.Fatal("expected reliable record to still be pending after resend")
	}
	body, ok := p.PrepareSend()
	if !ok || len(body) == 0 {
		t.Fatal("expected resend to re-append payload into the assembly buffer")
	}
}

func TestPeriodTickFiresLossListenerOnce(t *testing.T) {
	p := NewPeerSender(500, 500, fixedBadRTT(0.1))
	fired := 0
	p.Append([]byte{1}, LossInfo, func() { fired++ })

	p.PeriodTick(0.05) // before deadline
	if fired != 0 {
		t.Fatal("listener fired before deadline")
	}
	p.PeriodTick(0.2) // past deadline
	if fired != 1 {
		t.Fatalf("expected listener to fire exactly once, fired=%d", fired)
	}
	if p.PendingLossCount() != 0 {
		t.Fatal("expected loss record to be discarded after firing")
	}
}

func TestOnAckResponseDiscardsLossListenerWithoutFiring(t *testing.T) {
	p := NewPeerSender(500, 500, fixedBadRTT(0.1))
	fired := 0
	p.Append([]byte{1}, LossInfo, func() { fired++ })
	p.OnAckResponse(0)

	p.PeriodTick(1.0)
	if fired != 0 {
		t.Fatal("acked loss listener must not fire")
	}
}
