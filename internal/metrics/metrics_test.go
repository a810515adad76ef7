package metrics

import "testing"

func TestNewRegistryRegistersEveryCollectorOnce(t *testing.T) {
	r := NewRegistry()
	r.PeriodBytesUsed.WithLabelValues("peer-1").Set(42)
	r.ReliableResends.WithLabelValues("peer-1").Inc()
	r.LossListenerFires.WithLabelValues("peer-1").Inc()
	r.AckRTT.Observe(0.05)
	r.MemberBadRTT.WithLabelValues("1").Set(0.2)
}
