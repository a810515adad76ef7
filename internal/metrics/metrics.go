// Package metrics exposes the transport's Prometheus collectors: byte
// budget consumption, resend/loss counts, ack round-trip latency, and
// per-member badRTT, served over /metrics the way the teacher's pack
// exposes scrape endpoints.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tanknet/pkg/logger"
)

// Registry bundles every collector the transport updates. One Registry
// is created per process and passed down to the components that feed it.
type Registry struct {
	reg *prometheus.Registry

	PeriodBytesUsed   *prometheus.GaugeVec
	ReliableResends   *prometheus.CounterVec
	LossListenerFires *prometheus.CounterVec
	AckRTT            prometheus.Histogram
	MemberBadRTT      *prometheus.GaugeVec
}

// NewRegistry creates and registers every collector.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		PeriodBytesUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tanknet_period_bytes_used",
			Help: "Bytes consumed from a peer's per-period send budget.",
		}, []string{"peer"}),
		ReliableResends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tanknet_reliable_resends_total",
			Help: "Reliable records re-appended after their resend deadline passed.",
		}, []string{"peer"}),
		LossListenerFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tanknet_loss_listener_fires_total",
			Help: "Loss-info listeners fired after their deadline passed unacked.",
		}, []string{"peer"}),
		AckRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tanknet_ack_rtt_seconds",
			Help:    "Round-trip time between a reliable send and its matching ack-response.",
			Buckets: prometheus.DefBuckets,
		}),
		MemberBadRTT: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tanknet_member_bad_rtt_seconds",
			Help: "80th-percentile RTT estimate per session member.",
		}, []string{"member_id"}),
	}
	for _, c := range []prometheus.Collector{r.PeriodBytesUsed, r.ReliableResends, r.LossListenerFires, r.AckRTT, r.MemberBadRTT} {
		if err := reg.Register(c); err != nil {
			logger.Warn("metrics: collector already registered: %v", err)
		}
	}
	return r
}

// Serve starts the /metrics HTTP endpoint on port. It blocks; callers
// run it in its own goroutine.
func (r *Registry) Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	logger.Info("metrics listening on :%d/metrics", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
