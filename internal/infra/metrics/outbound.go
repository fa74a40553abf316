package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(outboundSendsTotal, outboundDroppedTotal, outboundLatencyMs) }

var (
	outboundSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_outbound_total",
			Help: "Outbound Cloud API sends by HTTP status (or 'error' on transport failure).",
		},
		[]string{"status"},
	)

	outboundDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_outbound_dropped_total",
			Help: "Replies that never reached the Cloud API client.",
		},
		[]string{"reason"}, // queue_full | queue_closed
	)

	outboundLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "whatsapp_outbound_latency_ms",
			Help:    "Cloud API send latency in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
	)
)

func ObserveOutbound(status int, latencyMs int64) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	outboundSendsTotal.WithLabelValues(label).Inc()
	outboundLatencyMs.Observe(float64(latencyMs))
}

func IncOutboundDropped(reason string) {
	outboundDroppedTotal.WithLabelValues(norm(reason)).Inc()
}
