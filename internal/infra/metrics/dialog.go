package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(dialogIntentsTotal, dialogTransitionsTotal, conversationsActive, conversationsSwept)
}

var (
	dialogIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_intents_total",
			Help: "Classified intents of inbound messages.",
		},
		[]string{"intent"},
	)

	dialogTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_transitions_total",
			Help: "Handled dialog steps by action, step and outcome.",
		},
		[]string{"action", "step", "outcome"}, // outcome: advance | stay | finish
	)

	conversationsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversations_active",
			Help: "Conversations currently held by the in-memory store.",
		},
	)

	conversationsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_swept_total",
			Help: "Idle conversations evicted by the sweeper.",
		},
	)
)

func IncIntent(intent string) {
	dialogIntentsTotal.WithLabelValues(norm(intent)).Inc()
}

func IncTransition(action, step, outcome string) {
	if action == "" {
		action = "none"
	}
	dialogTransitionsTotal.WithLabelValues(norm(action), step, norm(outcome)).Inc()
}

func SetActiveConversations(n int) {
	conversationsActive.Set(float64(n))
}

func AddConversationsSwept(n int) {
	conversationsSwept.Add(float64(n))
}
