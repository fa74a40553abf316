package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(webhookMessagesTotal, webhookDeliveriesTotal) }

var (
	webhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook POST deliveries by outcome.",
		},
		[]string{"result"}, // processed | no_entries | no_changes | no_messages | bad_payload | bad_signature
	)

	webhookMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_messages_total",
			Help: "Inbound seller messages by type and dispatch result.",
		},
		[]string{"type", "result"}, // type is one of messageTypes, "unknown" or "other"
	)
)

// messageTypes bounds the type label; the value comes from the webhook body.
var messageTypes = map[string]struct{}{
	"text": {}, "image": {}, "audio": {}, "video": {}, "document": {}, "sticker": {},
	"location": {}, "contacts": {}, "interactive": {}, "button": {}, "reaction": {},
	"order": {}, "system": {},
}

func messageTypeLabel(t string) string {
	t = norm(t)
	if t == "" {
		return "unknown"
	}
	if _, ok := messageTypes[t]; ok {
		return t
	}
	return "other"
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncWebhookDelivery(result string) {
	webhookDeliveriesTotal.WithLabelValues(norm(result)).Inc()
}

func IncWebhookMessage(msgType string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	webhookMessagesTotal.WithLabelValues(messageTypeLabel(msgType), result).Inc()
}
