package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OnlineIdentities = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chathub_online_identities",
		Help: "Identities currently holding a live websocket connection",
	})
	WsMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chathub_ws_messages_total",
		Help: "Total number of chat messages fanned out",
	})
	WsEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chathub_ws_events_total",
		Help: "Total number of inbound websocket events by type",
	}, []string{"type"})
	PresenceTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chathub_presence_transitions_total",
		Help: "Presence status transitions by target status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(OnlineIdentities, WsMessagesTotal, WsEventsTotal, PresenceTransitions)
}
