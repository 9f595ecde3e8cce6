package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_applied_total",
			Help: "Total number of messages applied to the conversation store",
		},
	)

	notificationsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_notifications_dispatched_total",
			Help: "Total number of message notifications dispatched",
		},
	)

	snapshotsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_snapshots_loaded_total",
			Help: "Total number of conversation snapshot loads",
		},
	)

	snapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_snapshot_conversations",
			Help: "Number of conversations in the latest snapshot",
		},
	)

	typingSignalsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_typing_signals_sent_total",
			Help: "Total number of outbound typing signals",
		},
	)
)

func RecordMessageApplied() {
	messagesApplied.Inc()
}

func RecordNotificationDispatched() {
	notificationsDispatched.Inc()
}

func RecordSnapshotLoaded(conversations int) {
	snapshotsLoaded.Inc()
	snapshotSize.Set(float64(conversations))
}

func RecordTypingSignal() {
	typingSignalsSent.Inc()
}
