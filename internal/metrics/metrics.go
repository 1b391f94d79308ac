package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "tonapi"
	subsystem = "telegram_bot"
)

type BotMetrics struct {
	Fetches            *prometheus.CounterVec
	MessagesSent       prometheus.Counter
	MessagesPerChannel *prometheus.CounterVec
	AnimationsSent     prometheus.Counter
	DeliveryFailures   *prometheus.CounterVec
	CommandsProcessed  prometheus.Counter
	WindowSamples      prometheus.Gauge
	RejectedSamples    prometheus.Counter
}

// NewBotMetrics creates the bot collectors and registers them with reg
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "price_fetches",
				Help:      "Price fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_sent",
			Help:      "The total number of delivered messages",
		}),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_per_channel",
				Help:      "The total number of delivered messages per channel",
			},
			[]string{"chat_id"},
		),
		AnimationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "animations_sent",
			Help:      "The total number of celebration animations",
		}),
		DeliveryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "delivery_failures",
				Help:      "Failed deliveries by payload kind",
			},
			[]string{"kind"},
		),
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		WindowSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "window_samples",
			Help:      "Samples currently retained in the price window",
		}),
		RejectedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejected_samples",
			Help:      "Samples dropped by the price window",
		}),
	}

	reg.MustRegister(
		m.Fetches,
		m.MessagesSent,
		m.MessagesPerChannel,
		m.AnimationsSent,
		m.DeliveryFailures,
		m.CommandsProcessed,
		m.WindowSamples,
		m.RejectedSamples,
	)
	return m
}

func (m *BotMetrics) MessageSent(chatID int64) {
	m.MessagesSent.Inc()
	m.MessagesPerChannel.WithLabelValues(strconv.FormatInt(chatID, 10)).Inc()
}

func (m *BotMetrics) AnimationSent(int64) {
	m.AnimationsSent.Inc()
}

func (m *BotMetrics) DeliveryFailed(kind string) {
	m.DeliveryFailures.WithLabelValues(kind).Inc()
}

// FetchDone records a fetch outcome, "ok" or an error kind
func (m *BotMetrics) FetchDone(source, outcome string) {
	m.Fetches.WithLabelValues(source, outcome).Inc()
}

func (m *BotMetrics) SampleRecorded(retained int) {
	m.WindowSamples.Set(float64(retained))
}

func (m *BotMetrics) SampleRejected() {
	m.RejectedSamples.Inc()
}

func (m *BotMetrics) CommandProcessed() {
	m.CommandsProcessed.Inc()
}
