package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for chat turns and webhook relays.
type ChatMetrics struct {
	turnsTotal    *prometheus.CounterVec
	relayTotal    *prometheus.CounterVec
	assistantWait prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by outcome",
		}, []string{"outcome"}),
		relayTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "relay",
			Name:      "attempts_total",
			Help:      "Webhook relay attempts",
		}, []string{"trigger", "success"}),
		assistantWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadchat",
			Subsystem: "assistant",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for an assistant run to finish",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.relayTotal, m.assistantWait)
	return m
}

// ObserveTurn records a turn outcome: "ok", "config_error", "transport_error", "no_reply".
func (m *ChatMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveRelay(trigger string, success bool) {
	if m == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	m.relayTotal.WithLabelValues(trigger, label).Inc()
}

func (m *ChatMetrics) ObserveAssistantWait(seconds float64) {
	if m == nil {
		return
	}
	m.assistantWait.Observe(seconds)
}
