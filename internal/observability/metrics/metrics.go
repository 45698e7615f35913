package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the intake pipeline.
type IntakeMetrics struct {
	eventsTotal    *prometheus.CounterVec
	effectFailures *prometheus.CounterVec
	effectRetries  *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyayasetu",
			Subsystem: "intake",
			Name:      "events_total",
			Help:      "Processed intake events by kind and outcome",
		}, []string{"kind", "status"}),
		effectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyayasetu",
			Subsystem: "intake",
			Name:      "effect_failures_total",
			Help:      "Effects that exhausted their retry budget",
		}, []string{"effect"}),
		effectRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyayasetu",
			Subsystem: "intake",
			Name:      "effect_retries_total",
			Help:      "Effect attempts beyond the first",
		}, []string{"effect"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nyayasetu",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Outbound WhatsApp sends",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nyayasetu",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.effectFailures, m.effectRetries, m.outboundTotal, m.webhookLatency)
	return m
}

func (m *IntakeMetrics) ObserveEvent(kind, status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, status).Inc()
}

func (m *IntakeMetrics) ObserveEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.effectFailures.WithLabelValues(effect).Inc()
}

func (m *IntakeMetrics) ObserveEffectRetry(effect string) {
	if m == nil {
		return
	}
	m.effectRetries.WithLabelValues(effect).Inc()
}

func (m *IntakeMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *IntakeMetrics) ObserveWebhookLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(source).Observe(seconds)
}
