package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeMetricsRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIntakeMetrics(reg)

	m.ObserveEvent("chat_text", "ok")
	m.ObserveEvent("chat_text", "ok")
	m.ObserveEffectRetry("send_text")
	m.ObserveEffectFailure("create_booking")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("whatsapp", 0.05)

	expected := `
		# HELP nyayasetu_intake_events_total Processed intake events by kind and outcome
		# TYPE nyayasetu_intake_events_total counter
		nyayasetu_intake_events_total{kind="chat_text",status="ok"} 2
	`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nyayasetu_intake_events_total"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.effectFailures.WithLabelValues("create_booking")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.effectRetries.WithLabelValues("send_text")))
}

func TestIntakeMetricsNilSafe(t *testing.T) {
	var m *IntakeMetrics
	m.ObserveEvent("chat_text", "ok")
	m.ObserveEffectFailure("send_text")
	m.ObserveEffectRetry("send_text")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("whatsapp", 0.1)
}
