package metrics_test

import (
	"testing"

	"github.com/2beens/fitmate/internal/telemetry/metrics"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersAll(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()
	require.NotNil(t, m)

	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.CounterFeedback.WithLabelValues("workout").Inc()
	m.CounterFeedback.WithLabelValues("workout").Inc()
	m.CounterRecommendations.WithLabelValues("recovery").Inc()
	m.CounterChatResponses.WithLabelValues(metrics.ChatSourceFallback).Inc()
	m.HistogramRequestDuration.WithLabelValues("/users/{id}/plan", "GET", "200").Observe(0.1)
	m.GaugeActiveSessions.Set(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, f := range families {
		byName[f.GetName()] = f
	}

	for _, name := range []string{
		"fitmate_test_server_request",
		"fitmate_test_server_handle_request_panic",
		"fitmate_test_server_rate_limited_requests",
		"fitmate_test_server_feedback_recorded",
		"fitmate_test_server_recommendations",
		"fitmate_test_server_chat_responses",
		"fitmate_test_server_current_requests",
		"fitmate_test_server_life_signal",
		"fitmate_test_server_active_sessions",
		"fitmate_test_server_request_duration_seconds",
		"fitmate_test_server_textgen_duration_seconds",
	} {
		assert.Contains(t, byName, name)
	}

	feedback := byName["fitmate_test_server_feedback_recorded"]
	require.Len(t, feedback.GetMetric(), 1)
	assert.Equal(t, float64(2), feedback.GetMetric()[0].GetCounter().GetValue())

	sessions := byName["fitmate_test_server_active_sessions"]
	require.Len(t, sessions.GetMetric(), 1)
	assert.Equal(t, float64(3), sessions.GetMetric()[0].GetGauge().GetValue())
}

func TestSetupPrometheus(t *testing.T) {
	reg := metrics.SetupPrometheus()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
