package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsdigest/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	m := metrics.New()

	m.RecordRun(metrics.OutcomeSuccess, "openai", 3, 12)
	m.RecordRun(metrics.OutcomeEmpty, "ollama", 0, 40)
	m.RecordFallback()

	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.OutcomeEmpty)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.ItemsTotal.WithLabelValues("openai")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ItemsTotal.WithLabelValues("ollama")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FallbacksTotal), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordRun(metrics.OutcomeError, "", 0, 1)
		m.RecordFallback()
	})
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.RecordRun(metrics.OutcomeSuccess, "openai", 2, 5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `newsdigest_runs_total{outcome="success"} 1`)
	assert.Contains(t, string(body), `newsdigest_items_total{provider="openai"} 2`)
	assert.Contains(t, string(body), "go_goroutines")

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()

	assert.Equal(t, http.StatusOK, health.StatusCode)
}
