package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"

	"github.com/kedacore/http-fetcher/pkg/fetch"
)

func newTestPrometheus(t *testing.T) (*PrometheusMetrics, *prometheus.Registry) {
	t.Helper()
	testRegistry := prometheus.NewRegistry()
	testPrometheus, err := NewPrometheusMetrics(promexporter.WithRegisterer(testRegistry))
	require.NoError(t, err)
	return testPrometheus, testRegistry
}

func TestPromFetchRequestCountMetric(t *testing.T) {
	testPrometheus, testRegistry := newTestPrometheus(t)
	expectedOutput := `
	# HELP fetch_request_count_total a counter of requests sent by the fetcher
	# TYPE fetch_request_count_total counter
	fetch_request_count_total{host="test-host",method="GET",otel_scope_name="keda-http-fetcher",otel_scope_schema_url="",otel_scope_version="",outcome="completed"} 2
	fetch_request_count_total{host="test-host",method="GET",otel_scope_name="keda-http-fetcher",otel_scope_schema_url="",otel_scope_version="",outcome="timeout"} 1
	`
	testPrometheus.RecordFetch("GET", "test-host", fetch.OutcomeCompleted)
	testPrometheus.RecordFetch("GET", "test-host", fetch.OutcomeCompleted)
	testPrometheus.RecordFetch("GET", "test-host", fetch.OutcomeTimeout)
	err := testutil.CollectAndCompare(testRegistry, strings.NewReader(expectedOutput), "fetch_request_count_total")
	assert.Nil(t, err)
}

func TestPromAgentCacheMetrics(t *testing.T) {
	testPrometheus, testRegistry := newTestPrometheus(t)
	expectedOutput := `
	# HELP agent_cache_lookup_count_total a counter of agent cache lookups
	# TYPE agent_cache_lookup_count_total counter
	agent_cache_lookup_count_total{otel_scope_name="keda-http-fetcher",otel_scope_schema_url="",otel_scope_version="",result="hit"} 1
	agent_cache_lookup_count_total{otel_scope_name="keda-http-fetcher",otel_scope_schema_url="",otel_scope_version="",result="miss"} 2
	# HELP agent_cache_disposal_count_total a counter of agents disposed by the agent cache
	# TYPE agent_cache_disposal_count_total counter
	agent_cache_disposal_count_total{otel_scope_name="keda-http-fetcher",otel_scope_schema_url="",otel_scope_version=""} 1
	`
	testPrometheus.RecordCacheLookup(false)
	testPrometheus.RecordCacheLookup(false)
	testPrometheus.RecordCacheLookup(true)
	testPrometheus.RecordAgentDisposal()
	err := testutil.CollectAndCompare(
		testRegistry,
		strings.NewReader(expectedOutput),
		"agent_cache_lookup_count_total",
		"agent_cache_disposal_count_total",
	)
	assert.Nil(t, err)
}
