package metrics

import (
	"fmt"

	"github.com/kedacore/http-fetcher/fetcher/config"
	"github.com/kedacore/http-fetcher/pkg/fetch"
)

const (
	meterName   = "keda-http-fetcher"
	serviceName = "http-fetcher"
)

// Collector records the fetcher's metrics to one backend.
type Collector interface {
	fetch.Recorder
}

// Collectors fans every record out to each of its collectors.
type Collectors []Collector

var _ fetch.Recorder = Collectors(nil)

// NewMetricsCollectors builds the collectors metricsConfig enables.
func NewMetricsCollectors(metricsConfig *config.Metrics) (Collectors, error) {
	var collectors Collectors
	if metricsConfig.OtelPrometheusExporterEnabled {
		promMetrics, err := NewPrometheusMetrics()
		if err != nil {
			return nil, fmt.Errorf("creating Prometheus metrics: %w", err)
		}
		collectors = append(collectors, promMetrics)
	}

	if metricsConfig.OtelHTTPExporterEnabled {
		otelMetrics, err := NewOtelMetrics()
		if err != nil {
			return nil, fmt.Errorf("creating OTLP metrics: %w", err)
		}
		collectors = append(collectors, otelMetrics)
	}
	return collectors, nil
}

func (c Collectors) RecordFetch(method, host string, outcome fetch.Outcome) {
	for _, collector := range c {
		collector.RecordFetch(method, host, outcome)
	}
}

func (c Collectors) RecordCacheLookup(hit bool) {
	for _, collector := range c {
		collector.RecordCacheLookup(hit)
	}
}

func (c Collectors) RecordAgentDisposal() {
	for _, collector := range c {
		collector.RecordAgentDisposal()
	}
}
