package metrics

import (
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusMetrics exposes the fetcher's metrics through the OpenTelemetry
// Prometheus exporter. The exporter registers with
// prometheus.DefaultRegisterer unless an option says otherwise.
type PrometheusMetrics struct {
	*instruments
}

var _ Collector = (*PrometheusMetrics)(nil)

func NewPrometheusMetrics(options ...prometheus.Option) (*PrometheusMetrics, error) {
	exporter, err := prometheus.New(options...)
	if err != nil {
		return nil, fmt.Errorf("could not create Prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource()),
	)
	inst, err := newInstruments(provider.Meter(meterName))
	if err != nil {
		return nil, err
	}
	return &PrometheusMetrics{instruments: inst}, nil
}
