package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
)

// OtelMetrics pushes the fetcher's metrics to an OTLP/HTTP collector. The
// endpoint, headers and interval come from the standard OTEL_EXPORTER_OTLP_*
// and OTEL_METRIC_EXPORT_* environment variables.
type OtelMetrics struct {
	*instruments
	provider *metric.MeterProvider
}

var _ Collector = (*OtelMetrics)(nil)

// NewOtelMetrics creates the OTLP collector. Options replace the default
// periodic OTLP/HTTP reader, which tests use to attach a manual reader.
func NewOtelMetrics(options ...metric.Option) (*OtelMetrics, error) {
	if options == nil {
		exporter, err := otlpmetrichttp.New(context.Background())
		if err != nil {
			return nil, fmt.Errorf("could not create otlpmetrichttp exporter: %w", err)
		}
		options = []metric.Option{
			metric.WithReader(metric.NewPeriodicReader(exporter)),
			metric.WithResource(newResource()),
		}
	}

	provider := metric.NewMeterProvider(options...)
	inst, err := newInstruments(provider.Meter(meterName))
	if err != nil {
		return nil, err
	}
	return &OtelMetrics{instruments: inst, provider: provider}, nil
}

// Shutdown flushes pending metrics and stops the exporter.
func (om *OtelMetrics) Shutdown(ctx context.Context) error {
	return om.provider.Shutdown(ctx)
}
