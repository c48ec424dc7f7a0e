package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/kedacore/http-fetcher/pkg/build"
	"github.com/kedacore/http-fetcher/pkg/fetch"
)

// instruments are the counters shared by every OpenTelemetry backed
// collector.
type instruments struct {
	requestCounter  api.Int64Counter
	lookupCounter   api.Int64Counter
	disposalCounter api.Int64Counter
}

func newInstruments(meter api.Meter) (*instruments, error) {
	reqCounter, err := meter.Int64Counter("fetch_request_count", api.WithDescription("a counter of requests sent by the fetcher"))
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}
	lookupCounter, err := meter.Int64Counter("agent_cache_lookup_count", api.WithDescription("a counter of agent cache lookups"))
	if err != nil {
		return nil, fmt.Errorf("creating agent cache lookup counter: %w", err)
	}
	disposalCounter, err := meter.Int64Counter("agent_cache_disposal_count", api.WithDescription("a counter of agents disposed by the agent cache"))
	if err != nil {
		return nil, fmt.Errorf("creating agent disposal counter: %w", err)
	}
	return &instruments{
		requestCounter:  reqCounter,
		lookupCounter:   lookupCounter,
		disposalCounter: disposalCounter,
	}, nil
}

func newResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(build.Version()),
	)
}

func (i *instruments) RecordFetch(method, host string, outcome fetch.Outcome) {
	opt := api.WithAttributeSet(
		attribute.NewSet(
			attribute.Key("method").String(method),
			attribute.Key("host").String(host),
			attribute.Key("outcome").String(string(outcome)),
		),
	)
	i.requestCounter.Add(context.Background(), 1, opt)
}

func (i *instruments) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	opt := api.WithAttributeSet(
		attribute.NewSet(
			attribute.Key("result").String(result),
		),
	)
	i.lookupCounter.Add(context.Background(), 1, opt)
}

func (i *instruments) RecordAgentDisposal() {
	i.disposalCounter.Add(context.Background(), 1)
}
