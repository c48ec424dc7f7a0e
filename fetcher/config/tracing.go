package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Tracing is the configuration for tracing the requests of the fetcher.
type Tracing struct {
	// States whether tracing should be enabled, False by default
	Enabled bool `envconfig:"OTEL_EXPORTER_OTLP_TRACES_ENABLED" default:"false"`
	// Sets what tracing export to use, must be one of: console,http/protobuf, grpc
	Exporter string `envconfig:"OTEL_EXPORTER_OTLP_TRACES_PROTOCOL" default:"console"`
}

// MustParseTracing parses the tracing configuration from the environment
// and panics if that fails
func MustParseTracing() *Tracing {
	ret := new(Tracing)
	envconfig.MustProcess("", ret)
	return ret
}
