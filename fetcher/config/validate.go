package config

import (
	"fmt"
)

var tracingExporters = map[string]bool{
	"console":       true,
	"http/protobuf": true,
	"grpc":          true,
}

// Validate checks constraints that span more than one field.
func Validate(fetchCfg *Fetch, timeoutsCfg *Timeouts, srvCfg *Serving, metricsCfg *Metrics, tracingCfg *Tracing) error {
	if fetchCfg.MaxSockets < 0 {
		return fmt.Errorf("FETCH_MAX_SOCKETS must not be negative, got %d", fetchCfg.MaxSockets)
	}
	if fetchCfg.DefaultTimeout < 0 {
		return fmt.Errorf("FETCH_DEFAULT_TIMEOUT must not be negative, got %s", fetchCfg.DefaultTimeout)
	}
	if timeoutsCfg.DialRetries < 0 {
		return fmt.Errorf("FETCH_DIAL_RETRIES must not be negative, got %d", timeoutsCfg.DialRetries)
	}
	if fetchCfg.DefaultTimeout > 0 && timeoutsCfg.Connect > fetchCfg.DefaultTimeout {
		return fmt.Errorf(
			"connect timeout (%s) should not be greater than the default request timeout (%s)",
			timeoutsCfg.Connect,
			fetchCfg.DefaultTimeout,
		)
	}
	if metricsCfg.OtelPrometheusExporterEnabled && metricsCfg.OtelPrometheusExporterPort == srvCfg.AdminPort {
		return fmt.Errorf("metrics port and admin port must differ, both are %d", srvCfg.AdminPort)
	}
	if tracingCfg.Enabled && !tracingExporters[tracingCfg.Exporter] {
		return fmt.Errorf("unsupported tracing exporter %q, must be one of: console, http/protobuf, grpc", tracingCfg.Exporter)
	}
	return nil
}
