package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/kedacore/http-fetcher/fetcher/config"
	"github.com/kedacore/http-fetcher/fetcher/metrics"
	"github.com/kedacore/http-fetcher/fetcher/tracing"
	"github.com/kedacore/http-fetcher/pkg/agent"
	"github.com/kedacore/http-fetcher/pkg/build"
	"github.com/kedacore/http-fetcher/pkg/fetch"
	kedahttp "github.com/kedacore/http-fetcher/pkg/http"
	pkglog "github.com/kedacore/http-fetcher/pkg/log"
)

func main() {
	lggr, err := pkglog.NewZapr()
	if err != nil {
		fmt.Println("Error building logger", err)
		os.Exit(1)
	}
	fetchCfg := config.MustParseFetch()
	timeoutCfg := config.MustParseTimeouts()
	servingCfg := config.MustParseServing()
	metricsCfg := config.MustParseMetrics()
	tracingCfg := config.MustParseTracing()
	if err := config.Validate(fetchCfg, timeoutCfg, servingCfg, metricsCfg, tracingCfg); err != nil {
		lggr.Error(err, "invalid configuration")
		os.Exit(1)
	}

	ctx, ctxDone := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer ctxDone()

	lggr.Info(
		"starting fetcher",
		"fetchConfig", fetchCfg,
		"timeoutConfig", timeoutCfg,
		"servingConfig", servingCfg,
		"metricsConfig", metricsCfg,
		"tracingConfig", tracingCfg,
	)

	collectors, err := metrics.NewMetricsCollectors(metricsCfg)
	if err != nil {
		lggr.Error(err, "creating metrics collectors")
		os.Exit(1)
	}

	var wrap func(http.RoundTripper) http.RoundTripper
	if tracingCfg.Enabled {
		shutdown, err := tracing.SetupOTelSDK(ctx, *tracingCfg)
		if err != nil {
			lggr.Error(err, "Error setting up tracer")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				lggr.Error(err, "Error shutting down tracer")
			}
		}()
		wrap = tracing.InstrumentTransport
	}

	transportCfg := timeoutCfg.TransportConfig()
	fetcher, err := fetch.New(fetch.HTTPDo, fetch.Config{
		Logger:         lggr,
		Family:         fetchCfg.TransportFamily,
		AgentCacheSize: fetchCfg.CacheSize(),
		DefaultTimeout: fetchCfg.DefaultTimeout,
		AbortCompat:    fetchCfg.AbortCompat,
		AgentOptions:   fetchCfg.AgentOptions(),
		Transport:      &transportCfg,
		Proxy:          agent.EnvProxyResolver{},
		Wrap:           wrap,
		Recorder:       collectors,
	})
	if err != nil {
		lggr.Error(err, "creating fetcher")
		os.Exit(1)
	}
	defer fetcher.ClearCache()

	errGrp, ctx := errgroup.WithContext(ctx)

	if metricsCfg.OtelPrometheusExporterEnabled {
		errGrp.Go(func() error {
			defer ctxDone()
			err := runMetricsServer(ctx, lggr, metricsCfg.OtelPrometheusExporterPort)
			lggr.Error(err, "metrics server failed")
			return err
		})
	}

	errGrp.Go(func() error {
		defer ctxDone()
		err := runAdminServer(ctx, lggr, fetcher, servingCfg, fetchCfg, timeoutCfg)
		lggr.Error(err, "admin server failed")
		return err
	})

	build.PrintComponentInfo(lggr, "Fetcher")

	if err := errGrp.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lggr.Error(err, "error with fetcher")
		os.Exit(1)
	}
	lggr.Info("fetcher stopped")
}

func runAdminServer(
	ctx context.Context,
	lggr logr.Logger,
	fetcher *fetch.Fetcher,
	servingCfg *config.Serving,
	fetchCfg *config.Fetch,
	timeoutCfg *config.Timeouts,
) error {
	lggr = lggr.WithName("runAdminServer")
	hdl := BuildAdminHandler(lggr, fetcher, servingCfg.EnableFetchRoute, fetchCfg, timeoutCfg, servingCfg)

	addr := fmt.Sprintf("0.0.0.0:%d", servingCfg.AdminPort)
	lggr.Info("admin server starting", "address", addr)
	return kedahttp.ServeContext(ctx, addr, hdl)
}

func runMetricsServer(ctx context.Context, lggr logr.Logger, port int) error {
	lggr = lggr.WithName("runMetricsServer")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	lggr.Info("metrics server starting", "address", addr)
	return kedahttp.ServeContext(ctx, addr, mux)
}
