package main

import (
	"net/http"

	"github.com/aristanetworks/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/valkey-io/valkey-sub003/internal/metrics"
)

var metricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Usage: "if set, serve Prometheus metrics on this address for the run's duration",
}

// serveMetrics registers col on a fresh registry and, if --metrics-addr
// is set, serves it over HTTP in the background for the run's duration.
// The returned stop func is always safe to call, even if no server was
// started.
func serveMetrics(c *cli.Context, col *metrics.Collector) (stop func()) {
	addr := c.String("metrics-addr")
	if addr == "" {
		return func() {}
	}

	reg := prometheus.NewRegistry()
	if err := col.Register(reg); err != nil {
		glog.Errorf("metrics: failed to register collector: %v", err)
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("metrics: server on %s stopped: %v", addr, err)
		}
	}()

	return func() { _ = srv.Close() }
}
