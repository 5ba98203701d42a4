package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/szibis/des/internal/health"
	"github.com/szibis/des/internal/logging"
)

// metricsServer exposes the default Prometheus registry and health probes
// while a command runs.
type metricsServer struct {
	srv     *http.Server
	health  *health.Checker
	addr    string
	done    chan struct{}
	timeout time.Duration
}

// startMetricsServer listens on addr and serves /metrics, /live and /ready. An empty addr
// returns a nil server, whose Shutdown is a no-op.
func startMetricsServer(addr string, shutdownTimeout time.Duration) (*metricsServer, error) {
	if addr == "" {
		return nil, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	checker := health.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/live", checker.LiveHandler())
	mux.HandleFunc("/ready", checker.ReadyHandler())

	m := &metricsServer{
		health: checker,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr:    ln.Addr().String(),
		done:    make(chan struct{}),
		timeout: shutdownTimeout,
	}
	go func() {
		defer close(m.done)
		logging.Info("metrics endpoint started", logging.F("addr", m.addr, "path", "/metrics"))
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server error", logging.F("error", err.Error()))
		}
	}()
	return m, nil
}

// Addr returns the bound listen address.
func (m *metricsServer) Addr() string {
	if m == nil {
		return ""
	}
	return m.addr
}

// Health returns the readiness registry, or nil when the server is disabled.
func (m *metricsServer) Health() *health.Checker {
	if m == nil {
		return nil
	}
	return m.health
}

// Shutdown stops the server and waits for the serve loop to exit.
func (m *metricsServer) Shutdown() {
	if m == nil {
		return
	}
	m.health.SetShuttingDown()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.srv.Shutdown(ctx); err != nil {
		logging.Warn("metrics server shutdown", logging.F("error", err.Error()))
	}
	<-m.done
}
