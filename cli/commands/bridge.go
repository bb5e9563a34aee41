package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/aide/bridge"
	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
	"github.com/petal-labs/aide/telemetry"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	listen string
}

func (a *App) newBridgeCommand() *cobra.Command {
	bridgeCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Run the request bridge",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge over websocket",
		Long: `Serve the bridge so that other processes can send requests through this
one. Routes:
  /bridge   websocket endpoint
  /metrics  Prometheus metrics
  /healthz  liveness check`,
		RunE: a.runBridgeServe,
	}
	serveCmd.Flags().StringVar(&a.serve.listen, "listen", "", "listen address (default from config bridge.listen)")

	bridgeCmd.AddCommand(serveCmd)
	return bridgeCmd
}

// newBridgeRouter wires the bridge, metrics and health routes. Executors
// created by the bridge report to reg and to the global tracer provider,
// and share the configured retry policy and rate limiter.
func (a *App) newBridgeRouter(reg *prometheus.Registry) http.Handler {
	hook := core.MultiHook{
		telemetry.NewMetrics(reg),
		telemetry.NewTracing(otel.GetTracerProvider()),
	}

	opts := []bridge.Option{
		bridge.WithLogger(a.logger),
		bridge.WithExecutorOptions(anthropic.WithTelemetry(hook)),
		bridge.WithExecutorOptions(a.pacingOptions()...),
	}
	if a.transport != nil {
		opts = append(opts, bridge.WithTransport(a.transport))
	}

	router := mux.NewRouter()
	router.Handle("/bridge", bridge.NewServer(opts...))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	router.Use(a.accessLog)
	return router
}

func (a *App) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (a *App) runBridgeServe(cmd *cobra.Command, args []string) error {
	addr := a.serve.listen
	if addr == "" {
		addr = a.cfg.Bridge.Listen
	}

	tracing, err := telemetry.InitTracing(cmd.Context(), telemetry.TracingConfig{
		Enabled:      a.cfg.Telemetry.Enabled,
		OTLPEndpoint: a.cfg.Telemetry.OTLPEndpoint,
		ServiceName:  a.cfg.Telemetry.ServiceName,
		SampleRate:   a.cfg.Telemetry.SampleRate,
		Version:      Version,
	}, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			a.logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return exitWithCode(ExitNetwork, fmt.Errorf("listen %s: %w", addr, err))
	}

	srv := &http.Server{
		Handler:           a.newBridgeRouter(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(a.stdout, "bridge listening on ws://%s/bridge\n", ln.Addr())
	a.logger.Info("bridge serving", zap.String("addr", ln.Addr().String()))

	return serve(cmd.Context(), srv, ln, a.logger)
}

// serve runs srv on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("bridge shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}
