// Package telemetry exports executor request lifecycle events to Prometheus
// and OpenTelemetry.
package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petal-labs/aide/core"
)

const namespace = "aide"

// Metrics is a core.TelemetryHook that records request counts, latency and
// token usage.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	inFlight        *prometheus.GaugeVec
	requestDuration *prometheus.HistogramVec
	tokensUsed      *prometheus.CounterVec
}

// NewMetrics registers the executor metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total number of model requests by outcome",
			},
			[]string{"provider", "model", "mode", "status"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "llm_requests_in_flight",
				Help:      "Model requests currently awaiting a response",
			},
			[]string{"provider"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Model request duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model", "mode"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_used_total",
				Help:      "Total number of tokens reported by the API",
			},
			[]string{"provider", "model", "type"}, // type: input, output
		),
	}
}

// OnRequestStart implements core.TelemetryHook.
func (m *Metrics) OnRequestStart(e core.RequestStartEvent) {
	m.inFlight.WithLabelValues(e.Provider).Inc()
}

// OnRequestEnd implements core.TelemetryHook.
func (m *Metrics) OnRequestEnd(e core.RequestEndEvent) {
	model := string(e.Model)
	mode := modeLabel(e.Streaming)

	m.inFlight.WithLabelValues(e.Provider).Dec()
	m.requestsTotal.WithLabelValues(e.Provider, model, mode, StatusLabel(e.Err)).Inc()
	m.requestDuration.WithLabelValues(e.Provider, model, mode).Observe(e.Duration().Seconds())

	if e.Usage != nil {
		m.tokensUsed.WithLabelValues(e.Provider, model, "input").Add(float64(e.Usage.InputTokens))
		m.tokensUsed.WithLabelValues(e.Provider, model, "output").Add(float64(e.Usage.OutputTokens))
	}
}

func modeLabel(streaming bool) string {
	if streaming {
		return "stream"
	}
	return "sync"
}

// StatusLabel names the outcome class of err for metric labels and span
// attributes.
func StatusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrCancelled):
		return "cancelled"
	case errors.Is(err, core.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, core.ErrInvalidTool):
		return "invalid_tool"
	case errors.Is(err, core.ErrNetwork):
		return "network"
	case errors.Is(err, core.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, core.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, core.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, core.ErrServer):
		return "server"
	case errors.Is(err, core.ErrAPI):
		return "api"
	default:
		return "error"
	}
}

var _ core.TelemetryHook = (*Metrics)(nil)
