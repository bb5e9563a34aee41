package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petal-labs/aide/core"
)

var (
	start = time.Date(2025, 5, 14, 12, 0, 0, 0, time.UTC)
	end   = start.Add(1500 * time.Millisecond)
)

func endEvent(err error, usage *core.Usage) core.RequestEndEvent {
	return core.RequestEndEvent{
		Provider:  "anthropic",
		Model:     "claude-sonnet-4-20250514",
		Streaming: true,
		Start:     start,
		End:       end,
		Usage:     usage,
		Err:       err,
	}
}

func TestMetricsRecordsRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnRequestStart(core.RequestStartEvent{Provider: "anthropic", Start: start})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight.WithLabelValues("anthropic")))

	m.OnRequestEnd(endEvent(nil, &core.Usage{InputTokens: 10, OutputTokens: 4}))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("anthropic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("anthropic", "claude-sonnet-4-20250514", "stream", "ok")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.tokensUsed.WithLabelValues("anthropic", "claude-sonnet-4-20250514", "input")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.tokensUsed.WithLabelValues("anthropic", "claude-sonnet-4-20250514", "output")))

	expected := `
# HELP aide_llm_requests_total Total number of model requests by outcome
# TYPE aide_llm_requests_total counter
aide_llm_requests_total{mode="stream",model="claude-sonnet-4-20250514",provider="anthropic",status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "aide_llm_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestMetricsWithoutUsage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnRequestStart(core.RequestStartEvent{Provider: "anthropic"})
	m.OnRequestEnd(endEvent(&core.ProviderError{Provider: "anthropic", Status: 429, Err: core.ErrRateLimited}, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("anthropic", "claude-sonnet-4-20250514", "stream", "rate_limited")))
	assert.Zero(t, testutil.CollectAndCount(m.tokensUsed))
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{core.Cancelled(context.Canceled), "cancelled"},
		{core.ErrNotConfigured, "not_configured"},
		{core.ErrInvalidTool, "invalid_tool"},
		{&core.ProviderError{Err: core.ErrNetwork}, "network"},
		{&core.ProviderError{Err: core.ErrMalformedResponse}, "malformed"},
		{&core.ProviderError{Status: 401, Err: core.ErrUnauthorized}, "unauthorized"},
		{&core.ProviderError{Status: 503, Err: core.ErrServer}, "server"},
		{&core.ProviderError{Status: 409, Err: core.ErrAPI}, "api"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusLabel(tt.err), "err %v", tt.err)
	}
}

func TestTracingRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	hook := NewTracing(tp)
	hook.OnRequestStart(core.RequestStartEvent{Provider: "anthropic", Start: start})
	hook.OnRequestEnd(endEvent(nil, &core.Usage{InputTokens: 7, OutputTokens: 3}))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "llm.send_message", span.Name())
	assert.True(t, span.StartTime().Equal(start), "start %v", span.StartTime())
	assert.True(t, span.EndTime().Equal(end), "end %v", span.EndTime())
	assert.Equal(t, codes.Ok, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("llm.model", "claude-sonnet-4-20250514"))
	assert.Contains(t, span.Attributes(), attribute.Int("llm.usage.input_tokens", 7))
	assert.Contains(t, span.Attributes(), attribute.Bool("llm.streaming", true))
}

func TestTracingRecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	hook := NewTracing(tp)
	parentCtx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	hook.SetParent(parentCtx)
	hook.OnRequestEnd(endEvent(&core.ProviderError{Provider: "anthropic", Err: core.ErrNetwork}, nil))
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	child := spans[0]
	assert.Equal(t, codes.Error, child.Status().Code)
	assert.Equal(t, "network", child.Status().Description)
	assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
	require.Len(t, child.Events(), 1)
	assert.Equal(t, "exception", child.Events()[0].Name)
}

func TestHooksCombine(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	m := NewMetrics(prometheus.NewRegistry())

	hook := core.MultiHook{m, NewTracing(tp)}
	hook.OnRequestStart(core.RequestStartEvent{Provider: "anthropic"})
	hook.OnRequestEnd(endEvent(nil, nil))

	assert.Len(t, recorder.Ended(), 1)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestsTotal))
}
