package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/aide/core"
)

// TracerName is the instrumentation scope used for executor spans.
const TracerName = "github.com/petal-labs/aide"

// Tracing is a core.TelemetryHook that records one span per request.
//
// Hook events carry no context, so spans are started when the request
// settles and backdated to the request start. They are roots unless Parent
// is set.
type Tracing struct {
	tracer trace.Tracer

	mu     sync.RWMutex
	parent context.Context
}

// NewTracing returns a hook that records spans with a tracer from tp.
func NewTracing(tp trace.TracerProvider) *Tracing {
	return &Tracing{
		tracer: tp.Tracer(TracerName),
		parent: context.Background(),
	}
}

// SetParent makes subsequent spans children of the span in ctx.
func (t *Tracing) SetParent(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parent = ctx
}

// OnRequestStart implements core.TelemetryHook.
func (t *Tracing) OnRequestStart(core.RequestStartEvent) {}

// OnRequestEnd implements core.TelemetryHook.
func (t *Tracing) OnRequestEnd(e core.RequestEndEvent) {
	t.mu.RLock()
	parent := t.parent
	t.mu.RUnlock()

	attrs := []attribute.KeyValue{
		attribute.String("llm.provider", e.Provider),
		attribute.String("llm.model", string(e.Model)),
		attribute.Bool("llm.streaming", e.Streaming),
		attribute.String("llm.status", StatusLabel(e.Err)),
	}
	if e.Usage != nil {
		attrs = append(attrs,
			attribute.Int("llm.usage.input_tokens", e.Usage.InputTokens),
			attribute.Int("llm.usage.output_tokens", e.Usage.OutputTokens),
		)
	}

	_, span := t.tracer.Start(parent, "llm.send_message",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(attrs...),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, StatusLabel(e.Err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.End))
}

var _ core.TelemetryHook = (*Tracing)(nil)
