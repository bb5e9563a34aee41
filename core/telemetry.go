package core

import "time"

// TelemetryHook receives request lifecycle notifications from the executor.
//
// Events carry operational metadata only. API keys, prompt text and response
// text are never included, so events are safe to export to metrics and
// tracing backends.
type TelemetryHook interface {
	// OnRequestStart is called before a request is dispatched.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called once the request settles.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent describes a starting request.
type RequestStartEvent struct {
	Provider  string
	Model     ModelID
	Streaming bool
	Start     time.Time
}

// RequestEndEvent describes a settled request.
type RequestEndEvent struct {
	Provider  string
	Model     ModelID
	Streaming bool
	Start     time.Time
	End       time.Time
	Usage     *Usage // nil when unknown
	Err       error  // nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is the default hook.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// MultiHook fans events out to several hooks in order.
type MultiHook []TelemetryHook

// OnRequestStart forwards to every hook.
func (m MultiHook) OnRequestStart(e RequestStartEvent) {
	for _, h := range m {
		h.OnRequestStart(e)
	}
}

// OnRequestEnd forwards to every hook.
func (m MultiHook) OnRequestEnd(e RequestEndEvent) {
	for _, h := range m {
		h.OnRequestEnd(e)
	}
}

var (
	_ TelemetryHook = NoopTelemetryHook{}
	_ TelemetryHook = MultiHook(nil)
)
