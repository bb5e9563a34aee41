package core

import (
	"errors"
	"testing"
	"time"
)

// recordingHook records every event it receives.
type recordingHook struct {
	name   string
	log    *[]string
	starts []RequestStartEvent
	ends   []RequestEndEvent
}

func (h *recordingHook) OnRequestStart(e RequestStartEvent) {
	h.starts = append(h.starts, e)
	*h.log = append(*h.log, h.name+":start")
}

func (h *recordingHook) OnRequestEnd(e RequestEndEvent) {
	h.ends = append(h.ends, e)
	*h.log = append(*h.log, h.name+":end")
}

func TestRequestEndEventDuration(t *testing.T) {
	start := time.Now()
	e := RequestEndEvent{Start: start, End: start.Add(1500 * time.Millisecond)}
	if got := e.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
}

func TestNoopTelemetryHook(t *testing.T) {
	var h TelemetryHook = NoopTelemetryHook{}
	h.OnRequestStart(RequestStartEvent{Provider: "anthropic"})
	h.OnRequestEnd(RequestEndEvent{Provider: "anthropic", Err: errors.New("boom")})
}

func TestMultiHookFansOutInOrder(t *testing.T) {
	var log []string
	a := &recordingHook{name: "a", log: &log}
	b := &recordingHook{name: "b", log: &log}
	hook := MultiHook{a, b}

	start := RequestStartEvent{Provider: "anthropic", Model: "claude-3-5-haiku-20241022", Streaming: true}
	hook.OnRequestStart(start)
	end := RequestEndEvent{Provider: "anthropic", Usage: &Usage{InputTokens: 3, OutputTokens: 4}}
	hook.OnRequestEnd(end)

	want := []string{"a:start", "b:start", "a:end", "b:end"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
	if len(b.starts) != 1 || !b.starts[0].Streaming {
		t.Errorf("b.starts = %+v", b.starts)
	}
	if b.ends[0].Usage.Total() != 7 {
		t.Errorf("Usage.Total() = %d, want 7", b.ends[0].Usage.Total())
	}
}

func TestMultiHookEmpty(t *testing.T) {
	var hook MultiHook
	hook.OnRequestStart(RequestStartEvent{})
	hook.OnRequestEnd(RequestEndEvent{})
}
