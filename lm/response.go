package lm

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/petal-labs/aide/core"
)

// ChatResponse is the handle for one chat request. Its stream can be
// consumed once; later calls to Stream yield nothing.
type ChatResponse struct {
	parts    chan Part
	stop     chan struct{}
	stopOnce sync.Once
	consumed atomic.Bool

	mu      sync.Mutex // guards settled and the close of parts
	settled bool

	done chan struct{}
	resp *core.Response
	err  error
}

// completedResponse wraps a finished exchange.
func completedResponse(resp *core.Response) *ChatResponse {
	parts := responseParts(resp)
	r := &ChatResponse{
		parts: make(chan Part, len(parts)),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		resp:  resp,
	}
	for _, p := range parts {
		r.parts <- p
	}
	close(r.parts)
	close(r.done)
	r.settled = true
	return r
}

func pendingResponse(buffer int) *ChatResponse {
	return &ChatResponse{
		parts: make(chan Part, buffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// send delivers p to the consumer. It reports false once the consumer has
// stopped reading, ctx is done, or the response has settled.
func (r *ChatResponse) send(ctx context.Context, p Part) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return false
	}
	select {
	case r.parts <- p:
		return true
	case <-r.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (r *ChatResponse) settle(resp *core.Response, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resp, r.err = resp, err
	r.settled = true
	close(r.done)
	close(r.parts)
}

// Stream yields the response parts: text first, then tool calls. Breaking
// out of the loop early abandons the request.
func (r *ChatResponse) Stream() iter.Seq[Part] {
	return func(yield func(Part) bool) {
		if r.consumed.Swap(true) {
			return
		}
		defer r.stopOnce.Do(func() { close(r.stop) })
		for p := range r.parts {
			if !yield(p) {
				return
			}
		}
	}
}

// Wait blocks until the exchange settles and returns its outcome. If the
// stream has not been claimed, Wait claims it and discards its parts; the
// returned Response still carries the full text and tool calls.
func (r *ChatResponse) Wait(ctx context.Context) (*core.Response, error) {
	if !r.consumed.Swap(true) {
		go func() {
			for range r.parts {
			}
		}()
	}
	select {
	case <-r.done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, core.Cancelled(ctx.Err())
	}
}

// Err returns the exchange error once the stream has ended.
func (r *ChatResponse) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
