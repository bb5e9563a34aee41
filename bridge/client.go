package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

// ErrClosed is returned for calls on a closed Client.
var ErrClosed = errors.New("bridge: client closed")

// Client relays executor calls to a Server. It implements
// anthropic.Transport, so an executor in a process without network access
// can be built with anthropic.WithTransport(client).
// Client is safe for concurrent use; concurrent streaming calls are told
// apart by request id.
type Client struct {
	conn   *websocket.Conn
	s      settings
	logger *zap.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[string]chan Frame
	listeners map[string]*listener
	closed    bool
	closeErr  error
	done      chan struct{}
}

// Dial connects to a Server at url (ws:// or wss://).
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	s := buildSettings(opts)
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w: %w", url, core.ErrNetwork, err)
	}
	conn.SetReadLimit(s.readLimit)

	c := &Client{
		conn:      conn,
		s:         s,
		logger:    s.logger.With(zap.String("component", "bridge.client")),
		pending:   make(map[string]chan Frame),
		listeners: make(map[string]*listener),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// listener delivers the chunks of one streaming call. Once stopped it
// drops chunks, and stop waits for a delivery in progress.
type listener struct {
	mu      sync.Mutex
	fn      func(string)
	stopped bool
}

func (l *listener) deliver(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.stopped {
		l.fn(text)
	}
}

func (l *listener) stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

// readLoop routes results to waiting calls and stream chunks to their
// listeners. Listeners run on this goroutine, so chunks of one call are
// delivered in arrival order and before that call's result.
func (c *Client) readLoop() {
	for {
		var f Frame
		if err := wsjson.Read(context.Background(), c.conn, &f); err != nil {
			c.shutdown(err)
			return
		}

		switch f.Kind {
		case FrameResult:
			c.mu.Lock()
			ch := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ch != nil {
				ch <- f
			}

		case FrameEvent:
			if f.Event != EventStreamChunk {
				continue
			}
			var chunk StreamChunk
			if err := json.Unmarshal(f.Payload, &chunk); err != nil {
				c.logger.Debug("dropping malformed chunk", zap.Error(err))
				continue
			}
			c.mu.Lock()
			l := c.listeners[chunk.RequestID]
			c.mu.Unlock()
			if l != nil {
				l.deliver(chunk.Text)
			}
		}
	}
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeErr = err
	close(c.done)
}

// call issues a command and waits for its result. onChunk, when non-nil,
// is registered before the call frame is sent and removed when the call
// settles.
func (c *Client) call(ctx context.Context, command string, onChunk func(string), args ...any) (json.RawMessage, error) {
	if err := core.ContextError(ctx); err != nil {
		return nil, err
	}
	rawArgs, err := encodeArgs(args...)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	reply := make(chan Frame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, c.connectionError()
	}
	c.pending[id] = reply
	if onChunk != nil {
		c.listeners[id] = &listener{fn: onChunk}
	}
	c.mu.Unlock()
	defer c.forget(id)

	if err := c.write(Frame{Kind: FrameCall, ID: id, Command: command, Args: rawArgs}); err != nil {
		return nil, fmt.Errorf("bridge: send %s: %w: %w", command, core.ErrNetwork, err)
	}

	select {
	case f := <-reply:
		if f.Error != nil {
			return nil, decodeError(f.Error)
		}
		return f.Result, nil
	case <-ctx.Done():
		if err := c.write(Frame{Kind: FrameCancel, ID: id}); err != nil {
			c.logger.Debug("cancel frame not sent", zap.String("id", id), zap.Error(err))
		}
		return nil, core.Cancelled(ctx.Err())
	case <-c.done:
		return nil, c.connectionError()
	}
}

// forget deregisters id. No chunk of id is delivered after it returns.
func (c *Client) forget(id string) {
	c.mu.Lock()
	l := c.listeners[id]
	delete(c.pending, id)
	delete(c.listeners, id)
	c.mu.Unlock()
	if l != nil {
		l.stop()
	}
}

func (c *Client) write(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.s.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.conn, f)
}

func (c *Client) connectionError() error {
	c.mu.Lock()
	err := c.closeErr
	c.mu.Unlock()
	if err == nil {
		return ErrClosed
	}
	return fmt.Errorf("%w: %w: %w", ErrClosed, core.ErrNetwork, err)
}

// Exchange implements anthropic.Transport by relaying to the Server.
func (c *Client) Exchange(ctx context.Context, ex *anthropic.Exchange) (*core.Response, error) {
	command := CommandSendMessage
	if ex.Streaming() {
		command = CommandSendStreamingMessage
	}

	opts := core.SendOptions{
		Model:       ex.Params.Model,
		MaxTokens:   ex.Params.MaxTokens,
		Temperature: core.Float64(ex.Params.Temperature),
		Tools:       ex.Params.Tools,
		ToolChoice:  ex.Params.ToolChoice,
	}

	raw, err := c.call(ctx, command, ex.OnProgress, WireConfigFrom(ex.Config), ex.Messages, opts)
	if err != nil {
		return nil, err
	}

	var resp core.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("bridge: decode response: %w: %w", core.ErrMalformedResponse, err)
	}
	return &resp, nil
}

// TestConnection asks the Server to test cfg. Failures yield false.
func (c *Client) TestConnection(ctx context.Context, cfg core.Config) bool {
	raw, err := c.call(ctx, CommandTestConnection, nil, WireConfigFrom(cfg))
	if err != nil {
		c.logger.Info("remote connection test failed", zap.Error(err))
		return false
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false
	}
	return ok
}

// Close closes the connection. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
	c.shutdown(nil)
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		return fmt.Errorf("bridge: close: %w", err)
	}
	return nil
}

// listenerCount returns the number of registered stream listeners.
func (c *Client) listenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

var _ anthropic.Transport = (*Client)(nil)
