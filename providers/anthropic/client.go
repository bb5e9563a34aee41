package anthropic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/core"
)

// Client executes Messages API requests using the configuration held by a
// core.Holder. It never decides the transport at call time; the transport is
// fixed at construction.
// Client is safe for concurrent use.
type Client struct {
	holder *core.Holder
	opts   options

	transport Transport
	logger    *zap.Logger
}

// New creates a Client reading its configuration from holder.
func New(holder *core.Holder, opts ...Option) *Client {
	o := buildOptions(opts)
	transport := o.transport
	if transport == nil {
		transport = newHTTPTransport(o)
	}
	return &Client{
		holder:    holder,
		opts:      o,
		transport: transport,
		logger:    o.logger.With(zap.String("component", "anthropic.client")),
	}
}

// ID returns the provider identifier.
func (c *Client) ID() string {
	return providerID
}

// Holder returns the configuration holder the client reads from.
func (c *Client) Holder() *core.Holder {
	return c.holder
}

// SendMessage sends the conversation and returns the model's response.
//
// model overrides opts.Model when non-empty. A non-nil onProgress requests a
// streamed response; each text delta is passed to it in arrival order and the
// returned Response holds the accumulated text. ctx cancellation yields an
// error matching core.ErrCancelled.
func (c *Client) SendMessage(
	ctx context.Context,
	messages []core.Message,
	model core.ModelID,
	opts core.SendOptions,
	onProgress func(string),
) (*core.Response, error) {
	if err := core.ContextError(ctx); err != nil {
		return nil, err
	}

	cfg := c.holder.Current()
	if !cfg.IsConfigured() {
		return nil, errNotConfigured
	}
	if err := core.ValidateTools(opts.Tools, opts.ToolChoice); err != nil {
		return nil, err
	}

	ex := &Exchange{
		Config:     cfg,
		Messages:   messages,
		Params:     resolveParams(cfg, model, opts),
		OnProgress: onProgress,
	}

	start := time.Now()
	c.opts.telemetry.OnRequestStart(core.RequestStartEvent{
		Provider:  providerID,
		Model:     ex.Params.Model,
		Streaming: ex.Streaming(),
		Start:     start,
	})

	resp, err := c.execute(ctx, ex)
	if err != nil && ctx.Err() != nil && !errors.Is(err, core.ErrCancelled) {
		err = core.Cancelled(ctx.Err())
	}

	end := time.Now()
	var usage *core.Usage
	if resp != nil {
		usage = resp.Usage
	}
	c.opts.telemetry.OnRequestEnd(core.RequestEndEvent{
		Provider:  providerID,
		Model:     ex.Params.Model,
		Streaming: ex.Streaming(),
		Start:     start,
		End:       end,
		Usage:     usage,
		Err:       err,
	})

	fields := []zap.Field{
		zap.String("model", string(ex.Params.Model)),
		zap.Bool("stream", ex.Streaming()),
		zap.Int("messages", len(messages)),
		zap.Duration("duration", end.Sub(start)),
	}
	if err != nil {
		c.logger.Warn("request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	if usage != nil {
		fields = append(fields, zap.Int("input_tokens", usage.InputTokens), zap.Int("output_tokens", usage.OutputTokens))
	}
	c.logger.Debug("request completed", fields...)
	return resp, nil
}

// execute runs the exchange, pacing with the rate limiter and retrying
// non-streaming exchanges according to the retry policy.
func (c *Client) execute(ctx context.Context, ex *Exchange) (*core.Response, error) {
	for attempt := 0; ; attempt++ {
		if c.opts.limiter != nil {
			if err := c.opts.limiter.Wait(ctx); err != nil {
				if ctxErr := core.ContextError(ctx); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("anthropic: rate limiter: %w", err)
			}
		}

		resp, err := c.transport.Exchange(ctx, ex)
		if err == nil {
			return resp, nil
		}
		if ex.Streaming() || c.opts.retry == nil {
			return nil, err
		}

		delay, ok := c.opts.retry.NextDelay(attempt, err)
		if !ok {
			return nil, err
		}
		c.logger.Debug("retrying request",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, core.Cancelled(ctx.Err())
		case <-timer.C:
		}
	}
}

// TestConnection sends a minimal request to a low-cost model and reports
// whether it succeeded. Errors are logged, never returned.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.SendMessage(ctx,
		[]core.Message{{Role: core.RoleUser, Content: "Hello"}},
		TestConnectionModel,
		core.SendOptions{MaxTokens: testConnectionMaxTokens},
		nil,
	)
	if err != nil {
		c.logger.Info("connection test failed", zap.Error(err))
		return false
	}
	return true
}

const testConnectionMaxTokens = 10

// EstimateTokens approximates the token count of text without any I/O.
func (c *Client) EstimateTokens(text string) int {
	return core.EstimateTokens(text)
}

// resolveParams applies call options, then stored configuration, then the
// built-in defaults.
func resolveParams(cfg core.Config, model core.ModelID, opts core.SendOptions) Params {
	p := Params{
		Model:       model,
		MaxTokens:   core.DefaultMaxTokens,
		Temperature: core.DefaultTemperature,
		Tools:       opts.Tools,
		ToolChoice:  opts.ToolChoice,
	}

	switch {
	case p.Model != "":
	case opts.Model != "":
		p.Model = opts.Model
	case cfg.Model != "":
		p.Model = cfg.Model
	default:
		p.Model = DefaultModel()
	}

	switch {
	case opts.MaxTokens > 0:
		p.MaxTokens = opts.MaxTokens
	case cfg.MaxTokens > 0:
		p.MaxTokens = cfg.MaxTokens
	}

	switch {
	case opts.Temperature != nil:
		p.Temperature = *opts.Temperature
	case cfg.Temperature != nil:
		p.Temperature = *cfg.Temperature
	}

	return p
}
