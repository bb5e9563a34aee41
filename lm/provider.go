package lm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

// ModelPrefix namespaces model ids exposed to the host.
const ModelPrefix = "anthropic/"

// Provider exposes the executor through the host language-model interface.
// It owns the configuration of its executor.
type Provider struct {
	client *anthropic.Client
	holder *core.Holder
	s      settings
}

// NewProvider returns a Provider backed by client.
func NewProvider(client *anthropic.Client, opts ...Option) *Provider {
	s := settings{buffer: defaultStreamBuffer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Provider{client: client, holder: client.Holder(), s: s}
}

// Configure replaces the executor configuration.
func (p *Provider) Configure(cfg core.Config) {
	p.holder.Configure(cfg)
}

// IsConfigured reports whether an API key is set.
func (p *Provider) IsConfigured() bool {
	return p.holder.IsConfigured()
}

// OnDidChangeModels registers fn to run whenever the configuration changes,
// since that may change which models are available.
func (p *Provider) OnDidChangeModels(fn func()) (unsubscribe func()) {
	return p.holder.OnConfigurationChanged(fn)
}

// PrepareLanguageModelChat returns the selectable models. It returns none
// when no key is configured, or when the connectivity test fails and
// opts.Silent is false.
func (p *Provider) PrepareLanguageModelChat(ctx context.Context, opts PrepareOptions) []ChatModel {
	if !p.holder.IsConfigured() {
		p.s.logger.Info("no API key configured, no models available")
		return []ChatModel{}
	}
	if !opts.Silent && !p.client.TestConnection(ctx) {
		p.s.logger.Warn("connection test failed, no models available")
		return []ChatModel{}
	}

	infos := p.client.Models()
	models := make([]ChatModel, len(infos))
	for i, info := range infos {
		models[i] = chatModel(info)
	}
	return models
}

func chatModel(info core.ModelInfo) ChatModel {
	return ChatModel{
		ID:              ModelPrefix + string(info.ID),
		Name:            info.DisplayName,
		Family:          info.Family,
		Version:         info.Version,
		MaxInputTokens:  info.MaxInputTokens,
		MaxOutputTokens: info.MaxOutputTokens,
		Capabilities: ModelCapabilities{
			ImageInput:  info.HasCapability(core.FeatureVision),
			ToolCalling: info.HasCapability(core.FeatureToolCalling),
		},
		IsDefault: info.IsDefault,
	}
}

// SendChatRequest sends msgs to the model named by modelID and returns a
// handle to the response. In streaming mode the handle is returned before
// the exchange completes and failures surface through Wait and Err.
func (p *Provider) SendChatRequest(
	ctx context.Context,
	modelID string,
	msgs []ChatMessage,
	fromExtensionID string,
	opts ChatRequestOptions,
) (*ChatResponse, error) {
	if err := core.ContextError(ctx); err != nil {
		return nil, err
	}
	if !p.holder.IsConfigured() {
		return nil, fmt.Errorf("lm: %w", core.ErrNotConfigured)
	}

	model := core.ModelID(strings.TrimPrefix(modelID, ModelPrefix))
	messages, skipped := toCoreMessages(msgs)
	if len(skipped) > 0 {
		p.s.logger.Debug("dropping data parts", zap.String("detail", describeSkipped(skipped)))
	}
	sendOpts := toSendOptions(opts)

	p.s.logger.Debug("chat request",
		zap.String("model", string(model)),
		zap.String("extension", fromExtensionID),
		zap.Int("messages", len(messages)),
		zap.Bool("streaming", p.s.streaming),
	)

	if !p.s.streaming {
		resp, err := p.client.SendMessage(ctx, messages, model, sendOpts, nil)
		if err != nil {
			return nil, err
		}
		return completedResponse(resp), nil
	}

	r := pendingResponse(p.s.buffer)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		go func() {
			select {
			case <-r.stop:
				cancel()
			case <-ctx.Done():
			}
		}()

		resp, err := p.client.SendMessage(ctx, messages, model, sendOpts, func(text string) {
			r.send(ctx, TextPart{Value: text})
		})
		if err == nil {
			for _, part := range toolCallParts(resp) {
				if !r.send(ctx, part) {
					break
				}
			}
		}
		r.settle(resp, err)
	}()
	return r, nil
}

// ProvideTokenCount estimates the tokens msg contributes to a prompt.
func (p *Provider) ProvideTokenCount(_ context.Context, _ string, msg ChatMessage) int {
	return p.client.EstimateTokens(PlainText(msg))
}

// ProvideTextTokenCount estimates the tokens of a plain string.
func (p *Provider) ProvideTextTokenCount(_ context.Context, _ string, text string) int {
	return p.client.EstimateTokens(text)
}
