package commands

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/bridge"
	"github.com/petal-labs/aide/cli/keystore"
	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

// resolveAPIKey returns the keystore entry named by the config, then the
// environment variable. An empty result leaves the executor unconfigured.
func (a *App) resolveAPIKey() string {
	ref := a.cfg.Anthropic.APIKeyRef
	ks, err := a.newKeystore()
	if err == nil {
		var value string
		value, err = ks.Get(ref)
		if err == nil && value != "" {
			return value
		}
	}
	if err != nil && !keystore.IsNotFound(err) {
		a.logger.Warn("keystore unavailable", zap.String("ref", ref), zap.Error(err))
	}
	return strings.TrimSpace(a.getenv(anthropic.APIKeyEnvVar))
}

// pacingOptions applies the configured retry policy and rate limiter.
func (a *App) pacingOptions() []anthropic.Option {
	if a.cfg == nil {
		return nil
	}
	var opts []anthropic.Option
	if p := a.cfg.RetryPolicy(); p != nil {
		opts = append(opts, anthropic.WithRetryPolicy(p))
	}
	if l := a.cfg.RateLimiter(); l != nil {
		opts = append(opts, anthropic.WithRateLimiter(l))
	}
	return opts
}

// newExecutor builds the executor for one command. The returned release
// closes any bridge connection.
func (a *App) newExecutor(ctx context.Context) (*anthropic.Client, func(), error) {
	holder := core.NewHolder(a.cfg.Core(a.resolveAPIKey()))
	opts := append([]anthropic.Option{anthropic.WithLogger(a.logger)}, a.pacingOptions()...)
	release := func() {}

	switch {
	case a.transport != nil:
		opts = append(opts, anthropic.WithTransport(a.transport))
	case a.bridgeURL != "":
		relay, err := bridge.Dial(ctx, a.bridgeURL, bridge.WithLogger(a.logger))
		if err != nil {
			return nil, nil, exitWithCode(ExitNetwork, err)
		}
		opts = append(opts, anthropic.WithTransport(relay))
		release = func() {
			if err := relay.Close(); err != nil && !errors.Is(err, bridge.ErrClosed) {
				a.logger.Debug("bridge close", zap.Error(err))
			}
		}
	}

	return anthropic.New(holder, opts...), release, nil
}
