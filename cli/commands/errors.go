package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/aide/bridge"
	"github.com/petal-labs/aide/cli/config"
	"github.com/petal-labs/aide/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return classify(err)
}

func classify(err error) int {
	switch {
	case errors.Is(err, core.ErrNetwork), errors.Is(err, bridge.ErrClosed):
		return ExitNetwork
	case errors.Is(err, core.ErrNotConfigured),
		errors.Is(err, core.ErrInvalidTool),
		errors.Is(err, core.ErrInvalidArguments),
		errors.Is(err, config.ErrInvalid):
		return ExitValidation
	case errors.Is(err, core.ErrAPI),
		errors.Is(err, core.ErrMalformedResponse),
		errors.Is(err, core.ErrUnknownCommand),
		errors.Is(err, core.ErrCancelled):
		return ExitProvider
	default:
		return ExitValidation
	}
}

// providerFailure maps a request error to its exit code.
func providerFailure(err error) error {
	return exitWithCode(classify(err), err)
}

func (a *App) reportError(err error) {
	if a.jsonOutput {
		a.outputErrorJSON(err)
		return
	}
	if errors.Is(err, core.ErrNotConfigured) {
		fmt.Fprintf(a.stderr, "Error: %v: run 'aide keys set' or set ANTHROPIC_API_KEY\n", err)
		return
	}

	var provErr *core.ProviderError
	if errors.As(err, &provErr) {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if provErr.RequestID != "" {
			fmt.Fprintf(a.stderr, "  Provider: %s, Request ID: %s\n", provErr.Provider, provErr.RequestID)
		}
		return
	}
	var remote *bridge.RemoteError
	if errors.As(err, &remote) && remote.RequestID != "" {
		fmt.Fprintf(a.stderr, "Error: %v\n  Request ID: %s\n", err, remote.RequestID)
		return
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
}

func errorType(err error) string {
	switch ExitCode(err) {
	case ExitNetwork:
		return "network_error"
	case ExitProvider:
		var provErr *core.ProviderError
		if errors.As(err, &provErr) && provErr.Code != "" {
			return provErr.Code
		}
		var remote *bridge.RemoteError
		if errors.As(err, &remote) && remote.Code != "" {
			return remote.Code
		}
		return "provider_error"
	default:
		return "validation_error"
	}
}

func (a *App) outputErrorJSON(err error) {
	body := map[string]any{
		"type":    errorType(err),
		"message": err.Error(),
	}
	var provErr *core.ProviderError
	if errors.As(err, &provErr) {
		body["provider"] = provErr.Provider
		if provErr.Status != 0 {
			body["status"] = provErr.Status
		}
		if provErr.RequestID != "" {
			body["request_id"] = provErr.RequestID
		}
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"error": body})
}
