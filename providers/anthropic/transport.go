package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/core"
)

// messagesPath is the API endpoint for messages.
const messagesPath = "/v1/messages"

// Params are the fully resolved generation parameters of one exchange.
type Params struct {
	Model       core.ModelID
	MaxTokens   int
	Temperature float64
	Tools       []core.ToolDefinition
	ToolChoice  *core.ToolChoice
}

// Exchange is one Messages API call handed to a Transport.
type Exchange struct {
	Config   core.Config
	Messages []core.Message
	Params   Params

	// OnProgress receives text deltas in arrival order. A non-nil
	// OnProgress makes the exchange a streaming one.
	OnProgress func(string)
}

// Streaming reports whether the exchange requests a streamed response.
func (e *Exchange) Streaming() bool {
	return e.OnProgress != nil
}

// Transport performs an exchange. Implementations must honor ctx
// cancellation and report it as core.ErrCancelled.
type Transport interface {
	Exchange(ctx context.Context, ex *Exchange) (*core.Response, error)
}

// HTTPTransport calls the Messages API directly.
// HTTPTransport is safe for concurrent use.
type HTTPTransport struct {
	client  *http.Client
	version string
	headers http.Header
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPTransport creates a direct HTTP transport. Only the HTTP related
// options and WithLogger apply.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	o := buildOptions(opts)
	return newHTTPTransport(o)
}

func newHTTPTransport(o options) *HTTPTransport {
	return &HTTPTransport{
		client:  o.httpClient,
		version: o.version,
		headers: o.headers,
		timeout: o.timeout,
		logger:  o.logger.With(zap.String("component", "anthropic.http")),
	}
}

// buildHeaders constructs the HTTP headers for an API request.
func (t *HTTPTransport) buildHeaders(apiKey core.Secret) http.Header {
	headers := make(http.Header)

	// Required headers for Anthropic API
	headers.Set("Content-Type", "application/json")
	headers.Set("x-api-key", apiKey.Expose())
	headers.Set("anthropic-version", t.version)

	for key, values := range t.headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	return headers
}

// Exchange implements Transport.
func (t *HTTPTransport) Exchange(ctx context.Context, ex *Exchange) (*core.Response, error) {
	body, err := json.Marshal(buildRequest(ex))
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode request: %w", err)
	}

	reqCtx := ctx
	if !ex.Streaming() && t.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	url := ex.Config.ResolvedBaseURL() + messagesPath
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newNetworkError(err)
	}
	httpReq.Header = t.buildHeaders(ex.Config.APIKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	requestID := resp.Header.Get("request-id")
	t.logger.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Bool("stream", ex.Streaming()),
	)

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, normalizeError(resp.StatusCode, respBody, requestID)
	}

	if ex.Streaming() {
		return decodeStream(ctx, resp.Body, ex.OnProgress, t.logger)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return parseResponse(respBody)
}

// transportError reports cancellation of the caller's context as such and
// everything else, including the request timeout, as a network error.
func transportError(ctx context.Context, err error) error {
	if ctxErr := core.ContextError(ctx); ctxErr != nil {
		return ctxErr
	}
	return newNetworkError(err)
}

var _ Transport = (*HTTPTransport)(nil)
