package anthropic

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/petal-labs/aide/core"
)

// DefaultVersion is the default Anthropic API version.
const DefaultVersion = "2023-06-01"

// DefaultTimeout bounds a non-streaming exchange.
const DefaultTimeout = 30 * time.Second

// options holds the settings shared by Client and HTTPTransport.
type options struct {
	httpClient *http.Client
	version    string
	headers    http.Header
	timeout    time.Duration

	transport Transport
	retry     core.RetryPolicy
	limiter   *rate.Limiter
	telemetry core.TelemetryHook
	logger    *zap.Logger
}

func defaultOptions() options {
	return options{
		httpClient: http.DefaultClient,
		version:    DefaultVersion,
		timeout:    DefaultTimeout,
		telemetry:  core.NoopTelemetryHook{},
		logger:     zap.NewNop(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Client or an HTTPTransport.
type Option func(*options)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithVersion sets the Anthropic API version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

// WithTimeout sets the timeout of non-streaming requests. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTransport replaces the default HTTP transport, for example with a
// bridge relay.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithRetryPolicy enables retries of non-streaming requests.
func WithRetryPolicy(p core.RetryPolicy) Option {
	return func(o *options) {
		o.retry = p
	}
}

// WithRateLimiter paces outgoing requests.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithTelemetry sets the request lifecycle hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(o *options) {
		if h != nil {
			o.telemetry = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
