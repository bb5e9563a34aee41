package bridge

import (
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/providers/anthropic"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultReadLimit    = 16 << 20
)

type settings struct {
	logger       *zap.Logger
	transport    anthropic.Transport
	executorOpts []anthropic.Option
	writeTimeout time.Duration
	readLimit    int64
}

func buildSettings(opts []Option) settings {
	s := settings{
		logger:       zap.NewNop(),
		writeTimeout: defaultWriteTimeout,
		readLimit:    defaultReadLimit,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a Server or a Client.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTransport sets the transport the Server executes calls with.
// The default is a direct anthropic.HTTPTransport.
func WithTransport(t anthropic.Transport) Option {
	return func(s *settings) {
		s.transport = t
	}
}

// WithExecutorOptions passes options to the executor the Server builds for
// each call, for example telemetry or a rate limiter.
func WithExecutorOptions(opts ...anthropic.Option) Option {
	return func(s *settings) {
		s.executorOpts = append(s.executorOpts, opts...)
	}
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithReadLimit sets the maximum accepted frame size in bytes.
func WithReadLimit(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.readLimit = n
		}
	}
}
