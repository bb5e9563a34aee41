package lm

import "go.uber.org/zap"

const defaultStreamBuffer = 64

type settings struct {
	streaming bool
	buffer    int
	logger    *zap.Logger
}

// Option configures a Provider.
type Option func(*settings)

// WithStreaming makes chat requests stream text deltas as they arrive.
// Streaming is off by default: the whole response is produced as one part.
func WithStreaming(enabled bool) Option {
	return func(s *settings) {
		s.streaming = enabled
	}
}

// WithStreamBuffer sets how many parts may be queued ahead of the consumer.
func WithStreamBuffer(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}
