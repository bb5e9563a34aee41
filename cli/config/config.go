// Package config handles CLI configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Defaults applied to missing values.
const (
	DefaultKeyRef    = "anthropic"
	DefaultListen    = "127.0.0.1:7878"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	maxTokensLimit = 8192
	maxRetryLimit  = 10
)

// Config represents the CLI configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// AnthropicConfig holds executor settings. The API key itself lives in the
// keystore under APIKeyRef.
type AnthropicConfig struct {
	APIKeyRef   string   `yaml:"api_key_ref"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`

	Retry     RetryConfig     `yaml:"retry,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RetryConfig enables exponential backoff for non-streaming requests.
// MaxRetries of 0 disables retries; zero delays use the executor defaults.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries,omitempty"`
	BaseDelay  time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay   time.Duration `yaml:"max_delay,omitempty"`
}

// RateLimitConfig paces outgoing requests. RequestsPerSecond of 0 means
// unlimited; Burst defaults to 1.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// BridgeConfig holds relay settings. Listen is used by "bridge serve";
// URL, when set, makes other commands relay through a running bridge.
type BridgeConfig struct {
	Listen string `yaml:"listen,omitempty"`
	URL    string `yaml:"url,omitempty"`
}

// LogConfig selects the logger level (debug|info|warn|error) and format
// (json|console).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig enables OTLP span export from "bridge serve".
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled,omitempty"`
	OTLPEndpoint string  `yaml:"otlp_endpoint,omitempty"`
	ServiceName  string  `yaml:"service_name,omitempty"`
	SampleRate   float64 `yaml:"sample_rate,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Anthropic.APIKeyRef == "" {
		c.Anthropic.APIKeyRef = DefaultKeyRef
	}
	if c.Bridge.Listen == "" {
		c.Bridge.Listen = DefaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// DefaultConfigPath returns ~/.aide/config.yaml, or config.yaml in the
// working directory when the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "config.yaml"
	}
	return filepath.Join(home, ".aide", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns the defaults without error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports every out-of-range value.
func (c *Config) Validate() error {
	var errs []error
	a := c.Anthropic

	if a.MaxTokens != 0 && (a.MaxTokens < 1 || a.MaxTokens > maxTokensLimit) {
		errs = append(errs, fmt.Errorf("%w: anthropic.max_tokens %d not in 1..%d", ErrInvalid, a.MaxTokens, maxTokensLimit))
	}
	if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 1) {
		errs = append(errs, fmt.Errorf("%w: anthropic.temperature %v not in 0..1", ErrInvalid, *a.Temperature))
	}
	if a.Model != "" && anthropic.GetModelInfo(core.ModelID(a.Model)) == nil {
		errs = append(errs, fmt.Errorf("%w: anthropic.model %q is not a known model", ErrInvalid, a.Model))
	}
	if a.Retry.MaxRetries < 0 || a.Retry.MaxRetries > maxRetryLimit {
		errs = append(errs, fmt.Errorf("%w: anthropic.retry.max_retries %d not in 0..%d", ErrInvalid, a.Retry.MaxRetries, maxRetryLimit))
	}
	if a.Retry.BaseDelay < 0 || a.Retry.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: anthropic.retry delays must not be negative", ErrInvalid))
	}
	if a.RateLimit.RequestsPerSecond < 0 || a.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("%w: anthropic.rate_limit values must not be negative", ErrInvalid))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("%w: telemetry.sample_rate %v not in 0..1", ErrInvalid, c.Telemetry.SampleRate))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format))
	}
	return errors.Join(errs...)
}

// Core converts the executor settings into a core.Config with apiKey.
func (c *Config) Core(apiKey string) core.Config {
	return core.Config{
		APIKey:      core.NewSecret(apiKey),
		BaseURL:     c.Anthropic.BaseURL,
		Model:       core.ModelID(c.Anthropic.Model),
		MaxTokens:   c.Anthropic.MaxTokens,
		Temperature: c.Anthropic.Temperature,
	}
}

// RetryPolicy returns the configured policy, or nil when retries are off.
func (c *Config) RetryPolicy() core.RetryPolicy {
	r := c.Anthropic.Retry
	if r.MaxRetries == 0 {
		return nil
	}
	return core.NewRetryPolicy(core.RetryConfig{
		MaxRetries: r.MaxRetries,
		BaseDelay:  r.BaseDelay,
		MaxDelay:   r.MaxDelay,
		Jitter:     0.2,
	})
}

// RateLimiter returns the configured limiter, or nil when unlimited.
func (c *Config) RateLimiter() *rate.Limiter {
	rl := c.Anthropic.RateLimit
	if rl.RequestsPerSecond == 0 {
		return nil
	}
	burst := rl.Burst
	if burst == 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), burst)
}
