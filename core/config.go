package core

import (
	"strings"
	"sync"
)

// Defaults applied when neither the call options nor the stored
// configuration supply a value.
const (
	DefaultBaseURL     = "https://api.anthropic.com"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// Config holds the credentials and generation parameters for the assistant.
type Config struct {
	APIKey  Secret
	BaseURL string
	Model   ModelID

	// MaxTokens of 0 means unset.
	MaxTokens int

	// Temperature of nil means unset; 0 is a valid explicit value.
	Temperature *float64
}

// IsConfigured reports whether the API key is non-empty. The key is not
// trimmed; callers that read keys from input trim them first.
func (c Config) IsConfigured() bool {
	return c.APIKey.Expose() != ""
}

// ResolvedBaseURL returns BaseURL without a trailing slash, or the default.
func (c Config) ResolvedBaseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// Holder owns the current Config and notifies subscribers on change.
// Holder is safe for concurrent use; the last Configure wins.
type Holder struct {
	mu  sync.RWMutex
	cfg Config

	subMu  sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func()
}

// NewHolder returns a Holder seeded with cfg. Seeding does not notify.
func NewHolder(cfg Config) *Holder {
	return &Holder{cfg: cfg}
}

// Configure replaces the configuration wholesale and then synchronously
// invokes every subscriber in subscription order. No validation is
// performed.
func (h *Holder) Configure(cfg Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()

	h.subMu.Lock()
	subs := make([]subscriber, len(h.subs))
	copy(subs, h.subs)
	h.subMu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Current returns a copy of the configuration.
func (h *Holder) Current() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// IsConfigured reports whether the current configuration has an API key.
func (h *Holder) IsConfigured() bool {
	return h.Current().IsConfigured()
}

// OnConfigurationChanged registers fn to run after every Configure.
// The returned function removes the subscription; calling it twice is a no-op.
func (h *Holder) OnConfigurationChanged(fn func()) (unsubscribe func()) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs = append(h.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			h.subMu.Lock()
			defer h.subMu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}
