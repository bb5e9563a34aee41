// Package core provides the shared vocabulary of the aide assistant client.
//
// aide configures, invokes and streams responses from the Anthropic Messages
// API and adapts it into a provider for a host's generic language-model
// abstraction. The core package holds the types every other package agrees on.
//
// # Configuration
//
// A [Holder] owns the current [Config]. It is constructed once at process
// start and passed explicitly to the executor and adapters:
//
//	holder := core.NewHolder(core.Config{})
//	holder.OnConfigurationChanged(func() { log.Println("reconfigured") })
//	holder.Configure(core.Config{APIKey: core.NewSecret(key)})
//	holder.IsConfigured() // true
//
// API keys are wrapped in [Secret] so they never appear in logs or JSON.
//
// # Messages
//
// A conversation is an ordered slice of [Message]. A message carries either
// plain Content or an ordered list of [ContentPart] values (text, inline
// base64 images, tool uses and tool results). The caller owns the transcript
// and supplies all of it on every call.
//
// # Errors
//
// Failures are classified with sentinel errors and [errors.Is]:
//
//	switch {
//	case errors.Is(err, core.ErrNotConfigured):
//	case errors.Is(err, core.ErrCancelled):
//	case errors.Is(err, core.ErrAPI):         // HTTP status >= 400
//	case errors.Is(err, core.ErrMalformedResponse):
//	case errors.Is(err, core.ErrNetwork):
//	}
//
// Provider failures are returned as [*ProviderError] carrying status, code,
// request id and a diagnostic message.
//
// # Telemetry
//
// [TelemetryHook] receives request start and end events that contain only
// operational metadata (model, timing, token counts).
package core
