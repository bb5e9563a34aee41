package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/petal-labs/aide/core"
)

// Subprotocol is negotiated on the websocket handshake.
const Subprotocol = "aide.bridge.v1"

// Commands accepted by a Server.
const (
	CommandTestConnection       = "testConnection"
	CommandSendMessage          = "sendMessage"
	CommandSendStreamingMessage = "sendStreamingMessage"
)

// EventStreamChunk carries one streamed text delta.
const EventStreamChunk = "streamChunk"

// commandArity is the minimum number of positional arguments per command.
var commandArity = map[string]int{
	CommandTestConnection:       1,
	CommandSendMessage:          2,
	CommandSendStreamingMessage: 2,
}

// FrameKind discriminates frames on the wire.
type FrameKind string

const (
	FrameCall   FrameKind = "call"
	FrameResult FrameKind = "result"
	FrameEvent  FrameKind = "event"
	FrameCancel FrameKind = "cancel"
)

// Frame is one websocket text message. Only the fields relevant to Kind are
// set: call{id, command, args}, result{id, result | error},
// event{event, payload}, cancel{id}.
type Frame struct {
	Kind    FrameKind         `json:"kind"`
	ID      string            `json:"id,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   *WireError        `json:"error,omitempty"`
	Event   string            `json:"event,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

// StreamChunk is the payload of EventStreamChunk. RequestID is the id of
// the call that produced it.
type StreamChunk struct {
	RequestID string `json:"requestId"`
	Text      string `json:"text"`
}

// WireConfig is the configuration argument of every command. Unlike
// core.Config it carries the API key in clear text, so frames must only
// travel over a trusted local channel.
type WireConfig struct {
	APIKey      string       `json:"apiKey"`
	BaseURL     string       `json:"baseUrl,omitempty"`
	Model       core.ModelID `json:"model,omitempty"`
	MaxTokens   int          `json:"maxTokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

// WireConfigFrom converts a core.Config for transmission.
func WireConfigFrom(cfg core.Config) WireConfig {
	return WireConfig{
		APIKey:      cfg.APIKey.Expose(),
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

// Config converts back to a core.Config.
func (w WireConfig) Config() core.Config {
	return core.Config{
		APIKey:      core.NewSecret(w.APIKey),
		BaseURL:     w.BaseURL,
		Model:       w.Model,
		MaxTokens:   w.MaxTokens,
		Temperature: w.Temperature,
	}
}

// decodeArg unmarshals a required positional argument. Missing and null
// arguments are rejected.
func decodeArg(args []json.RawMessage, i int, name string, v any) error {
	if i >= len(args) || isNull(args[i]) {
		return fmt.Errorf("%w: %s is required", core.ErrInvalidArguments, name)
	}
	if err := json.Unmarshal(args[i], v); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidArguments, name, err)
	}
	return nil
}

// decodeOptionalArg unmarshals an optional positional argument.
func decodeOptionalArg(args []json.RawMessage, i int, name string, v any) error {
	if i >= len(args) || isNull(args[i]) {
		return nil
	}
	return decodeArg(args, i, name, v)
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func encodeArgs(values ...any) ([]json.RawMessage, error) {
	args := make([]json.RawMessage, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("bridge: encode argument %d: %w", i, err)
		}
		args[i] = data
	}
	return args, nil
}
