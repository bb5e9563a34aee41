// Package core provides the shared types of the aide assistant client.
package core

import "encoding/json"

// Feature represents a capability that a model may support.
type Feature string

const (
	FeatureChat          Feature = "chat"
	FeatureChatStreaming Feature = "chat_streaming"
	FeatureToolCalling   Feature = "tool_calling"
	FeatureVision        Feature = "vision"
)

// ModelID is a string identifier for a model.
type ModelID string

// ModelInfo is a static catalog entry describing a selectable model.
type ModelInfo struct {
	ID              ModelID   `json:"id"`
	DisplayName     string    `json:"display_name"`
	Family          string    `json:"family"`
	Version         string    `json:"version"`
	MaxInputTokens  int       `json:"max_input_tokens"`
	MaxOutputTokens int       `json:"max_output_tokens"`
	Capabilities    []Feature `json:"capabilities"`
	IsDefault       bool      `json:"is_default,omitempty"`
}

// HasCapability reports whether the model supports the given feature.
func (m ModelInfo) HasCapability(f Feature) bool {
	for _, cap := range m.Capabilities {
		if cap == f {
			return true
		}
	}
	return false
}

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Usage tracks token consumption for a request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ContentBlock is one block of a model response.
// Type is "text" or "tool_use".
type ContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Response is the result of one Messages API exchange.
// For streamed exchanges it is synthesized from the accumulated deltas and
// Usage may be nil when the stream never reported consumption.
type Response struct {
	ID           string         `json:"id"`
	Model        ModelID        `json:"model"`
	Role         Role           `json:"role"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason,omitempty"`
	StopSequence *string        `json:"stop_sequence,omitempty"`
	Usage        *Usage         `json:"usage,omitempty"`
}

// Text returns the concatenation of all text blocks.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, b := range r.Content {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks of the response in order.
func (r *Response) ToolUses() []ContentBlock {
	if r == nil {
		return nil
	}
	var out []ContentBlock
	for _, b := range r.Content {
		if b.Type == "tool_use" {
			out = append(out, b)
		}
	}
	return out
}

// SendOptions carries per-call overrides. Zero values defer to the stored
// configuration and then to the built-in defaults.
type SendOptions struct {
	Model       ModelID          `json:"model,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  *ToolChoice      `json:"tool_choice,omitempty"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
