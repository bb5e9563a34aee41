package anthropic

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// anthropicRequest represents a request to the Anthropic Messages API.
type anthropicRequest struct {
	Model       string               `json:"model"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	Messages    []anthropicMessage   `json:"messages"`
	System      string               `json:"system,omitempty"`
	Stream      bool                 `json:"stream"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
}

// anthropicMessage represents a message in the Anthropic format.
type anthropicMessage struct {
	Role    string           `json:"role"`
	Content anthropicContent `json:"content"`
}

// anthropicContent is either a plain string or a list of content blocks.
type anthropicContent struct {
	Text   string
	Blocks []anthropicContentBlock
}

func (c anthropicContent) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

func (c *anthropicContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &c.Text)
	case '[':
		return json.Unmarshal(data, &c.Blocks)
	default:
		return fmt.Errorf("content must be a string or an array")
	}
}

// anthropicContentBlock represents a content block in a message.
type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// For image blocks
	Source *anthropicImageSource `json:"source,omitempty"`
	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// anthropicTool represents a tool definition in the Anthropic format.
type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// anthropicResponse represents a response from the Anthropic Messages API.
// Fields whose absence must be detected are pointers.
type anthropicResponse struct {
	ID           string                     `json:"id"`
	Type         string                     `json:"type"`
	Role         string                     `json:"role"`
	Content      []anthropicResponseContent `json:"content"`
	Model        string                     `json:"model"`
	StopReason   string                     `json:"stop_reason"`
	StopSequence *string                    `json:"stop_sequence"`
	Usage        *anthropicUsage            `json:"usage"`
}

// anthropicResponseContent represents a content block in a response.
type anthropicResponseContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`    // for tool_use
	Name  string          `json:"name,omitempty"`  // for tool_use
	Input json.RawMessage `json:"input,omitempty"` // for tool_use
}

// anthropicUsage represents token usage. Streaming events report the
// fields independently.
type anthropicUsage struct {
	InputTokens  *int `json:"input_tokens,omitempty"`
	OutputTokens *int `json:"output_tokens,omitempty"`
}

// Streaming types

// anthropicStreamEvent represents a streaming event from the Anthropic API.
// The Type field determines which other fields are populated.
type anthropicStreamEvent struct {
	Type string `json:"type"`
	// For message_start
	Message *anthropicResponse `json:"message,omitempty"`
	// For content_block_start and content_block_delta
	Index        int                       `json:"index"`
	ContentBlock *anthropicResponseContent `json:"content_block,omitempty"`
	Delta        *anthropicDelta           `json:"delta,omitempty"`
	// For message_delta
	Usage *anthropicUsage `json:"usage,omitempty"`
	// For error
	Error *anthropicError `json:"error,omitempty"`
}

// anthropicDelta represents a delta update in streaming.
type anthropicDelta struct {
	Type         string  `json:"type,omitempty"`
	Text         string  `json:"text,omitempty"`
	PartialJSON  string  `json:"partial_json,omitempty"`
	StopReason   string  `json:"stop_reason,omitempty"`
	StopSequence *string `json:"stop_sequence,omitempty"`
}

// anthropicError represents an error from the Anthropic API.
type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// anthropicErrorResponse represents an error response from the API.
type anthropicErrorResponse struct {
	Type  string         `json:"type"`
	Error anthropicError `json:"error"`
}
