package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// PartType identifies the kind of a ContentPart.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartToolUse    PartType = "tool_use"
	PartToolResult PartType = "tool_result"
)

// ContentPart is one element of a multipart message.
// Only the fields relevant to Type are populated.
type ContentPart struct {
	Type PartType `json:"type"`

	// Text for PartText, or the result body for PartToolResult.
	Text string `json:"text,omitempty"`

	// MediaType and Data (base64) for PartImage.
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`

	// ID, Name and Input for PartToolUse; ID is the tool_use id for PartToolResult.
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Input   json.RawMessage `json:"input,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart returns an inline image part from a base64 payload.
func ImagePart(mediaType, base64Data string) ContentPart {
	return ContentPart{Type: PartImage, MediaType: mediaType, Data: base64Data}
}

// ToolUsePart returns an assistant tool invocation part.
func ToolUsePart(id, name string, input json.RawMessage) ContentPart {
	return ContentPart{Type: PartToolUse, ID: id, Name: name, Input: input}
}

// ToolResultPart returns a user tool result part.
func ToolResultPart(toolUseID, content string, isError bool) ContentPart {
	return ContentPart{Type: PartToolResult, ID: toolUseID, Text: content, IsError: isError}
}

// Message represents a single turn in a conversation.
// For plain text use Content. If Parts is non-empty, Content is ignored.
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// IsMultipart reports whether the message carries content parts.
func (m Message) IsMultipart() bool {
	return len(m.Parts) > 0
}

// PlainText returns the text of the message, joining text parts.
func (m Message) PlainText() string {
	if !m.IsMultipart() {
		return m.Content
	}
	var buf bytes.Buffer
	for _, p := range m.Parts {
		if p.Type == PartText || p.Type == PartToolResult {
			buf.WriteString(p.Text)
		}
	}
	return buf.String()
}

// messageJSON is the serialized form of Message. Content is either a JSON
// string or an array of parts.
type messageJSON struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes plain messages with string content and multipart
// messages with an array of parts.
func (m Message) MarshalJSON() ([]byte, error) {
	var content []byte
	var err error
	if m.IsMultipart() {
		content, err = json.Marshal(m.Parts)
	} else {
		content, err = json.Marshal(m.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageJSON{Role: m.Role, Content: content})
}

// UnmarshalJSON accepts either string or array content.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = ""
	m.Parts = nil

	content := bytes.TrimSpace(raw.Content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		return nil
	}
	switch content[0] {
	case '"':
		return json.Unmarshal(content, &m.Content)
	case '[':
		return json.Unmarshal(content, &m.Parts)
	default:
		return fmt.Errorf("message content must be a string or an array, got %s", content[:1])
	}
}

// ToolDefinition describes a tool the model may call.
// InputSchema must be a JSON Schema object with "type": "object".
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Validate checks the name and schema shape.
func (t ToolDefinition) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidTool)
	}
	if len(t.InputSchema) == 0 {
		return fmt.Errorf("%w: %s: input_schema required", ErrInvalidTool, t.Name)
	}
	var schema struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
		return fmt.Errorf("%w: %s: input_schema must be a JSON object: %v", ErrInvalidTool, t.Name, err)
	}
	if schema.Type != "object" {
		return fmt.Errorf("%w: %s: input_schema type must be \"object\", got %q", ErrInvalidTool, t.Name, schema.Type)
	}
	return nil
}

// ToolChoiceType selects how the model uses the supplied tools.
type ToolChoiceType string

const (
	ToolChoiceAuto ToolChoiceType = "auto"
	ToolChoiceAny  ToolChoiceType = "any"
	ToolChoiceTool ToolChoiceType = "tool"
	ToolChoiceNone ToolChoiceType = "none"
)

// ToolChoice is the tool_choice directive.
type ToolChoice struct {
	Type ToolChoiceType `json:"type"`
	Name string         `json:"name,omitempty"`
}

// Validate checks that the directive is well formed.
func (c ToolChoice) Validate() error {
	switch c.Type {
	case ToolChoiceAuto, ToolChoiceAny, ToolChoiceNone:
		if c.Name != "" {
			return fmt.Errorf("%w: tool_choice %q does not take a name", ErrInvalidTool, c.Type)
		}
		return nil
	case ToolChoiceTool:
		if c.Name == "" {
			return fmt.Errorf("%w: tool_choice \"tool\" requires a name", ErrInvalidTool)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown tool_choice type %q", ErrInvalidTool, c.Type)
	}
}

// ValidateTools validates every definition and the optional choice.
func ValidateTools(tools []ToolDefinition, choice *ToolChoice) error {
	var errs []error
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if choice != nil {
		if err := choice.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
