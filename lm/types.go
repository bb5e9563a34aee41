package lm

import "encoding/json"

// ChatRole is the author of a host chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is the host representation of one conversation turn.
type ChatMessage struct {
	Role    ChatRole
	Name    string
	Content []Part
}

// NewUserMessage returns a user message with a single text part.
func NewUserMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: []Part{TextPart{Value: text}}}
}

// NewAssistantMessage returns an assistant message with a single text part.
func NewAssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: []Part{TextPart{Value: text}}}
}

// Part is one element of a host message or response stream. It is one of
// TextPart, DataPart, ToolCallPart or ToolResultPart.
type Part interface {
	isPart()
}

// TextPart is plain text.
type TextPart struct {
	Value string
}

// DataPart is raw binary content such as an image.
type DataPart struct {
	Data     []byte
	MimeType string
}

// ToolCallPart is a tool invocation requested by the model.
type ToolCallPart struct {
	CallID string
	Name   string
	Input  json.RawMessage
}

// ToolResultPart is the caller's answer to a ToolCallPart.
type ToolResultPart struct {
	CallID  string
	Content string
	IsError bool
}

func (TextPart) isPart()       {}
func (DataPart) isPart()       {}
func (ToolCallPart) isPart()   {}
func (ToolResultPart) isPart() {}

// ToolDescriptor is a host tool definition.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolMode controls whether the model must call a tool.
type ToolMode int

const (
	ToolModeAuto ToolMode = iota
	ToolModeRequired
)

// ChatRequestOptions are the per-request host options.
type ChatRequestOptions struct {
	Tools       []ToolDescriptor
	ToolMode    ToolMode
	MaxTokens   int
	Temperature *float64
}

// PrepareOptions controls PrepareLanguageModelChat.
type PrepareOptions struct {
	// Silent skips the connectivity test.
	Silent bool
}

// ModelCapabilities describes what a chat model accepts.
type ModelCapabilities struct {
	ImageInput  bool
	ToolCalling bool
}

// ChatModel describes a selectable model to the host.
type ChatModel struct {
	ID              string
	Name            string
	Family          string
	Version         string
	MaxInputTokens  int
	MaxOutputTokens int
	Capabilities    ModelCapabilities
	IsDefault       bool
}
