package lm

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/petal-labs/aide/core"
)

func TestToCoreMessagesTextOnly(t *testing.T) {
	msgs, skipped := toCoreMessages([]ChatMessage{
		{Role: RoleUser, Content: []Part{TextPart{Value: "Hello, "}, TextPart{Value: "world"}}},
		NewAssistantMessage("Hi"),
	})
	assert.Empty(t, skipped)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "Hello, world"}, msgs[0])
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.False(t, msgs[0].IsMultipart())
}

func TestToCoreMessagesMultipart(t *testing.T) {
	input := json.RawMessage(`{"q":"go"}`)
	msgs, skipped := toCoreMessages([]ChatMessage{{
		Role: RoleUser,
		Content: []Part{
			TextPart{Value: "look"},
			DataPart{Data: []byte("png-bytes"), MimeType: "image/png"},
			DataPart{Data: []byte("%PDF"), MimeType: "application/pdf"},
			ToolCallPart{CallID: "call_1", Name: "search", Input: input},
			ToolResultPart{CallID: "call_1", Content: "found", IsError: true},
		},
	}})
	assert.Equal(t, []string{"application/pdf"}, skipped)
	require.Len(t, msgs, 1)

	parts := msgs[0].Parts
	require.Len(t, parts, 4)
	assert.Equal(t, core.TextPart("look"), parts[0])
	assert.Equal(t, core.ImagePart("image/png", base64.StdEncoding.EncodeToString([]byte("png-bytes"))), parts[1])
	assert.Equal(t, core.ToolUsePart("call_1", "search", input), parts[2])
	assert.Equal(t, core.ToolResultPart("call_1", "found", true), parts[3])
}

func TestImageDataRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		msgs, _ := toCoreMessages([]ChatMessage{{
			Role:    RoleUser,
			Content: []Part{DataPart{Data: data, MimeType: "image/jpeg"}},
		}})
		part := msgs[0].Parts[0]
		decoded, err := base64.StdEncoding.DecodeString(part.Data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if string(decoded) != string(data) {
			t.Fatalf("round trip mismatch")
		}
	})
}

func TestToSendOptions(t *testing.T) {
	assert.Nil(t, toSendOptions(ChatRequestOptions{ToolMode: ToolModeRequired}).ToolChoice,
		"tool_choice is omitted without tools")

	schema := json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)
	got := toSendOptions(ChatRequestOptions{
		Tools:       []ToolDescriptor{{Name: "search", InputSchema: schema}},
		MaxTokens:   10,
		Temperature: core.Float64(0.2),
	})
	assert.Equal(t, 10, got.MaxTokens)
	assert.Equal(t, 0.2, *got.Temperature)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, schema, got.Tools[0].InputSchema)
	assert.Equal(t, core.ToolChoiceAuto, got.ToolChoice.Type)
	assert.NoError(t, core.ValidateTools(got.Tools, got.ToolChoice))
}

func TestPlainText(t *testing.T) {
	msg := ChatMessage{Content: []Part{
		TextPart{Value: "a"},
		DataPart{Data: []byte("zzz"), MimeType: "image/png"},
		ToolResultPart{Content: "b"},
	}}
	assert.Equal(t, "ab", PlainText(msg))
}
