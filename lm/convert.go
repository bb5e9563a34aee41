package lm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petal-labs/aide/core"
)

// emptySchema is used for host tools that declare no input schema.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// toCoreMessages converts host messages. Messages made only of text become
// plain messages; anything else becomes multipart. Data parts that are not
// images cannot be sent and are reported through skipped.
func toCoreMessages(msgs []ChatMessage) (out []core.Message, skipped []string) {
	out = make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		msg, dropped := toCoreMessage(m)
		skipped = append(skipped, dropped...)
		out = append(out, msg)
	}
	return out, skipped
}

func toCoreMessage(m ChatMessage) (core.Message, []string) {
	msg := core.Message{Role: toCoreRole(m.Role)}

	if text, ok := textOnly(m.Content); ok {
		msg.Content = text
		return msg, nil
	}

	var skipped []string
	for _, part := range m.Content {
		switch p := part.(type) {
		case TextPart:
			msg.Parts = append(msg.Parts, core.TextPart(p.Value))
		case DataPart:
			if !strings.HasPrefix(p.MimeType, "image/") {
				skipped = append(skipped, p.MimeType)
				continue
			}
			msg.Parts = append(msg.Parts, core.ImagePart(p.MimeType, base64.StdEncoding.EncodeToString(p.Data)))
		case ToolCallPart:
			msg.Parts = append(msg.Parts, core.ToolUsePart(p.CallID, p.Name, p.Input))
		case ToolResultPart:
			msg.Parts = append(msg.Parts, core.ToolResultPart(p.CallID, p.Content, p.IsError))
		}
	}
	return msg, skipped
}

func textOnly(parts []Part) (string, bool) {
	var b strings.Builder
	for _, part := range parts {
		p, ok := part.(TextPart)
		if !ok {
			return "", false
		}
		b.WriteString(p.Value)
	}
	return b.String(), true
}

func toCoreRole(r ChatRole) core.Role {
	switch r {
	case RoleAssistant:
		return core.RoleAssistant
	case RoleSystem:
		return core.RoleSystem
	default:
		return core.RoleUser
	}
}

// toSendOptions maps host request options. tool_choice is only set when
// tools are present.
func toSendOptions(opts ChatRequestOptions) core.SendOptions {
	out := core.SendOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if len(opts.Tools) == 0 {
		return out
	}

	out.Tools = make([]core.ToolDefinition, len(opts.Tools))
	for i, t := range opts.Tools {
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = emptySchema
		}
		out.Tools[i] = core.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}

	choice := core.ToolChoice{Type: core.ToolChoiceAuto}
	if opts.ToolMode == ToolModeRequired {
		choice.Type = core.ToolChoiceAny
	}
	out.ToolChoice = &choice
	return out
}

// responseParts converts a response into host parts: the text first, then
// any tool calls.
func responseParts(resp *core.Response) []Part {
	parts := []Part{TextPart{Value: resp.Text()}}
	return append(parts, toolCallParts(resp)...)
}

func toolCallParts(resp *core.Response) []Part {
	var parts []Part
	for _, use := range resp.ToolUses() {
		parts = append(parts, ToolCallPart{CallID: use.ID, Name: use.Name, Input: use.Input})
	}
	return parts
}

// PlainText extracts the text a message contributes to the prompt.
func PlainText(m ChatMessage) string {
	var b strings.Builder
	for _, part := range m.Content {
		switch p := part.(type) {
		case TextPart:
			b.WriteString(p.Value)
		case ToolResultPart:
			b.WriteString(p.Content)
		case ToolCallPart:
			b.WriteString(p.Name)
			b.Write(p.Input)
		}
	}
	return b.String()
}

func describeSkipped(skipped []string) string {
	return fmt.Sprintf("%d unsupported data part(s): %s", len(skipped), strings.Join(skipped, ", "))
}
