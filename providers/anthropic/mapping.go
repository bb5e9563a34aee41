package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/aide/core"
)

// buildRequest creates a Messages API request from a resolved exchange.
func buildRequest(ex *Exchange) *anthropicRequest {
	system, messages := mapMessages(ex.Messages)

	req := &anthropicRequest{
		Model:       string(ex.Params.Model),
		MaxTokens:   ex.Params.MaxTokens,
		Temperature: ex.Params.Temperature,
		Messages:    messages,
		System:      system,
		Stream:      ex.Streaming(),
	}

	// Tools and tool choice are sent only when supplied
	if len(ex.Params.Tools) > 0 {
		req.Tools = mapTools(ex.Params.Tools)
	}
	if ex.Params.ToolChoice != nil {
		req.ToolChoice = &anthropicToolChoice{
			Type: string(ex.Params.ToolChoice.Type),
			Name: ex.Params.ToolChoice.Name,
		}
	}

	return req
}

// mapMessages splits the first system message from the conversation turns.
// Further system messages are dropped; the API accepts only one system prompt.
func mapMessages(msgs []core.Message) (system string, messages []anthropicMessage) {
	seenSystem := false
	messages = make([]anthropicMessage, 0, len(msgs))

	for _, msg := range msgs {
		if msg.Role == core.RoleSystem {
			if !seenSystem {
				system = msg.PlainText()
				seenSystem = true
			}
			continue
		}
		messages = append(messages, mapMessage(msg))
	}

	return system, messages
}

func mapMessage(msg core.Message) anthropicMessage {
	out := anthropicMessage{Role: string(msg.Role)}
	if !msg.IsMultipart() {
		out.Content.Text = msg.Content
		return out
	}

	blocks := make([]anthropicContentBlock, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch part.Type {
		case core.PartText:
			blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.Text})
		case core.PartImage:
			blocks = append(blocks, anthropicContentBlock{
				Type: "image",
				Source: &anthropicImageSource{
					Type:      "base64",
					MediaType: part.MediaType,
					Data:      part.Data,
				},
			})
		case core.PartToolUse:
			input := part.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			blocks = append(blocks, anthropicContentBlock{
				Type:  "tool_use",
				ID:    part.ID,
				Name:  part.Name,
				Input: input,
			})
		case core.PartToolResult:
			blocks = append(blocks, anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: part.ID,
				Content:   part.Text,
				IsError:   part.IsError,
			})
		}
	}
	out.Content.Blocks = blocks
	return out
}

// mapTools converts tool definitions to the wire format unchanged.
func mapTools(defs []core.ToolDefinition) []anthropicTool {
	result := make([]anthropicTool, len(defs))
	for i, d := range defs {
		result[i] = anthropicTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		}
	}
	return result
}

// parseResponse decodes and validates a non-streaming response body.
func parseResponse(body []byte) (*core.Response, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if json.Valid(body) {
			return nil, newMalformedError(fmt.Sprintf("unexpected response shape: %v", err), body)
		}
		return nil, newMalformedError("invalid JSON", body)
	}
	if err := validateResponse(&resp); err != nil {
		return nil, newMalformedError(err.Error(), nil)
	}
	return mapResponse(&resp), nil
}

// validateResponse checks that every required field of a message is present.
func validateResponse(resp *anthropicResponse) error {
	var errs []error
	if resp.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if resp.Type != "message" {
		errs = append(errs, fmt.Errorf("type = %q, want \"message\"", resp.Type))
	}
	if resp.Role != "assistant" {
		errs = append(errs, fmt.Errorf("role = %q, want \"assistant\"", resp.Role))
	}
	if resp.Content == nil {
		errs = append(errs, errors.New("missing content array"))
	}
	if resp.Model == "" {
		errs = append(errs, errors.New("missing model"))
	}
	switch {
	case resp.Usage == nil:
		errs = append(errs, errors.New("missing usage"))
	default:
		if resp.Usage.InputTokens == nil {
			errs = append(errs, errors.New("missing usage.input_tokens"))
		}
		if resp.Usage.OutputTokens == nil {
			errs = append(errs, errors.New("missing usage.output_tokens"))
		}
	}
	return errors.Join(errs...)
}

// mapResponse converts a validated response. Block types other than text
// and tool_use are ignored.
func mapResponse(resp *anthropicResponse) *core.Response {
	out := &core.Response{
		ID:           resp.ID,
		Model:        core.ModelID(resp.Model),
		Role:         core.Role(resp.Role),
		StopReason:   resp.StopReason,
		StopSequence: resp.StopSequence,
		Content:      make([]core.ContentBlock, 0, len(resp.Content)),
	}
	if resp.Usage != nil {
		out.Usage = &core.Usage{}
		mergeUsage(out.Usage, resp.Usage)
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content = append(out.Content, core.ContentBlock{Type: "text", Text: block.Text})
		case "tool_use":
			out.Content = append(out.Content, core.ContentBlock{
				Type:  "tool_use",
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}
	return out
}

// mergeUsage copies the fields present in u into dst.
func mergeUsage(dst *core.Usage, u *anthropicUsage) {
	if u.InputTokens != nil {
		dst.InputTokens = *u.InputTokens
	}
	if u.OutputTokens != nil {
		dst.OutputTokens = *u.OutputTokens
	}
}
