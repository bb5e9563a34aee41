package core

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestMessageMarshalPlainText(t *testing.T) {
	data, err := json.Marshal(Message{Role: RoleUser, Content: "Hello"})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `{"role":"user","content":"Hello"}` {
		t.Errorf("json.Marshal() = %s", data)
	}
}

func TestMessageMarshalMultipart(t *testing.T) {
	msg := Message{
		Role: RoleUser,
		Parts: []ContentPart{
			TextPart("What is this?"),
			ImagePart("image/png", "iVBORw0KGgo="),
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"role":"user","content":[{"type":"text","text":"What is this?"},{"type":"image","media_type":"image/png","data":"iVBORw0KGgo="}]}`
	if string(data) != want {
		t.Errorf("json.Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestMessageUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantText  string
		wantParts int
		wantErr   bool
	}{
		{"string content", `{"role":"assistant","content":"Hi"}`, "Hi", 0, false},
		{"array content", `{"role":"user","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`, "ab", 2, false},
		{"null content", `{"role":"user","content":null}`, "", 0, false},
		{"number content", `{"role":"user","content":42}`, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Message
			err := json.Unmarshal([]byte(tt.input), &msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("json.Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := msg.PlainText(); got != tt.wantText {
				t.Errorf("PlainText() = %q, want %q", got, tt.wantText)
			}
			if len(msg.Parts) != tt.wantParts {
				t.Errorf("len(Parts) = %d, want %d", len(msg.Parts), tt.wantParts)
			}
		})
	}
}

func TestMessageMultipartRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		raw := rapid.SliceOf(rapid.Byte()).Draw(t, "image")
		mime := rapid.SampledFrom([]string{"image/png", "image/jpeg", "image/gif", "image/webp"}).Draw(t, "mime")
		encoded := base64.StdEncoding.EncodeToString(raw)

		in := Message{Role: RoleUser, Parts: []ContentPart{TextPart(text), ImagePart(mime, encoded)}}
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		var out Message
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("json.Unmarshal() error = %v", err)
		}
		if len(out.Parts) != 2 {
			t.Fatalf("len(Parts) = %d, want 2", len(out.Parts))
		}
		if out.Parts[0].Type != PartText || out.Parts[0].Text != text {
			t.Fatalf("text part = %+v, want %q", out.Parts[0], text)
		}
		img := out.Parts[1]
		if img.Type != PartImage || img.MediaType != mime || img.Data != encoded {
			t.Fatalf("image part = %+v, want %s/%s", img, mime, encoded)
		}
	})
}

func TestToolDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		tool    ToolDefinition
		wantErr bool
	}{
		{"valid", ToolDefinition{Name: "get_weather", InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`)}, false},
		{"missing name", ToolDefinition{InputSchema: json.RawMessage(`{"type":"object"}`)}, true},
		{"missing schema", ToolDefinition{Name: "t"}, true},
		{"array schema", ToolDefinition{Name: "t", InputSchema: json.RawMessage(`[1]`)}, true},
		{"string type", ToolDefinition{Name: "t", InputSchema: json.RawMessage(`{"type":"string"}`)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tool.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTool) {
				t.Errorf("Validate() error = %v, want ErrInvalidTool", err)
			}
		})
	}
}

func TestToolChoiceValidate(t *testing.T) {
	tests := []struct {
		choice  ToolChoice
		wantErr bool
	}{
		{ToolChoice{Type: ToolChoiceAuto}, false},
		{ToolChoice{Type: ToolChoiceAny}, false},
		{ToolChoice{Type: ToolChoiceNone}, false},
		{ToolChoice{Type: ToolChoiceTool, Name: "get_weather"}, false},
		{ToolChoice{Type: ToolChoiceTool}, true},
		{ToolChoice{Type: ToolChoiceAuto, Name: "x"}, true},
		{ToolChoice{Type: "sometimes"}, true},
	}
	for _, tt := range tests {
		if err := tt.choice.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.choice, err, tt.wantErr)
		}
	}
}

func TestResponseAccessors(t *testing.T) {
	resp := &Response{
		Content: []ContentBlock{
			{Type: "text", Text: "Let me "},
			{Type: "tool_use", ID: "toolu_1", Name: "lookup", Input: json.RawMessage(`{}`)},
			{Type: "text", Text: "check."},
		},
	}
	if got := resp.Text(); got != "Let me check." {
		t.Errorf("Text() = %q", got)
	}
	if uses := resp.ToolUses(); len(uses) != 1 || uses[0].Name != "lookup" {
		t.Errorf("ToolUses() = %+v", uses)
	}

	var nilResp *Response
	if nilResp.Text() != "" || nilResp.ToolUses() != nil {
		t.Error("nil Response accessors should return zero values")
	}
}

func TestModelInfoHasCapability(t *testing.T) {
	m := ModelInfo{Capabilities: []Feature{FeatureChat, FeatureVision}}
	if !m.HasCapability(FeatureVision) {
		t.Error("HasCapability(vision) = false")
	}
	if m.HasCapability(FeatureToolCalling) {
		t.Error("HasCapability(tool_calling) = true")
	}
}
