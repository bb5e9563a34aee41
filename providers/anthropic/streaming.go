package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/internal/toolcalls"
)

// streamSentinel ends a stream early without error.
const streamSentinel = "[DONE]"

// streamDecoder folds Messages API stream events into a Response.
type streamDecoder struct {
	onDelta func(string)
	logger  *zap.Logger

	resp  core.Response
	text  strings.Builder
	usage *core.Usage
	tools *toolcalls.Assembler
}

func newStreamDecoder(onDelta func(string), logger *zap.Logger) *streamDecoder {
	return &streamDecoder{
		onDelta: onDelta,
		logger:  logger,
		resp:    core.Response{Role: core.RoleAssistant},
		tools:   toolcalls.NewAssembler(toolcalls.Config{EmptyInputJSON: "{}"}),
	}
}

// decodeStream reads newline-delimited data lines from body until the
// sentinel, a message_stop event, or EOF. body is closed on every path.
func decodeStream(ctx context.Context, body io.ReadCloser, onDelta func(string), logger *zap.Logger) (*core.Response, error) {
	defer body.Close()

	d := newStreamDecoder(onDelta, logger)
	reader := bufio.NewReader(body)

	for {
		if err := core.ContextError(ctx); err != nil {
			return nil, err
		}

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			if ctxErr := core.ContextError(ctx); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, newNetworkError(err)
		}

		done, lineErr := d.handleLine(line)
		if lineErr != nil {
			return nil, lineErr
		}
		if done || err != nil {
			break
		}
	}

	return d.finish()
}

// handleLine processes one line and reports whether decoding is complete.
func (d *streamDecoder) handleLine(line string) (bool, error) {
	line = strings.TrimRight(line, "\r\n")

	// event: lines, comments and blank separators carry nothing we need
	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return false, nil
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return false, nil
	}
	if payload == streamSentinel {
		return true, nil
	}

	var event anthropicStreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		d.logger.Debug("skipping malformed stream line",
			zap.Int("bytes", len(payload)),
			zap.Error(err),
		)
		return false, nil
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil {
			d.resp.ID = event.Message.ID
			d.resp.Model = core.ModelID(event.Message.Model)
			d.recordUsage(event.Message.Usage)
		}

	case "content_block_start":
		if event.ContentBlock == nil {
			break
		}
		switch event.ContentBlock.Type {
		case "tool_use":
			d.tools.StartCall(event.Index, event.ContentBlock.ID, event.ContentBlock.Name)
		case "text":
			d.appendText(event.ContentBlock.Text)
		}

	case "content_block_delta":
		if event.Delta == nil {
			break
		}
		switch event.Delta.Type {
		case "input_json_delta":
			d.tools.AddInput(event.Index, event.Delta.PartialJSON)
		case "text_delta", "":
			d.appendText(event.Delta.Text)
		}

	case "message_delta":
		if event.Delta != nil {
			if event.Delta.StopReason != "" {
				d.resp.StopReason = event.Delta.StopReason
			}
			if event.Delta.StopSequence != nil {
				d.resp.StopSequence = event.Delta.StopSequence
			}
		}
		d.recordUsage(event.Usage)

	case "message_stop":
		return true, nil

	case "error":
		if event.Error != nil {
			return false, newStreamError(event.Error)
		}
	}

	return false, nil
}

func (d *streamDecoder) appendText(text string) {
	if text == "" {
		return
	}
	d.text.WriteString(text)
	if d.onDelta != nil {
		d.onDelta(text)
	}
}

// recordUsage applies usage fields with last-write-wins per field.
func (d *streamDecoder) recordUsage(u *anthropicUsage) {
	if u == nil || (u.InputTokens == nil && u.OutputTokens == nil) {
		return
	}
	if d.usage == nil {
		d.usage = &core.Usage{}
	}
	mergeUsage(d.usage, u)
}

// finish builds the final Response: one text block followed by any
// assembled tool_use blocks.
func (d *streamDecoder) finish() (*core.Response, error) {
	toolBlocks, err := d.tools.Finalize()
	if err != nil {
		return nil, newMalformedError("tool input is not valid JSON", nil)
	}

	resp := d.resp
	resp.Usage = d.usage
	resp.Content = make([]core.ContentBlock, 0, 1+len(toolBlocks))
	resp.Content = append(resp.Content, core.ContentBlock{Type: "text", Text: d.text.String()})
	resp.Content = append(resp.Content, toolBlocks...)
	return &resp, nil
}
