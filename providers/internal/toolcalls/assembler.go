// Package toolcalls assembles tool_use blocks from streamed input fragments.
package toolcalls

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/petal-labs/aide/core"
)

// ErrInvalidJSON is returned when assembled tool input is not valid JSON.
var ErrInvalidJSON = errors.New("tool input invalid json")

// Config controls assembler behavior.
type Config struct {
	// EmptyInputJSON, when set, is used as input when a tool use has no
	// accumulated fragments.
	EmptyInputJSON string
}

type assemblingCall struct {
	id    string
	name  string
	input strings.Builder
}

// Assembler accumulates fragmented tool uses keyed by content block index.
type Assembler struct {
	calls map[int]*assemblingCall
	cfg   Config
}

// NewAssembler creates a tool-use assembler.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		calls: make(map[int]*assemblingCall),
		cfg:   cfg,
	}
}

// StartCall begins tracking a tool use at the given block index.
func (a *Assembler) StartCall(index int, id, name string) {
	a.calls[index] = &assemblingCall{id: id, name: name}
}

// AddInput appends a partial JSON fragment to an existing call.
// Fragments for unknown indexes are dropped.
func (a *Assembler) AddInput(index int, fragment string) {
	call, ok := a.calls[index]
	if !ok || fragment == "" {
		return
	}
	call.input.WriteString(fragment)
}

// Len returns the number of tracked calls.
func (a *Assembler) Len() int {
	return len(a.calls)
}

// Finalize validates and returns the tool_use blocks in block order.
func (a *Assembler) Finalize() ([]core.ContentBlock, error) {
	if len(a.calls) == 0 {
		return nil, nil
	}

	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	blocks := make([]core.ContentBlock, 0, len(indexes))
	for _, idx := range indexes {
		call := a.calls[idx]
		input := call.input.String()
		if input == "" && a.cfg.EmptyInputJSON != "" {
			input = a.cfg.EmptyInputJSON
		}
		if !json.Valid([]byte(input)) {
			return nil, ErrInvalidJSON
		}
		blocks = append(blocks, core.ContentBlock{
			Type:  "tool_use",
			ID:    call.id,
			Name:  call.name,
			Input: json.RawMessage(input),
		})
	}
	return blocks, nil
}
