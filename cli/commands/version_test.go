package commands

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "aide "+Version) {
		t.Errorf("output = %q, want prefix %q", out, "aide "+Version)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("version", "--json")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["version"] != Version {
		t.Errorf("version = %q, want %q", got["version"], Version)
	}
}
