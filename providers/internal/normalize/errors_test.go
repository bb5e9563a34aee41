package normalize

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/petal-labs/aide/core"
)

func TestSentinelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, core.ErrBadRequest},
		{http.StatusUnprocessableEntity, core.ErrBadRequest},
		{http.StatusUnauthorized, core.ErrUnauthorized},
		{http.StatusForbidden, core.ErrUnauthorized},
		{http.StatusNotFound, core.ErrNotFound},
		{http.StatusTooManyRequests, core.ErrRateLimited},
		{http.StatusInternalServerError, core.ErrServer},
		{529, core.ErrServer},
		{http.StatusConflict, core.ErrAPI},
	}

	for _, tt := range tests {
		if got := SentinelForStatus(tt.status); got != tt.want {
			t.Errorf("SentinelForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSentinelOverrides(t *testing.T) {
	custom := errors.New("custom")
	got := SentinelForStatusWithOverrides(http.StatusNotFound, map[int]error{http.StatusNotFound: custom})
	if got != custom {
		t.Errorf("override = %v, want custom", got)
	}
}

func TestProviderErrorDefaults(t *testing.T) {
	err := ProviderError("anthropic", http.StatusBadGateway, "req-1", "", "", nil)

	var pe *core.ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected *core.ProviderError")
	}
	if pe.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want Bad Gateway", pe.Message)
	}
	if !errors.Is(err, core.ErrServer) || !errors.Is(err, core.ErrAPI) {
		t.Errorf("error %v should match ErrServer and ErrAPI", err)
	}
}

func TestNetworkAndMalformedErrors(t *testing.T) {
	netErr := NetworkError("anthropic", errors.New("connection reset"))
	if !errors.Is(netErr, core.ErrNetwork) {
		t.Errorf("NetworkError() = %v, want ErrNetwork", netErr)
	}

	body := []byte(strings.Repeat("x", 800))
	malformed := MalformedError("anthropic", "invalid JSON", body)
	if !errors.Is(malformed, core.ErrMalformedResponse) {
		t.Errorf("MalformedError() = %v, want ErrMalformedResponse", malformed)
	}
	var pe *core.ProviderError
	errors.As(malformed, &pe)
	if len(pe.Message) > len("invalid JSON: ")+SnippetLimit+len("...") {
		t.Errorf("Message length = %d, snippet not bounded", len(pe.Message))
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet([]byte("short"), 10); got != "short" {
		t.Errorf("Snippet(short) = %q", got)
	}
	if got := Snippet([]byte("abcdefghij"), 4); got != "abcd..." {
		t.Errorf("Snippet(long) = %q, want abcd...", got)
	}
	// "é" is two bytes; cutting at 1 must not split it.
	if got := Snippet([]byte("éa"), 1); got != "..." {
		t.Errorf("Snippet(multibyte) = %q, want ...", got)
	}
}
