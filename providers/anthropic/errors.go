package anthropic

import (
	"encoding/json"
	"net/http"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/internal/normalize"
)

const providerID = "anthropic"

// normalizeError converts an HTTP error response to a ProviderError.
// The raw body is kept as the message so the failure can be diagnosed
// without replaying the request.
func normalizeError(status int, body []byte, requestID string) error {
	var errResp anthropicErrorResponse
	_ = json.Unmarshal(body, &errResp)

	code := errResp.Error.Type
	if code == "" {
		code = "unknown_error"
	}

	return normalize.ProviderError(providerID, status, requestID, code, string(body), nil)
}

// streamErrorStatus maps the error type of an in-stream error event to the
// HTTP status the same condition produces on a plain response.
var streamErrorStatus = map[string]int{
	"invalid_request_error": http.StatusBadRequest,
	"authentication_error":  http.StatusUnauthorized,
	"permission_error":      http.StatusForbidden,
	"not_found_error":       http.StatusNotFound,
	"rate_limit_error":      http.StatusTooManyRequests,
	"api_error":             http.StatusInternalServerError,
	"overloaded_error":      529,
}

// newStreamError converts an error event received mid-stream.
func newStreamError(e *anthropicError) error {
	status, ok := streamErrorStatus[e.Type]
	if !ok {
		status = http.StatusInternalServerError
	}
	return normalize.ProviderError(providerID, status, "", e.Type, e.Message, nil)
}

// newNetworkError creates a ProviderError for transport failures.
func newNetworkError(err error) error {
	return normalize.NetworkError(providerID, err)
}

// newMalformedError creates a ProviderError for unparseable or invalid bodies.
func newMalformedError(reason string, body []byte) error {
	return normalize.MalformedError(providerID, reason, body)
}

// errNotConfigured is returned before any I/O when no API key is set.
var errNotConfigured = &core.ProviderError{
	Provider: providerID,
	Message:  "set an API key before sending requests",
	Err:      core.ErrNotConfigured,
}
