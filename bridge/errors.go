package bridge

import (
	"context"
	"errors"

	"github.com/petal-labs/aide/core"
)

// Error kinds carried by WireError.
const (
	KindNotConfigured     = "notConfigured"
	KindNetwork           = "network"
	KindUnauthorized      = "unauthorized"
	KindRateLimited       = "rateLimited"
	KindBadRequest        = "badRequest"
	KindNotFound          = "notFound"
	KindServer            = "server"
	KindAPI               = "api"
	KindMalformedResponse = "malformedResponse"
	KindCancelled         = "cancelled"
	KindInvalidTool       = "invalidTool"
	KindInvalidArguments  = "invalidArguments"
	KindUnknownCommand    = "unknownCommand"
	KindUnknown           = "error"
)

// WireError is the serialized form of an error raised on the remote side.
type WireError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Status    int    `json:"status,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Ordered so that the most specific class wins.
var kindSentinels = []struct {
	kind     string
	sentinel error
}{
	{KindCancelled, core.ErrCancelled},
	{KindNotConfigured, core.ErrNotConfigured},
	{KindInvalidArguments, core.ErrInvalidArguments},
	{KindUnknownCommand, core.ErrUnknownCommand},
	{KindInvalidTool, core.ErrInvalidTool},
	{KindMalformedResponse, core.ErrMalformedResponse},
	{KindNetwork, core.ErrNetwork},
	{KindUnauthorized, core.ErrUnauthorized},
	{KindRateLimited, core.ErrRateLimited},
	{KindBadRequest, core.ErrBadRequest},
	{KindNotFound, core.ErrNotFound},
	{KindServer, core.ErrServer},
	{KindAPI, core.ErrAPI},
}

// encodeError classifies err for transmission.
func encodeError(err error) *WireError {
	we := &WireError{Kind: KindUnknown, Message: err.Error()}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.sentinel) {
			we.Kind = ks.kind
			break
		}
	}
	var pe *core.ProviderError
	if errors.As(err, &pe) {
		we.Status = pe.Status
		we.Code = pe.Code
		we.RequestID = pe.RequestID
	}
	return we
}

// RemoteError is an error re-raised from the remote side. Error returns the
// remote message unchanged and errors.Is matches the remote classification.
type RemoteError struct {
	Kind      string
	Message   string
	Status    int
	Code      string
	RequestID string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinels matching Kind.
func (e *RemoteError) Unwrap() []error {
	var errs []error
	for _, ks := range kindSentinels {
		if ks.kind == e.Kind {
			errs = append(errs, ks.sentinel)
			break
		}
	}
	switch e.Kind {
	case KindCancelled:
		errs = append(errs, context.Canceled)
	case KindUnauthorized, KindRateLimited, KindBadRequest, KindNotFound, KindServer:
		errs = append(errs, core.ErrAPI)
	}
	return errs
}

func decodeError(we *WireError) error {
	return &RemoteError{
		Kind:      we.Kind,
		Message:   we.Message,
		Status:    we.Status,
		Code:      we.Code,
		RequestID: we.RequestID,
	}
}
