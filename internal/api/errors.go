package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gamingear/console/internal/models"
	"github.com/go-resty/resty/v2"
)

type Kind int

const (
	// KindRequestFailed is a transport level failure, no response was read.
	KindRequestFailed Kind = iota + 1
	// KindRejectedByServer is a non-success status from the remote API.
	KindRejectedByServer
	// KindMalformedResponse is a success status without the expected fields.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindRequestFailed:
		return "RequestFailed"
	case KindRejectedByServer:
		return "RejectedByServer"
	case KindMalformedResponse:
		return "MalformedResponse"
	default:
		return "Unknown"
	}
}

// Error is returned by every remote call. Message is safe to show to the
// user as is.
type Error struct {
	Kind       Kind
	Operation  string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Operation, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Operation, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) DisplayMessage() string {
	return e.Message
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func NewMalformedResponse(operation string, message string) *Error {
	return &Error{
		Kind:      KindMalformedResponse,
		Operation: operation,
		Message:   message,
	}
}

// classify turns a resty result into nil or an *Error.
func classify(operation string, resp *resty.Response, err error) error {
	if err != nil {
		return &Error{
			Kind:      KindRequestFailed,
			Operation: operation,
			Message:   err.Error(),
			Err:       err,
		}
	}

	if resp.IsError() {
		return &Error{
			Kind:       KindRejectedByServer,
			Operation:  operation,
			Message:    messageFromResponse(resp),
			StatusCode: resp.StatusCode(),
		}
	}

	return nil
}

// messageFromResponse prefers the body's message field, then falls back to
// the same text a generic HTTP client error would carry.
func messageFromResponse(resp *resty.Response) string {
	if body, ok := resp.Error().(*models.MessageResponse); ok && body != nil && len(body.Message) > 0 {
		return body.Message
	}

	var body models.MessageResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && len(body.Message) > 0 {
		return body.Message
	}

	if text := strings.TrimSpace(string(resp.Body())); len(text) > 0 && !strings.HasPrefix(text, "{") && len(text) < 512 {
		return text
	}

	return fmt.Sprintf("Request failed with status code %d", resp.StatusCode())
}
