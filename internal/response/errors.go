package response

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestFailed matches envelopes reporting success=false and transport failures.
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedResponse indicates a payload that cannot be coerced into the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidPrize indicates a prize payload without any usable numeric field.
	ErrInvalidPrize = fmt.Errorf("%w: invalid prize data received", ErrMalformedResponse)
)

// DefaultErrorMessage is reported when a failed envelope carries no message.
const DefaultErrorMessage = "Request failed"

// RequestError is a failed request. Message is the normalized server or
// transport message, Status the HTTP status when one was received and Err the
// transport error, if any.
type RequestError struct {
	Message string
	Status  int
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is makes every RequestError match ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
