package codec

import (
	"github.com/pkg/errors"
)

// Errors returned by the envelope and frame decoders. Decoders wrap these
// with additional context, use errors.Is to test for them.
var (
	ErrInvalidEncoding      = errors.New("invalid base64 encoding")
	ErrTooShort             = errors.New("data too short")
	ErrMalformedPayload     = errors.New("malformed json payload")
	ErrTruncatedFrameHeader = errors.New("truncated frame header")
)

// Kind returns a stable label for the given decode error, used for logging
// and as metric label.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, ErrTooShort):
		return "too_short"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrTruncatedFrameHeader):
		return "truncated_frame_header"
	default:
		return "unknown"
	}
}

// DecodeError reports one of the decoder errors above together with the
// error that caused it.
type DecodeError struct {
	Sentinel error
	Err      error
}

// WithCause returns a DecodeError matching the given sentinel with
// errors.Is while keeping cause reachable through errors.Unwrap.
func WithCause(sentinel, cause error) error {
	return &DecodeError{
		Sentinel: sentinel,
		Err:      cause,
	}
}

func (e *DecodeError) Error() string {
	return e.Sentinel.Error() + ": " + e.Err.Error()
}

// Is returns true when target is the sentinel of the error.
func (e *DecodeError) Is(target error) bool {
	return target == e.Sentinel
}

// Unwrap returns the cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Cause implements the github.com/pkg/errors causer interface.
func (e *DecodeError) Cause() error {
	return e.Err
}
