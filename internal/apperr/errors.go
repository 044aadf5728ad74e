// Package apperr defines the error taxonomy for accent analyses.
// Every failure that reaches a user is one of these kinds; foreign errors
// are reported as "internal" (a failed analysis with the underlying message).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an analysis failure.
type Kind string

const (
	KindDownload          Kind = "download"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindTranscription     Kind = "transcription"
	KindClassification    Kind = "classification"
	KindInvalidRequest    Kind = "invalid_request"
	KindBusy              Kind = "busy"
	KindInternal          Kind = "internal"
)

// HTTPStatus returns the recommended HTTP status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindDownload, KindUnsupportedFormat:
		return http.StatusUnprocessableEntity
	case KindTranscription, KindClassification:
		return http.StatusBadGateway
	case KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the unified analysis error type.
type Error struct {
	Kind    Kind
	Message string
	// Reason is an optional machine-readable detail, e.g. "private" for downloads.
	Reason string
	Cause  error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind, so
// errors.Is(err, &apperr.Error{Kind: apperr.KindDownload}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithReason sets the reason and returns the receiver.
func (e *Error) WithReason(reason string) *Error {
	e.Reason = reason
	return e
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Download reports unreachable, private or region-locked media.
func Download(cause error, format string, args ...any) *Error {
	return newError(KindDownload, cause, format, args...)
}

// UnsupportedFormat reports a stream that cannot be decoded to PCM.
func UnsupportedFormat(cause error, format string, args ...any) *Error {
	return newError(KindUnsupportedFormat, cause, format, args...)
}

// Transcription reports a failed or empty speech-to-text call.
func Transcription(cause error, format string, args ...any) *Error {
	return newError(KindTranscription, cause, format, args...)
}

// Classification reports a failed accent model call.
func Classification(cause error, format string, args ...any) *Error {
	return newError(KindClassification, cause, format, args...)
}

// InvalidRequest reports a request rejected before any work started.
func InvalidRequest(cause error, format string, args ...any) *Error {
	return newError(KindInvalidRequest, cause, format, args...)
}

// Busy reports that the service is at its concurrency limit.
func Busy() *Error {
	return newError(KindBusy, nil, "too many analyses in progress, try again shortly")
}

// Internal wraps an unexpected failure.
func Internal(cause error, format string, args ...any) *Error {
	return newError(KindInternal, cause, format, args...)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns err as an *Error, wrapping foreign errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, "analysis failed")
}
