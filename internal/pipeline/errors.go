package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can match on the failing
// stage instead of parsing message text.
type ErrorKind string

const (
	// ErrMissingCredentials means the API secret was absent at job start.
	// No network call is made.
	ErrMissingCredentials ErrorKind = "missing_credentials"

	// ErrInvalidInputEncoding means the input data URI had no usable
	// base64 payload. Fails before the upload.
	ErrInvalidInputEncoding ErrorKind = "invalid_input_encoding"

	// ErrUpstreamConversionFailed means the upload returned a non-success
	// status; the error carries the status and body.
	ErrUpstreamConversionFailed ErrorKind = "upstream_conversion_failed"

	// ErrEmptyConversionResult means the upload succeeded but the service
	// returned no output files.
	ErrEmptyConversionResult ErrorKind = "empty_conversion_result"

	// ErrOutputDownloadFailed means fetching an output failed and no
	// partial result was acceptable.
	ErrOutputDownloadFailed ErrorKind = "output_download_failed"

	// ErrArchiveBuildFailed means packaging multiple outputs into a ZIP
	// archive failed.
	ErrArchiveBuildFailed ErrorKind = "archive_build_failed"
)

// Error is a classified pipeline failure. Every failure aborts the job and
// surfaces exactly one Error identifying the stage that failed.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if err is not a pipeline
// error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
