package extraction

import "fmt"

// ErrorCode identifies a class of extraction failure.
type ErrorCode string

const (
	ErrExtractorUnavailable ErrorCode = "EXTRACTOR_UNAVAILABLE"
	ErrExtractorRateLimited ErrorCode = "EXTRACTOR_RATE_LIMITED"
	ErrInvalidDocument      ErrorCode = "INVALID_DOCUMENT"
	ErrEmptyResponse        ErrorCode = "EMPTY_RESPONSE"
)

// Error is a structured extraction failure. The pipeline recovers from
// any of these locally by falling back to a minimal null-field scaffold,
// so no extraction error is fatal to document ingest.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether this error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}
