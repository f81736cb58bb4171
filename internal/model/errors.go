package model

import (
	"errors"
	"fmt"
)

// Sentinel errors reported across the service boundary.
var (
	// ErrDocumentNotFound is returned when a record id does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrConcurrentModification is returned when a record changed between
	// question issuance and resolution. The caller should re-fetch the
	// record and retry with the fresh question set.
	ErrConcurrentModification = errors.New("document was modified concurrently")
)

// ReviewAnswerError rejects an answer at the resolution boundary: the
// answer references a field with no open question, or its value cannot
// be coerced to the type the question's input type implies. The whole
// resolve call is rejected atomically when any answer is invalid.
type ReviewAnswerError struct {
	FieldName string
	Reason    string
}

func (e *ReviewAnswerError) Error() string {
	return fmt.Sprintf("invalid review answer for %q: %s", e.FieldName, e.Reason)
}

// IsReviewAnswerError reports whether err is a ReviewAnswerError.
func IsReviewAnswerError(err error) bool {
	var rae *ReviewAnswerError
	return errors.As(err, &rae)
}
