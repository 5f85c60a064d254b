package assistant

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrGeneration      = errors.New("generation capability produced no usable output")
	ErrSchemaViolation = errors.New("generation output violates the answer schema")
	ErrCancelled       = errors.New("answer request cancelled")
	ErrInvalidConfig   = errors.New("invalid assistant config")
)

// AnswerError carries the failure kind (one of the sentinels above) and its cause.
// errors.Is matches both.
type AnswerError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *AnswerError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AnswerError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func generationError(reason string, cause error) *AnswerError {
	return &AnswerError{Kind: ErrGeneration, Reason: reason, Err: cause}
}

func schemaViolation(reason string, cause error) *AnswerError {
	return &AnswerError{Kind: ErrSchemaViolation, Reason: reason, Err: cause}
}

func cancelled(cause error) *AnswerError {
	return &AnswerError{Kind: ErrCancelled, Err: cause}
}

// IsRetryable reports whether the caller may offer the same question again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGeneration) || errors.Is(err, ErrSchemaViolation) || errors.Is(err, ErrCancelled)
}
