package pipeline

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable is returned when the inference client or the ledger sink
// could not be initialized at startup.
var ErrUpstreamUnavailable = errors.New("pipeline: inference client or ledger sink unavailable")

// ErrorKind classifies why a model reply could not be turned into a ledger record.
type ErrorKind string

const (
	KindEmptyResponse ErrorKind = "empty_response"
	KindMalformedJSON ErrorKind = "malformed_json"
	KindMissingField  ErrorKind = "missing_field"
	KindInvalidAmount ErrorKind = "invalid_amount"
)

// ExtractionError reports an unrecoverable problem with the model reply.
type ExtractionError struct {
	Kind  ErrorKind
	Field string // set for KindMissingField and KindInvalidAmount
	Value string // the offending literal, for KindInvalidAmount
	Err   error
}

func (e *ExtractionError) Error() string {
	msg := "extraction error [" + string(e.Kind) + "]"
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// MissingField reports a required field absent from the reply.
func MissingField(field string) *ExtractionError {
	return &ExtractionError{Kind: KindMissingField, Field: field}
}

// IsKind reports whether err is an ExtractionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == kind
}

// InferenceError wraps a failed call to the inference service.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference error: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// SinkError wraps a failed append to the ledger sink.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error: %v", e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
