// Package errors provides explicit, human-readable error types for canonic.
// All errors must include a Reason and Suggestion for actionable feedback.
package errors

import (
	"fmt"
)

// CanonicError is the base error type for all canonic errors.
// Every error must provide a human-readable reason and suggestion.
type CanonicError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for HTTP status mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeEngine     ErrorCode = 2
	CodeLLM        ErrorCode = 3
	CodeInternal   ErrorCode = 4
)

func (e *CanonicError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *CanonicError) Unwrap() error {
	return e.Cause
}

// ErrQueryRejected is returned when the validator rejects a query before execution.
// Kind carries the RejectionKind value so callers can branch on it without
// re-parsing the message string.
type ErrQueryRejected struct {
	CanonicError
	Kind string
}

// NewQueryRejected creates a new ErrQueryRejected for the given rejection kind.
func NewQueryRejected(kind, detail string) *ErrQueryRejected {
	return &ErrQueryRejected{
		CanonicError: CanonicError{
			Code:       CodeValidation,
			Message:    "query rejected: " + kind,
			Reason:     detail,
			Suggestion: "rephrase the request so it maps to a single read-only SELECT over customers, accounts, or transactions",
		},
		Kind: kind,
	}
}

// ErrEmptyQuery is returned when the submitted SQL is blank after trimming.
type ErrEmptyQuery struct {
	CanonicError
}

// NewEmptyQuery creates a new ErrEmptyQuery.
func NewEmptyQuery() *ErrEmptyQuery {
	return &ErrEmptyQuery{CanonicError{
		Code:       CodeValidation,
		Message:    "empty query",
		Reason:     "the sql field was blank",
		Suggestion: "provide a non-empty SQL statement",
	}}
}

// ErrQueryTooLong is returned when SQL exceeds the configured length bound.
type ErrQueryTooLong struct {
	CanonicError
	Length int
	Max    int
}

// NewQueryTooLong creates a new ErrQueryTooLong.
func NewQueryTooLong(length, max int) *ErrQueryTooLong {
	return &ErrQueryTooLong{
		CanonicError: CanonicError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("query length %d exceeds maximum of %d", length, max),
			Reason:     "the sql field exceeded the configured maximum length",
			Suggestion: "shorten the query",
		},
		Length: length,
		Max:    max,
	}
}

// ErrMalformedRequest is returned when the HTTP request body cannot be decoded.
type ErrMalformedRequest struct {
	CanonicError
}

// NewMalformedRequest creates a new ErrMalformedRequest.
func NewMalformedRequest(cause error) *ErrMalformedRequest {
	return &ErrMalformedRequest{CanonicError{
		Code:       CodeValidation,
		Message:    "malformed request body",
		Reason:     "the request body was not valid JSON or was missing a required field",
		Suggestion: "check the request body against the API documentation",
		Cause:      cause,
	}}
}

// ErrExecutionTimeout is returned when query execution exceeds the configured
// wall-clock timeout.
type ErrExecutionTimeout struct {
	CanonicError
}

// NewExecutionTimeout creates a new ErrExecutionTimeout.
func NewExecutionTimeout(timeoutSeconds int) *ErrExecutionTimeout {
	return &ErrExecutionTimeout{CanonicError{
		Code:       CodeEngine,
		Message:    fmt.Sprintf("query execution exceeded %ds timeout", timeoutSeconds),
		Reason:     "the query did not complete within the configured timeout",
		Suggestion: "narrow the query or add a smaller LIMIT",
	}}
}

// ErrExecutionFailed is returned when the underlying engine returns an error
// while running an already-validated query.
type ErrExecutionFailed struct {
	CanonicError
}

// NewExecutionFailed creates a new ErrExecutionFailed.
func NewExecutionFailed(engine string, cause error) *ErrExecutionFailed {
	return &ErrExecutionFailed{CanonicError{
		Code:       CodeEngine,
		Message:    fmt.Sprintf("execution failed on engine %q", engine),
		Reason:     "the database engine returned an error while running the validated query",
		Suggestion: "check database connectivity and retry",
		Cause:      cause,
	}}
}

// ErrEngineUnavailable is returned when the configured adapter cannot service a request.
type ErrEngineUnavailable struct {
	CanonicError
	Engine string
}

// NewEngineUnavailable creates a new ErrEngineUnavailable.
func NewEngineUnavailable(engine string, cause error) *ErrEngineUnavailable {
	return &ErrEngineUnavailable{
		CanonicError: CanonicError{
			Code:       CodeEngine,
			Message:    fmt.Sprintf("engine %q is unavailable", engine),
			Reason:     "the configured database engine could not be reached",
			Suggestion: "verify DATABASE_URL and that the database is running",
			Cause:      cause,
		},
		Engine: engine,
	}
}

// ErrDatabaseUnavailable is returned at boot when the configured database
// cannot be reached.
type ErrDatabaseUnavailable struct {
	CanonicError
}

// NewDatabaseUnavailable creates a new ErrDatabaseUnavailable.
func NewDatabaseUnavailable(cause error) *ErrDatabaseUnavailable {
	return &ErrDatabaseUnavailable{CanonicError{
		Code:       CodeEngine,
		Message:    "database unavailable",
		Reason:     "could not establish a connection to the configured database at startup",
		Suggestion: "verify DATABASE_URL and that the database is reachable",
		Cause:      cause,
	}}
}

// ErrMigrationFailed is returned when an embedded schema migration fails to apply.
type ErrMigrationFailed struct {
	CanonicError
	Migration string
}

// NewMigrationFailed creates a new ErrMigrationFailed.
func NewMigrationFailed(migration string, cause error) *ErrMigrationFailed {
	return &ErrMigrationFailed{
		CanonicError: CanonicError{
			Code:       CodeEngine,
			Message:    fmt.Sprintf("migration %q failed", migration),
			Reason:     cause.Error(),
			Suggestion: "check database connection and migration file syntax",
			Cause:      cause,
		},
		Migration: migration,
	}
}

// ErrLLMUnavailable is returned when the language model provider cannot be reached.
type ErrLLMUnavailable struct {
	CanonicError
}

// NewLLMUnavailable creates a new ErrLLMUnavailable.
func NewLLMUnavailable(cause error) *ErrLLMUnavailable {
	return &ErrLLMUnavailable{CanonicError{
		Code:       CodeLLM,
		Message:    "language model provider unavailable",
		Reason:     "the request to the LLM provider failed or timed out",
		Suggestion: "retry shortly; if this persists check LLM_API_KEY and provider status",
		Cause:      cause,
	}}
}

// ErrLLMInvalidResponse is returned when a model response could not be parsed
// into the shape a pipeline stage requires.
type ErrLLMInvalidResponse struct {
	CanonicError
	Stage string
}

// NewLLMInvalidResponse creates a new ErrLLMInvalidResponse.
func NewLLMInvalidResponse(stage string, cause error) *ErrLLMInvalidResponse {
	return &ErrLLMInvalidResponse{
		CanonicError: CanonicError{
			Code:       CodeLLM,
			Message:    fmt.Sprintf("could not parse model response during %s", stage),
			Reason:     "the model's output did not contain the expected content",
			Suggestion: "resubmit the request; this failure ends the request without a retry",
			Cause:      cause,
		},
		Stage: stage,
	}
}

// ErrInternal wraps an unexpected internal failure that does not fit another category.
type ErrInternal struct {
	CanonicError
}

// NewInternal creates a new ErrInternal.
func NewInternal(message string, cause error) *ErrInternal {
	return &ErrInternal{CanonicError{
		Code:       CodeInternal,
		Message:    message,
		Reason:     "an unexpected internal error occurred",
		Suggestion: "check server logs",
		Cause:      cause,
	}}
}
