// Package orchestrator drives a single request through intent extraction,
// SQL synthesis, validation, execution, and insight generation as an
// explicit state machine, retrying SQL synthesis within a fixed budget
// when the validator or executor rejects a candidate.
package orchestrator

import (
	"github.com/sqlgateway/canonic/internal/agent"
	"github.com/sqlgateway/canonic/internal/executor"
)

// MaxRetries bounds how many times the SQL Agent may be re-invoked after
// the initial attempt: three total SQL-agent invocations (initial plus two
// retries).
const MaxRetries = 2

// State names one node of the orchestration graph.
type State int

const (
	StateStart State = iota
	StateIntent
	StateSynthesizeSQL
	StateValidate
	StateExecute
	StateInsight
	StateOk
	StateErr
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateIntent:
		return "intent"
	case StateSynthesizeSQL:
		return "synthesize_sql"
	case StateValidate:
		return "validate"
	case StateExecute:
		return "execute"
	case StateInsight:
		return "insight"
	case StateOk:
		return "ok"
	case StateErr:
		return "err"
	default:
		return "unknown"
	}
}

// Action is the tagged-union result of a transition: the orchestrator
// dispatches on which variant a step returns rather than inspecting a
// string code, recovering compile-time exhaustiveness at each call site.
type Action struct {
	kind   actionKind
	reason string
}

type actionKind int

const (
	actionProceed actionKind = iota
	actionRetry
	actionFail
)

// Proceed continues to the next state in the normal path.
func Proceed() Action { return Action{kind: actionProceed} }

// Retry routes back to SQL synthesis, recording reason as the request
// state's error_message.
func Retry(reason string) Action { return Action{kind: actionRetry, reason: reason} }

// Fail terminates the request with reason as the final error.
func Fail(reason string) Action { return Action{kind: actionFail, reason: reason} }

// IsProceed reports whether the action is the Proceed variant.
func (a Action) IsProceed() bool { return a.kind == actionProceed }

// IsRetry reports whether the action is the Retry variant.
func (a Action) IsRetry() bool { return a.kind == actionRetry }

// IsFail reports whether the action is the Fail variant.
func (a Action) IsFail() bool { return a.kind == actionFail }

// Reason returns the detail carried by Retry or Fail; empty for Proceed.
func (a Action) Reason() string { return a.reason }

// RequestState is the per-request record owned by the Orchestrator. It is
// single-owner: one worker processes one request, so no locking is needed.
type RequestState struct {
	UserQuery         string
	InterpretedIntent *string
	GeneratedSQL      *string
	ValidatedSQL      *string
	ExecutionResult   *executor.Result
	RetryCount        int
	ErrorMessage      *string
	Summary           *string
	ChartSuggestion   *agent.ChartKind
}

// NewRequestState creates the initial state for a natural-language request.
func NewRequestState(userQuery string) *RequestState {
	return &RequestState{UserQuery: userQuery}
}
