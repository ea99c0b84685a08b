package orchestrator

import (
	"context"

	"github.com/sqlgateway/canonic/internal/agent"
	"github.com/sqlgateway/canonic/internal/catalog"
	"github.com/sqlgateway/canonic/internal/executor"
	canonicsql "github.com/sqlgateway/canonic/internal/sql"
)

// Envelope is the unified response shape returned to callers of both the
// raw-SQL and full-pipeline paths.
type Envelope struct {
	ValidatedSQL    *string          `json:"validated_sql"`
	ExecutionResult *executor.Result `json:"execution_result"`
	Summary         *string          `json:"summary"`
	ChartSuggestion *agent.ChartKind `json:"chart_suggestion"`
	Error           *string          `json:"error"`
}

// IntentInterpreter is the S1 Intent agent's contract: turn a
// natural-language question into an interpreted-intent string. Satisfied by
// *agent.IntentAgent; a test double implements it directly to drive the
// state machine without reaching a real LLM.
type IntentInterpreter interface {
	Interpret(ctx context.Context, userQuery string) (string, error)
}

// SQLSynthesizer is the S2 SQL agent's contract: turn an interpreted intent
// (plus, on retry, the previous rejection detail) into a candidate SQL
// statement. Satisfied by *agent.SQLAgent.
type SQLSynthesizer interface {
	Synthesize(ctx context.Context, interpretedIntent, errorMessage string) (string, error)
}

// Summarizer is the S5 Insight agent's contract: describe a validated
// query's result. Satisfied by *agent.InsightAgent.
type Summarizer interface {
	Summarize(ctx context.Context, validatedSQL string, executionResult interface{}) agent.InsightResult
}

// Orchestrator wires the Intent, SQL, and Insight agents to the validator
// and executor, running each request through a bounded-retry loop whose
// validate-and-execute step returns an Action.
type Orchestrator struct {
	intent  IntentInterpreter
	sql     SQLSynthesizer
	insight Summarizer

	catalog *catalog.Catalog
	limits  canonicsql.Limits
	exec    *executor.Executor
}

// New constructs an Orchestrator from its component agents and the shared
// catalog/validator/executor.
func New(
	intent IntentInterpreter,
	sqlAgent SQLSynthesizer,
	insight Summarizer,
	cat *catalog.Catalog,
	limits canonicsql.Limits,
	exec *executor.Executor,
) *Orchestrator {
	return &Orchestrator{
		intent:  intent,
		sql:     sqlAgent,
		insight: insight,
		catalog: cat,
		limits:  limits,
		exec:    exec,
	}
}

// RunFullPipeline drives a natural-language request from S1 Intent through
// S5 Insight, retrying SQL synthesis up to MaxRetries times on a validator
// rejection or executor failure.
func (o *Orchestrator) RunFullPipeline(ctx context.Context, userQuery string) Envelope {
	state := NewRequestState(userQuery)

	intent, err := o.intent.Interpret(ctx, userQuery)
	if err != nil {
		return fail(err.Error())
	}
	state.InterpretedIntent = &intent

	for {
		sql, err := o.sql.Synthesize(ctx, *state.InterpretedIntent, deref(state.ErrorMessage))
		if err != nil {
			return fail(err.Error())
		}
		state.GeneratedSQL = &sql

		action := o.validateAndExecute(ctx, state, *state.GeneratedSQL)
		if action.IsFail() {
			return fail(action.Reason())
		}
		if action.IsRetry() {
			if state.RetryCount >= MaxRetries {
				return fail(action.Reason())
			}
			state.RetryCount++
			msg := action.Reason()
			state.ErrorMessage = &msg
			continue
		}

		// Proceed: executed successfully, move to Insight.
		result := o.insight.Summarize(ctx, *state.ValidatedSQL, state.ExecutionResult)
		state.Summary = result.Summary
		chart := result.ChartSuggestion
		state.ChartSuggestion = &chart

		return Envelope{
			ValidatedSQL:    state.ValidatedSQL,
			ExecutionResult: state.ExecutionResult,
			Summary:         state.Summary,
			ChartSuggestion: state.ChartSuggestion,
			Error:           nil,
		}
	}
}

// RunRawSQL drives a client-supplied SQL string through S3 Validate and S4
// Execute only. There is no regeneration source for a raw-SQL request, so a
// rejection or execution failure is surfaced immediately without retry.
func (o *Orchestrator) RunRawSQL(ctx context.Context, sql string) Envelope {
	state := NewRequestState("")
	state.GeneratedSQL = &sql

	action := o.validateAndExecute(ctx, state, sql)
	if !action.IsProceed() {
		return fail(action.Reason())
	}

	return Envelope{
		ValidatedSQL:    state.ValidatedSQL,
		ExecutionResult: state.ExecutionResult,
		Summary:         nil,
		ChartSuggestion: nil,
		Error:           nil,
	}
}

// validateAndExecute runs S3 Validate then, on acceptance, S4 Execute,
// mutating state per the invariants: on acceptance error_message is
// cleared and validated_sql is set; on any failure validated_sql is
// cleared and the failure detail is returned as the Action's reason, which
// RunFullPipeline records as error_message before a retry.
func (o *Orchestrator) validateAndExecute(ctx context.Context, state *RequestState, sql string) Action {
	verdict := canonicsql.Validate(sql, o.catalog, o.limits)
	if !verdict.Accepted() {
		state.ValidatedSQL = nil
		return Retry(string(verdict.Reason) + ": " + verdict.Detail)
	}

	state.ValidatedSQL = &verdict.NormalizedSQL
	state.ErrorMessage = nil

	result, err := o.exec.Run(ctx, verdict.NormalizedSQL)
	if err != nil {
		state.ValidatedSQL = nil
		return Retry(err.Error())
	}

	state.ExecutionResult = result
	return Proceed()
}

func fail(reason string) Envelope {
	return Envelope{Error: &reason}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
