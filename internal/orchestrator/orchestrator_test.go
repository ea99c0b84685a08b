package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/sqlgateway/canonic/internal/adapters"
	"github.com/sqlgateway/canonic/internal/agent"
	"github.com/sqlgateway/canonic/internal/catalog"
	"github.com/sqlgateway/canonic/internal/executor"
	canonicsql "github.com/sqlgateway/canonic/internal/sql"
)

// mockIntent is a scripted IntentInterpreter test double.
type mockIntent struct {
	out   string
	err   error
	calls int
}

func (m *mockIntent) Interpret(ctx context.Context, userQuery string) (string, error) {
	m.calls++
	return m.out, m.err
}

// mockSQL is a scripted SQLSynthesizer test double: each call consumes the
// next entry from outs (or errs), repeating the last entry once exhausted.
type mockSQL struct {
	outs  []string
	errs  []error
	calls int
}

func (m *mockSQL) Synthesize(ctx context.Context, interpretedIntent, errorMessage string) (string, error) {
	i := m.calls
	if i >= len(m.outs) {
		i = len(m.outs) - 1
	}
	m.calls++
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return m.outs[i], err
}

// mockInsight is a scripted Summarizer test double.
type mockInsight struct {
	result agent.InsightResult
	calls  int
}

func (m *mockInsight) Summarize(ctx context.Context, validatedSQL string, executionResult interface{}) agent.InsightResult {
	m.calls++
	return m.result
}

// panicking{Intent,SQL,Insight} fail the test if invoked at all, used to
// prove RunRawSQL never reaches an LLM call (invariant 10).
type panickingIntent struct{ t *testing.T }

func (p panickingIntent) Interpret(ctx context.Context, userQuery string) (string, error) {
	p.t.Fatal("IntentInterpreter.Interpret invoked during RunRawSQL")
	return "", nil
}

type panickingSQL struct{ t *testing.T }

func (p panickingSQL) Synthesize(ctx context.Context, interpretedIntent, errorMessage string) (string, error) {
	p.t.Fatal("SQLSynthesizer.Synthesize invoked during RunRawSQL")
	return "", nil
}

type panickingInsight struct{ t *testing.T }

func (p panickingInsight) Summarize(ctx context.Context, validatedSQL string, executionResult interface{}) agent.InsightResult {
	p.t.Fatal("Summarizer.Summarize invoked during RunRawSQL")
	return agent.InsightResult{}
}

// stubAdapter is a minimal EngineAdapter returning one fixed result.
type stubAdapter struct {
	name   string
	result *adapters.QueryResult
	err    error
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Execute(ctx context.Context, sql string) (*adapters.QueryResult, error) {
	return s.result, s.err
}
func (s *stubAdapter) Ping(ctx context.Context) error        { return nil }
func (s *stubAdapter) CheckHealth(ctx context.Context) error { return nil }
func (s *stubAdapter) Close() error                          { return nil }

func newTestExecutor(result *adapters.QueryResult, err error) *executor.Executor {
	registry := adapters.NewAdapterRegistry()
	registry.Register(&stubAdapter{name: "duckdb", result: result, err: err})
	return executor.New(registry, "duckdb", executor.DefaultLimits())
}

func countResult() *adapters.QueryResult {
	return &adapters.QueryResult{
		Columns: []string{"n"},
		Rows:    [][]interface{}{{5}},
	}
}

func TestRunFullPipelineSuccess(t *testing.T) {
	intent := &mockIntent{out: "count customers"}
	sqlAgent := &mockSQL{outs: []string{"SELECT COUNT(*) AS n FROM customers"}}
	summary := "There are 5 customers."
	insight := &mockInsight{result: agent.InsightResult{Summary: &summary, ChartSuggestion: agent.ChartMetric}}

	orch := New(intent, sqlAgent, insight, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(countResult(), nil))

	env := orch.RunFullPipeline(context.Background(), "how many customers are there?")

	if env.Error != nil {
		t.Fatalf("Error = %v, want nil", *env.Error)
	}
	if env.ValidatedSQL == nil {
		t.Fatal("ValidatedSQL = nil, want set")
	}
	if env.ExecutionResult == nil {
		t.Fatal("ExecutionResult = nil, want set")
	}
	if env.Summary == nil || *env.Summary != summary {
		t.Errorf("Summary = %v, want %q", env.Summary, summary)
	}
	if env.ChartSuggestion == nil || *env.ChartSuggestion != agent.ChartMetric {
		t.Errorf("ChartSuggestion = %v, want metric", env.ChartSuggestion)
	}
	if sqlAgent.calls != 1 {
		t.Errorf("SQL agent invocations = %d, want 1", sqlAgent.calls)
	}
	if insight.calls != 1 {
		t.Errorf("Insight agent invocations = %d, want 1", insight.calls)
	}
}

// Scenario H: the first candidate is rejected, the second is accepted; the
// SQL agent is invoked exactly twice and the pipeline still succeeds.
func TestRunFullPipelineRetriesWithinBudget(t *testing.T) {
	intent := &mockIntent{out: "list users"}
	sqlAgent := &mockSQL{outs: []string{
		"SELECT * FROM users",
		"SELECT * FROM customers LIMIT 10",
	}}
	insight := &mockInsight{result: agent.InsightResult{ChartSuggestion: agent.ChartTable}}

	orch := New(intent, sqlAgent, insight, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(countResult(), nil))

	env := orch.RunFullPipeline(context.Background(), "list all the users")

	if env.Error != nil {
		t.Fatalf("Error = %v, want nil after a successful retry", *env.Error)
	}
	if sqlAgent.calls != 2 {
		t.Errorf("SQL agent invocations = %d, want 2", sqlAgent.calls)
	}
}

// Invariant 7: retry_count is monotonic and bounded by MaxRetries, giving
// MaxRetries+1 total SQL-agent invocations before the pipeline fails.
func TestRunFullPipelineFailsAfterExhaustingRetryBudget(t *testing.T) {
	intent := &mockIntent{out: "list users"}
	sqlAgent := &mockSQL{outs: []string{
		"SELECT * FROM users",
		"SELECT * FROM users",
		"SELECT * FROM users",
	}}
	insight := &mockInsight{}

	orch := New(intent, sqlAgent, insight, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(nil, nil))

	env := orch.RunFullPipeline(context.Background(), "list all the users")

	if env.Error == nil {
		t.Fatal("Error = nil, want a failure after exhausting the retry budget")
	}
	if env.ExecutionResult != nil {
		t.Error("ExecutionResult != nil on a failed pipeline, violates invariant 9")
	}
	if env.ValidatedSQL != nil {
		t.Error("ValidatedSQL != nil on a failed pipeline")
	}
	if sqlAgent.calls != MaxRetries+1 {
		t.Errorf("SQL agent invocations = %d, want %d", sqlAgent.calls, MaxRetries+1)
	}
	if insight.calls != 0 {
		t.Errorf("Insight agent invocations = %d, want 0 on a failed pipeline", insight.calls)
	}
}

func TestRunFullPipelineIntentErrorFailsWithoutSynthesizing(t *testing.T) {
	intent := &mockIntent{err: errors.New("model unavailable")}
	sqlAgent := &mockSQL{outs: []string{"SELECT 1"}}
	insight := &mockInsight{}

	orch := New(intent, sqlAgent, insight, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(nil, nil))

	env := orch.RunFullPipeline(context.Background(), "anything")

	if env.Error == nil {
		t.Fatal("Error = nil, want set when intent interpretation fails")
	}
	if sqlAgent.calls != 0 {
		t.Errorf("SQL agent invocations = %d, want 0 when intent fails first", sqlAgent.calls)
	}
}

// Invariant 10: RunRawSQL bypasses every LLM stage entirely.
func TestRunRawSQLInvokesNoLLM(t *testing.T) {
	orch := New(panickingIntent{t}, panickingSQL{t}, panickingInsight{t}, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(countResult(), nil))

	env := orch.RunRawSQL(context.Background(), "SELECT COUNT(*) AS n FROM customers")

	if env.Error != nil {
		t.Fatalf("Error = %v, want nil", *env.Error)
	}
	if env.Summary != nil {
		t.Error("Summary != nil, want nil: RunRawSQL never reaches the Insight agent")
	}
	if env.ChartSuggestion != nil {
		t.Error("ChartSuggestion != nil, want nil")
	}
}

func TestRunRawSQLRejectedFailsWithoutRetry(t *testing.T) {
	orch := New(panickingIntent{t}, panickingSQL{t}, panickingInsight{t}, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(nil, nil))

	env := orch.RunRawSQL(context.Background(), "SELECT * FROM users")

	if env.Error == nil {
		t.Fatal("Error = nil, want set for an unauthorized table")
	}
	if env.ExecutionResult != nil {
		t.Error("ExecutionResult != nil on a rejected raw query")
	}
}

func TestRunRawSQLExecutionFailureSurfacesError(t *testing.T) {
	orch := New(panickingIntent{t}, panickingSQL{t}, panickingInsight{t}, catalog.NewCatalog(), canonicsql.DefaultLimits(), newTestExecutor(nil, errors.New("engine exploded")))

	env := orch.RunRawSQL(context.Background(), "SELECT * FROM customers")

	if env.Error == nil {
		t.Fatal("Error = nil, want set when execution fails")
	}
	if env.ExecutionResult != nil {
		t.Error("ExecutionResult != nil, violates invariant 9")
	}
}
