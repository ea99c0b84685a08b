package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlgateway/canonic/internal/adapters"
	"github.com/sqlgateway/canonic/internal/adapters/duckdb"
	"github.com/sqlgateway/canonic/internal/agent"
	"github.com/sqlgateway/canonic/internal/catalog"
	"github.com/sqlgateway/canonic/internal/executor"
	"github.com/sqlgateway/canonic/internal/observability"
	"github.com/sqlgateway/canonic/internal/orchestrator"
	canonicsql "github.com/sqlgateway/canonic/internal/sql"
	"github.com/sqlgateway/canonic/internal/status"
	"github.com/sqlgateway/canonic/internal/storage"
	"github.com/sqlgateway/canonic/pkg/models"
)

// scriptedIntent and scriptedSQL let the /ask scenarios drive the full
// pipeline without a real LLM.
type scriptedIntent struct{ out string }

func (s scriptedIntent) Interpret(ctx context.Context, userQuery string) (string, error) {
	return s.out, nil
}

type scriptedSQL struct {
	outs  []string
	calls *int
}

func (s scriptedSQL) Synthesize(ctx context.Context, interpretedIntent, errorMessage string) (string, error) {
	i := *s.calls
	if i >= len(s.outs) {
		i = len(s.outs) - 1
	}
	*s.calls++
	return s.outs[i], nil
}

type scriptedInsight struct{ result agent.InsightResult }

func (s scriptedInsight) Summarize(ctx context.Context, validatedSQL string, executionResult interface{}) agent.InsightResult {
	return s.result
}

// testGateway wires a Gateway against a seeded in-memory DuckDB adapter and
// scripted agents, mirroring how cmd/gateway/main.go wires the real thing.
func testGateway(t *testing.T, intent orchestrator.IntentInterpreter, sqlAgent orchestrator.SQLSynthesizer, insight orchestrator.Summarizer) (*Gateway, *storage.MockRepository) {
	t.Helper()

	adapter := duckdb.NewAdapter()
	if err := adapter.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	registry := adapters.NewAdapterRegistry()
	registry.Register(adapter)

	cat := catalog.NewCatalog()
	exec := executor.New(registry, "duckdb", executor.DefaultLimits())
	orch := orchestrator.New(intent, sqlAgent, insight, cat, canonicsql.DefaultLimits(), exec)

	checker := status.NewMockChecker()
	checker.SetTables(cat.AllowedTables())
	logger := observability.NewNoopLogger()
	auditRepo := storage.NewMockRepository()

	g := New(orch, cat, checker, logger, auditRepo, nil)
	return g, auditRepo
}

func postJSON(t *testing.T, g *Gateway, path string, body interface{}) (*httptest.ResponseRecorder, models.ResponseEnvelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	var env models.ResponseEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", rec.Body.String(), err)
	}
	return rec, env
}

// Scenario A: a plain COUNT over customers succeeds and returns 5.
func TestQueryScenarioACountCustomers(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, env := postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT COUNT(*) AS n FROM customers"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Error = %v, want nil", *env.Error)
	}
	if env.ExecutionResult == nil || len(env.ExecutionResult.Data) != 1 {
		t.Fatalf("ExecutionResult = %+v", env.ExecutionResult)
	}
	n, ok := env.ExecutionResult.Data[0]["n"].(float64)
	if !ok || n != 5 {
		t.Errorf("Data[0][n] = %v, want 5", env.ExecutionResult.Data[0]["n"])
	}
}

// Scenario B: multiple statements are rejected.
func TestQueryScenarioBMultipleStatementsRejected(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, env := postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT * FROM customers; SELECT * FROM accounts"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (business refusal)", rec.Code)
	}
	if env.Error == nil || !strings.Contains(*env.Error, string(canonicsql.MultipleStatements)) {
		t.Errorf("Error = %v, want mention of multiple_statements", env.Error)
	}
}

// Scenario C: an unauthorized table is rejected.
func TestQueryScenarioCUnauthorizedTableRejected(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, env := postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT * FROM users"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (business refusal)", rec.Code)
	}
	if env.Error == nil || !strings.Contains(*env.Error, string(canonicsql.UnauthorizedTable)) {
		t.Errorf("Error = %v, want mention of unauthorized_table", env.Error)
	}
}

// Scenario D: a comment in the query text is rejected.
func TestQueryScenarioDCommentRejected(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, env := postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT * FROM customers -- drop everything"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (business refusal)", rec.Code)
	}
	if env.Error == nil || !strings.Contains(*env.Error, string(canonicsql.ContainsComment)) {
		t.Errorf("Error = %v, want mention of contains_comment", env.Error)
	}
}

// Scenario E: a UNION-based injection attempt is rejected.
func TestQueryScenarioEInjectionRejected(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, env := postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT * FROM accounts UNION SELECT * FROM customers"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (business refusal)", rec.Code)
	}
	if env.Error == nil || !strings.Contains(*env.Error, string(canonicsql.InjectionPattern)) {
		t.Errorf("Error = %v, want mention of injection_pattern", env.Error)
	}
}

// Scenario F: an over-limit LIMIT is clamped, not rejected.
func TestQueryScenarioFLimitClamped(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, env := postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT * FROM transactions LIMIT 5000"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Error = %v, want nil", *env.Error)
	}
	if env.ValidatedSQL == nil || !strings.HasSuffix(*env.ValidatedSQL, "limit 1000") {
		t.Errorf("ValidatedSQL = %v, want LIMIT clamped to 1000", env.ValidatedSQL)
	}
}

// Scenario G: a natural-language question drives the full pipeline to a
// successful metric result.
func TestAskScenarioGNaturalLanguageCount(t *testing.T) {
	intent := scriptedIntent{out: "count all customers"}
	calls := 0
	sqlAgent := scriptedSQL{outs: []string{"SELECT COUNT(*) AS count FROM customers"}, calls: &calls}
	summary := "There are 5 customers."
	insight := scriptedInsight{result: agent.InsightResult{Summary: &summary, ChartSuggestion: agent.ChartMetric}}

	g, _ := testGateway(t, intent, sqlAgent, insight)

	rec, env := postJSON(t, g, "/ask", models.AskRequest{Query: "how many customers do we have?"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Error = %v, want nil", *env.Error)
	}
	if env.ExecutionResult == nil || len(env.ExecutionResult.Data) != 1 {
		t.Fatalf("ExecutionResult = %+v", env.ExecutionResult)
	}
	if count, ok := env.ExecutionResult.Data[0]["count"].(float64); !ok || count != 5 {
		t.Errorf("Data[0][count] = %v, want 5", env.ExecutionResult.Data[0]["count"])
	}
	if env.ChartSuggestion == nil || *env.ChartSuggestion != string(agent.ChartMetric) {
		t.Errorf("ChartSuggestion = %v, want metric", env.ChartSuggestion)
	}
}

// Scenario H: the SQL agent's first candidate is rejected, its retry is
// accepted, and the pipeline still succeeds after exactly two invocations.
func TestAskScenarioHRetrySucceeds(t *testing.T) {
	intent := scriptedIntent{out: "list all the users in the system"}
	calls := 0
	sqlAgent := scriptedSQL{outs: []string{
		"SELECT * FROM users",
		"SELECT * FROM customers LIMIT 10",
	}, calls: &calls}
	insight := scriptedInsight{result: agent.InsightResult{ChartSuggestion: agent.ChartTable}}

	g, _ := testGateway(t, intent, sqlAgent, insight)

	rec, env := postJSON(t, g, "/ask", models.AskRequest{Query: "list all the users"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Error = %v, want nil after a successful retry", *env.Error)
	}
	if calls != 2 {
		t.Errorf("SQL agent invocations = %d, want 2", calls)
	}
}

func TestQueryMalformedBodyReturns422(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestQueryEmptySQLReturns422(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	rec, _ := postJSON(t, g, "/query", models.QueryRequest{SQL: "   "})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestHealthEndpointReportsSeededTables(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(health.Tables) != 3 {
		t.Errorf("Tables = %v, want 3 tables", health.Tables)
	}
}

func TestTablesEndpointListsSchema(t *testing.T) {
	g, _ := testGateway(t, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	var resp models.TablesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(resp.Tables) != 3 {
		t.Fatalf("Tables = %v, want 3", resp.Tables)
	}
}

func TestQueryWritesAuditEntry(t *testing.T) {
	g, auditRepo := testGateway(t, nil, nil, nil)

	postJSON(t, g, "/query", models.QueryRequest{SQL: "SELECT COUNT(*) AS n FROM customers"})

	entries, err := auditRepo.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Outcome != "success" {
		t.Errorf("Outcome = %q, want success", entries[0].Outcome)
	}
}
