// Package gateway exposes the orchestrator and schema catalog over HTTP:
// GET /health, GET /tables, POST /query, POST /ask. Every endpoint returns
// the unified response envelope; HTTP status is 200 for business-level
// refusals (validator rejections, execution failures, LLM failures), 422
// for a malformed request body, and 500 for an unexpected internal error.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sqlgateway/canonic/internal/catalog"
	"github.com/sqlgateway/canonic/internal/observability"
	"github.com/sqlgateway/canonic/internal/orchestrator"
	"github.com/sqlgateway/canonic/internal/status"
	"github.com/sqlgateway/canonic/internal/storage"
	"github.com/sqlgateway/canonic/pkg/models"
)

// Gateway wires the orchestrator, schema catalog, and readiness checker to
// an HTTP surface.
type Gateway struct {
	orch      *orchestrator.Orchestrator
	catalog   *catalog.Catalog
	checker   status.Checker
	logger    observability.QueryLogger
	auditRepo storage.AuditRepository

	allowedOrigins map[string]bool
	router         chi.Router
}

// New constructs a Gateway. allowedOrigins is the CORS whitelist; an empty
// list allows no cross-origin requests.
func New(
	orch *orchestrator.Orchestrator,
	cat *catalog.Catalog,
	checker status.Checker,
	logger observability.QueryLogger,
	auditRepo storage.AuditRepository,
	allowedOrigins []string,
) *Gateway {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	g := &Gateway{
		orch:           orch,
		catalog:        cat,
		checker:        checker,
		logger:         logger,
		auditRepo:      auditRepo,
		allowedOrigins: origins,
	}
	g.router = g.buildRouter()
	return g
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

func (g *Gateway) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(g.recoverMiddleware)
	r.Use(g.corsMiddleware)

	r.Get("/health", g.handleHealth)
	r.Get("/tables", g.handleTables)
	r.Post("/query", g.handleQuery)
	r.Post("/ask", g.handleAsk)
	r.Get("/audit/recent", g.handleAuditRecent)

	return r
}

// corsMiddleware allows only GET and POST, restricted to the configured
// origin whitelist.
func (g *Gateway) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && g.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a panic anywhere downstream into a 500 envelope
// instead of taking down the server.
func (g *Gateway) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeEnvelope(w, http.StatusInternalServerError, errorEnvelope("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	result, err := g.checker.GetStatus(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:   result.Status,
		Database: result.Database,
		Tables:   result.Tables,
		AIReady:  result.AIReady,
	})
}

func (g *Gateway) handleTables(w http.ResponseWriter, r *http.Request) {
	names := g.catalog.AllowedTables()
	tables := make([]models.TableInfo, 0, len(names))
	for _, name := range names {
		t, ok := g.catalog.Table(name)
		if !ok {
			continue
		}
		cols := make([]models.ColumnInfo, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, models.ColumnInfo{Name: c.Name, Type: c.Type, Nullable: false})
		}
		tables = append(tables, models.TableInfo{Name: t.Name, Columns: cols})
	}
	writeJSON(w, http.StatusOK, models.TablesResponse{Tables: tables})
}

func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusUnprocessableEntity, errorEnvelope("malformed_request"))
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeEnvelope(w, http.StatusUnprocessableEntity, errorEnvelope("empty_query"))
		return
	}

	start := time.Now()
	envelope := g.orch.RunRawSQL(r.Context(), req.SQL)
	g.audit(r.Context(), envelope, time.Since(start))

	writeEnvelope(w, http.StatusOK, toModelEnvelope(envelope))
}

func (g *Gateway) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusUnprocessableEntity, errorEnvelope("malformed_request"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeEnvelope(w, http.StatusUnprocessableEntity, errorEnvelope("empty_query"))
		return
	}

	start := time.Now()
	envelope := g.orch.RunFullPipeline(r.Context(), req.Query)
	g.audit(r.Context(), envelope, time.Since(start))

	writeEnvelope(w, http.StatusOK, toModelEnvelope(envelope))
}

// handleAuditRecent returns the most recent audit trail entries, an
// operational surface for inspecting what the gateway has executed.
func (g *Gateway) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if g.auditRepo == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": []storage.AuditEntry{}})
		return
	}

	entries, err := g.auditRepo.Recent(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (g *Gateway) audit(ctx context.Context, envelope orchestrator.Envelope, elapsed time.Duration) {
	queryID := uuid.NewString()
	tables := referencedTables(g.catalog, envelope)
	outcome := "success"
	errMsg := ""
	engine := ""
	if envelope.ExecutionResult != nil {
		engine = envelope.ExecutionResult.Engine
	}
	if envelope.Error != nil {
		outcome = "error"
		errMsg = *envelope.Error
	}

	if g.logger != nil {
		_ = g.logger.LogQuery(ctx, observability.QueryLogEntry{
			QueryID:       queryID,
			Tables:        tables,
			Engine:        engine,
			ExecutionTime: elapsed,
			Outcome:       outcome,
			Error:         errMsg,
		})
	}

	if g.auditRepo != nil {
		_ = g.auditRepo.Insert(ctx, storage.AuditEntry{
			QueryID:       queryID,
			ValidatedSQL:  deref(envelope.ValidatedSQL),
			Tables:        tables,
			Engine:        engine,
			ExecutionTime: elapsed,
			Outcome:       outcome,
			Error:         errMsg,
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// referencedTables reports the whitelisted tables a validated query touched,
// by scanning the validated SQL for each allowed table name. Best effort:
// used for audit logging, not for authorization.
func referencedTables(cat *catalog.Catalog, envelope orchestrator.Envelope) []string {
	if envelope.ValidatedSQL == nil {
		return nil
	}
	sql := strings.ToLower(*envelope.ValidatedSQL)
	var tables []string
	for _, name := range cat.AllowedTables() {
		if strings.Contains(sql, strings.ToLower(name)) {
			tables = append(tables, name)
		}
	}
	return tables
}

func toModelEnvelope(e orchestrator.Envelope) models.ResponseEnvelope {
	out := models.ResponseEnvelope{
		ValidatedSQL: e.ValidatedSQL,
		Summary:      e.Summary,
		Error:        e.Error,
	}
	if e.ExecutionResult != nil {
		out.ExecutionResult = &models.ExecutionResult{
			Data:      e.ExecutionResult.Data,
			RowCount:  e.ExecutionResult.RowCount,
			ElapsedMs: e.ExecutionResult.ElapsedMs,
			Engine:    e.ExecutionResult.Engine,
			Truncated: e.ExecutionResult.Truncated,
		}
	}
	if e.ChartSuggestion != nil {
		s := string(*e.ChartSuggestion)
		out.ChartSuggestion = &s
	}
	return out
}

func errorEnvelope(msg string) models.ResponseEnvelope {
	return models.ResponseEnvelope{Error: &msg}
}

func writeEnvelope(w http.ResponseWriter, status int, env models.ResponseEnvelope) {
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
