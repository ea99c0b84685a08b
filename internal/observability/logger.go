// Package observability provides structured logging for the canonic gateway.
//
// Every request must emit: query_id, tables referenced, engine selected,
// execution time, and error (if any).
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// QueryLogEntry contains all required fields for request logging.
type QueryLogEntry struct {
	// QueryID is the unique identifier for this request.
	QueryID string

	// Tables are the schema tables referenced in the validated query.
	// May be empty for a query that was rejected before validation passed.
	Tables []string

	// Engine is the execution engine the query ran against.
	// May be empty if the query failed before execution.
	Engine string

	// ExecutionTime is how long the query took to execute.
	// Must be non-negative.
	ExecutionTime time.Duration

	// Outcome is the result status: "success", "error", or "rejected".
	Outcome string

	// Error contains the error or rejection message if the request failed.
	// Empty string for successful queries.
	Error string
}

// Validate checks that all required fields are present.
func (e *QueryLogEntry) Validate() error {
	if e.QueryID == "" {
		return fmt.Errorf("observability: query_id is required")
	}
	if e.ExecutionTime < 0 {
		return fmt.Errorf("observability: execution_time cannot be negative")
	}
	return nil
}

// QueryLogger is the interface for request logging.
type QueryLogger interface {
	// LogQuery logs a request's outcome.
	// Returns an error if logging fails or the entry is invalid.
	LogQuery(ctx context.Context, entry QueryLogEntry) error

	// GetAuditSummary returns aggregated audit statistics.
	GetAuditSummary() *AuditSummary
}

// AuditSummary represents aggregated audit statistics.
type AuditSummary struct {
	AcceptedCount       int                   `json:"accepted_count"`
	RejectedCount       int                   `json:"rejected_count"`
	TopRejectionReasons []RejectionReasonStat `json:"top_rejection_reasons"`
	TopQueriedTables    []TableQueryStat      `json:"top_queried_tables"`
}

// RejectionReasonStat represents rejection reason statistics.
type RejectionReasonStat struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// TableQueryStat represents table query statistics.
type TableQueryStat struct {
	Table string `json:"table"`
	Count int    `json:"count"`
}

// jsonLogOutput is the structured format for JSON logs.
type jsonLogOutput struct {
	Timestamp       string   `json:"timestamp"`
	Level           string   `json:"level"`
	QueryID         string   `json:"query_id"`
	Tables          []string `json:"tables"`
	Engine          string   `json:"engine"`
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	Outcome         string   `json:"outcome,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// JSONLogger implements QueryLogger with JSON output.
type JSONLogger struct {
	writer  io.Writer
	entries []QueryLogEntry // Track entries for audit summary
	mu      sync.RWMutex
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  w,
		entries: make([]QueryLogEntry, 0),
	}
}

// LogQuery logs a request outcome as JSON.
func (l *JSONLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Error != "" {
		level = "error"
	}

	output := jsonLogOutput{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Level:           level,
		QueryID:         entry.QueryID,
		Tables:          entry.Tables,
		Engine:          entry.Engine,
		ExecutionTimeMs: entry.ExecutionTime.Milliseconds(),
		Outcome:         entry.Outcome,
		Error:           entry.Error,
	}

	if output.Tables == nil {
		output.Tables = []string{}
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal log: %w", err)
	}

	_, err = l.writer.Write(data)
	if err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	return nil
}

// GetAuditSummary returns aggregated audit statistics.
func (l *JSONLogger) GetAuditSummary() *AuditSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := &AuditSummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopQueriedTables:    []TableQueryStat{},
	}

	rejectionReasons := make(map[string]int)
	tableCounts := make(map[string]int)

	for _, entry := range l.entries {
		if entry.Error == "" {
			summary.AcceptedCount++
		} else {
			summary.RejectedCount++
			rejectionReasons[entry.Error]++
		}

		for _, table := range entry.Tables {
			tableCounts[table]++
		}
	}

	for reason, count := range rejectionReasons {
		summary.TopRejectionReasons = append(summary.TopRejectionReasons, RejectionReasonStat{
			Reason: reason,
			Count:  count,
		})
	}
	sort.Slice(summary.TopRejectionReasons, func(i, j int) bool {
		return summary.TopRejectionReasons[i].Count > summary.TopRejectionReasons[j].Count
	})
	if len(summary.TopRejectionReasons) > 5 {
		summary.TopRejectionReasons = summary.TopRejectionReasons[:5]
	}

	for table, count := range tableCounts {
		summary.TopQueriedTables = append(summary.TopQueriedTables, TableQueryStat{
			Table: table,
			Count: count,
		})
	}
	sort.Slice(summary.TopQueriedTables, func(i, j int) bool {
		return summary.TopQueriedTables[i].Count > summary.TopQueriedTables[j].Count
	})
	if len(summary.TopQueriedTables) > 5 {
		summary.TopQueriedTables = summary.TopQueriedTables[:5]
	}

	return summary
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogQuery does nothing and always succeeds.
func (l *NoopLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	return nil
}

// GetAuditSummary returns an empty summary for the no-op logger.
func (l *NoopLogger) GetAuditSummary() *AuditSummary {
	return &AuditSummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopQueriedTables:    []TableQueryStat{},
	}
}

// PersistentLogger implements QueryLogger with PostgreSQL persistence.
// Audit logs must survive gateway restart.
type PersistentLogger struct {
	db     *sql.DB
	mu     sync.RWMutex
	writer io.Writer // optional: also write to stdout for debugging
}

// NewPersistentLogger creates a logger that persists audit entries to PostgreSQL.
func NewPersistentLogger(db *sql.DB) (*PersistentLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for persistent logging")
	}
	return &PersistentLogger{
		db: db,
	}, nil
}

// NewPersistentLoggerWithWriter creates a logger that persists to both DB and a writer.
func NewPersistentLoggerWithWriter(db *sql.DB, w io.Writer) (*PersistentLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for persistent logging")
	}
	return &PersistentLogger{
		db:     db,
		writer: w,
	}, nil
}

// LogQuery persists a request log entry to PostgreSQL.
func (l *PersistentLogger) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	tablesJSON, err := json.Marshal(entry.Tables)
	if err != nil {
		tablesJSON = []byte("[]")
	}

	query := `
		INSERT INTO audit_logs (
			query_id, tables_json, engine, execution_time_ms, outcome,
			error_message
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = l.db.ExecContext(ctx, query,
		entry.QueryID,
		tablesJSON,
		nullableString(entry.Engine),
		entry.ExecutionTime.Milliseconds(),
		nullableString(entry.Outcome),
		nullableString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("observability: failed to persist audit log: %w", err)
	}

	if l.writer != nil {
		level := "info"
		if entry.Error != "" {
			level = "error"
		}
		output := jsonLogOutput{
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			Level:           level,
			QueryID:         entry.QueryID,
			Tables:          entry.Tables,
			Engine:          entry.Engine,
			ExecutionTimeMs: entry.ExecutionTime.Milliseconds(),
			Outcome:         entry.Outcome,
			Error:           entry.Error,
		}
		if data, err := json.Marshal(output); err == nil {
			l.writer.Write(data)
			l.writer.Write([]byte("\n"))
		}
	}

	return nil
}

// GetAuditSummary returns aggregated audit statistics from the database.
func (l *PersistentLogger) GetAuditSummary() *AuditSummary {
	summary := &AuditSummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopQueriedTables:    []TableQueryStat{},
	}

	ctx := context.Background()

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_logs WHERE error_message IS NULL OR error_message = ''
	`)
	row.Scan(&summary.AcceptedCount)

	row = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_logs WHERE error_message IS NOT NULL AND error_message != ''
	`)
	row.Scan(&summary.RejectedCount)

	rows, err := l.db.QueryContext(ctx, `
		SELECT error_message, COUNT(*) as cnt
		FROM audit_logs
		WHERE error_message IS NOT NULL AND error_message != ''
		GROUP BY error_message
		ORDER BY cnt DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var reason string
			var count int
			if rows.Scan(&reason, &count) == nil {
				summary.TopRejectionReasons = append(summary.TopRejectionReasons, RejectionReasonStat{
					Reason: reason,
					Count:  count,
				})
			}
		}
	}

	rows, err = l.db.QueryContext(ctx, `
		SELECT table_name, COUNT(*) as cnt
		FROM audit_logs, jsonb_array_elements_text(tables_json) as table_name
		GROUP BY table_name
		ORDER BY cnt DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var table string
			var count int
			if rows.Scan(&table, &count) == nil {
				summary.TopQueriedTables = append(summary.TopQueriedTables, TableQueryStat{
					Table: table,
					Count: count,
				})
			}
		}
	}

	return summary
}

// nullableString converts empty strings to nil for SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
