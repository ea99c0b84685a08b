package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sqlgateway/canonic/internal/errors"
)

// PostgresRepository implements AuditRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// PostgresConfig configures the PostgreSQL repository's connection pool.
type PostgresConfig struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert records one completed request in audit_logs.
func (r *PostgresRepository) Insert(ctx context.Context, entry AuditEntry) error {
	tablesJSON, err := json.Marshal(entry.Tables)
	if err != nil {
		tablesJSON = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (
			query_id, user_query, generated_sql, validated_sql, tables_json,
			engine, execution_time_ms, outcome, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.QueryID,
		nullableString(entry.UserQuery),
		nullableString(entry.GeneratedSQL),
		nullableString(entry.ValidatedSQL),
		tablesJSON,
		nullableString(entry.Engine),
		entry.ExecutionTime.Milliseconds(),
		nullableString(entry.Outcome),
		nullableString(entry.Error),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Recent returns the most recently inserted entries, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT query_id, user_query, generated_sql, validated_sql, tables_json,
			engine, execution_time_ms, outcome, error_message, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var userQuery, generatedSQL, validatedSQL, engine, outcome, errMsg sql.NullString
		var tablesJSON []byte
		var execMs int64

		if err := rows.Scan(&e.QueryID, &userQuery, &generatedSQL, &validatedSQL, &tablesJSON,
			&engine, &execMs, &outcome, &errMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		e.UserQuery = userQuery.String
		e.GeneratedSQL = generatedSQL.String
		e.ValidatedSQL = validatedSQL.String
		e.Engine = engine.String
		e.Outcome = outcome.String
		e.Error = errMsg.String
		e.ExecutionTime = time.Duration(execMs) * time.Millisecond

		if len(tablesJSON) > 0 {
			_ = json.Unmarshal(tablesJSON, &e.Tables)
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// CheckConnectivity verifies database connectivity.
func (r *PostgresRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseUnavailable(err)
	}
	return nil
}

// Verify PostgresRepository implements AuditRepository interface.
var _ AuditRepository = (*PostgresRepository)(nil)
