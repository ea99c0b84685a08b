// Package redshift provides the Amazon Redshift data warehouse adapter.
// Redshift speaks the Postgres wire protocol, so this adapter reuses the
// lib/pq driver rather than a dedicated Redshift client.
package redshift

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sqlgateway/canonic/internal/adapters"

	// Import postgres driver for Redshift (uses postgres protocol)
	_ "github.com/lib/pq"
)

// Config configures the Redshift adapter.
type Config struct {
	// Host is the Redshift cluster endpoint.
	Host string

	// Port is the Redshift port (default 5439).
	Port int

	// Database is the Redshift database name.
	Database string

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// SSLMode controls SSL: disable, require, verify-ca, verify-full
	SSLMode string

	// IAM Auth (alternative to password)
	UseIAMAuth bool
	AWSRegion  string
	ClusterID  string

	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Port:           5439,
		SSLMode:        "require",
		ConnectTimeout: 30 * time.Second,
		QueryTimeout:   5 * time.Minute,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("redshift: host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("redshift: database is required")
	}
	if c.User == "" {
		return fmt.Errorf("redshift: user is required")
	}
	if !c.UseIAMAuth && c.Password == "" {
		return fmt.Errorf("redshift: password is required when not using IAM auth")
	}
	if c.UseIAMAuth && (c.AWSRegion == "" || c.ClusterID == "") {
		return fmt.Errorf("redshift: aws_region and cluster_id required for IAM auth")
	}
	return nil
}

// Adapter implements the EngineAdapter interface for Redshift.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	db     *sql.DB
	closed bool
}

// NewAdapter creates a new Redshift adapter.
func NewAdapter(ctx context.Context, config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.UseIAMAuth {
		return nil, fmt.Errorf(
			"redshift: IAM authentication requires AWS SDK; " +
				"use password authentication or add github.com/aws/aws-sdk-go-v2")
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Host, config.Port, config.Database,
		config.User, config.Password, config.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("redshift: failed to connect: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("redshift: connection test failed: %w", err)
	}

	return &Adapter{
		config: config,
		db:     db,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "redshift"
}

// Execute runs sql (already validator-accepted) against Redshift.
func (a *Adapter) Execute(ctx context.Context, query string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("redshift: adapter is closed")
	}
	if a.db == nil {
		return nil, fmt.Errorf("redshift: connection not available")
	}

	queryCtx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	defer cancel()

	rows, err := a.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("redshift: query failed: %w", err)
	}
	defer rows.Close()

	return a.collectResults(rows)
}

// collectResults collects query results into a QueryResult.
func (a *Adapter) collectResults(rows *sql.Rows) (*adapters.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("redshift: failed to get columns: %w", err)
	}

	var resultRows [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("redshift: failed to scan row: %w", err)
		}

		resultRows = append(resultRows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("redshift: row iteration error: %w", err)
	}

	return &adapters.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{
			"engine":   "redshift",
			"host":     a.config.Host,
			"database": a.config.Database,
		},
	}, nil
}

// Ping checks if Redshift is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("redshift: adapter is closed")
	}

	return a.db.PingContext(ctx)
}

// CheckHealth verifies the adapter is healthy.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("redshift: adapter is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("redshift: health check failed: %w", err)
	}

	return nil
}

// Close releases resources held by the adapter.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.closed = true
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

var _ adapters.EngineAdapter = (*Adapter)(nil)
