// Package snowflake provides the Snowflake data warehouse adapter.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sqlgateway/canonic/internal/adapters"

	// Import gosnowflake driver - registers as "snowflake"
	_ "github.com/snowflakedb/gosnowflake"
)

// Config configures the Snowflake adapter.
type Config struct {
	// Account is the Snowflake account identifier.
	// Format: <account>.<region>.snowflakecomputing.com
	Account string

	// User is the Snowflake username.
	User string

	// Password for basic auth (or use key-pair).
	Password string

	// PrivateKey for key-pair authentication (PEM format).
	PrivateKey string

	// Database is the default database.
	Database string

	// Schema is the default schema.
	Schema string

	// Warehouse is the compute warehouse.
	Warehouse string

	// Role is the Snowflake role.
	Role string

	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		QueryTimeout:   5 * time.Minute,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("snowflake: account is required")
	}
	if c.User == "" {
		return fmt.Errorf("snowflake: user is required")
	}
	if c.Password == "" && c.PrivateKey == "" {
		return fmt.Errorf("snowflake: password or private_key is required")
	}
	if c.Warehouse == "" {
		return fmt.Errorf("snowflake: warehouse is required")
	}
	return nil
}

// Adapter implements the EngineAdapter interface for Snowflake.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	db     *sql.DB
	closed bool
}

// NewAdapter creates a new Snowflake adapter, opening and pinging the
// connection using the gosnowflake driver.
func NewAdapter(ctx context.Context, config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"%s:%s@%s/%s/%s?warehouse=%s",
		config.User,
		config.Password,
		config.Account,
		config.Database,
		config.Schema,
		config.Warehouse,
	)
	if config.Role != "" {
		dsn += fmt.Sprintf("&role=%s", config.Role)
	}
	if config.ConnectTimeout > 0 {
		dsn += fmt.Sprintf("&loginTimeout=%d", int(config.ConnectTimeout.Seconds()))
	}

	adapter := &Adapter{config: config}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("snowflake: failed to open connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("snowflake: connection test failed: %w", err)
	}

	adapter.db = db
	return adapter, nil
}

// NewAdapterWithoutConnect creates a Snowflake adapter without establishing a
// connection. Useful for tests and configuration validation.
func NewAdapterWithoutConnect(config Config) *Adapter {
	return &Adapter{config: config}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "snowflake"
}

// Execute runs sql (already validator-accepted) and returns the raw result.
func (a *Adapter) Execute(ctx context.Context, query string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("snowflake: adapter is closed")
	}
	if a.db == nil {
		return nil, fmt.Errorf("snowflake: connection not available")
	}

	queryCtx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	defer cancel()

	rows, err := a.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("snowflake: query failed: %w", err)
	}
	defer rows.Close()

	return a.collectResults(rows)
}

// collectResults collects query results into a QueryResult.
func (a *Adapter) collectResults(rows *sql.Rows) (*adapters.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("snowflake: failed to get columns: %w", err)
	}

	var resultRows [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("snowflake: failed to scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snowflake: row iteration error: %w", err)
	}

	return &adapters.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{
			"engine":    "snowflake",
			"account":   a.config.Account,
			"warehouse": a.config.Warehouse,
		},
	}, nil
}

// Ping checks if Snowflake is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("snowflake: adapter is closed")
	}
	if a.db == nil {
		return fmt.Errorf("snowflake: driver not available")
	}
	return a.db.PingContext(ctx)
}

// CheckHealth verifies the adapter is healthy.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("snowflake: adapter is closed")
	}
	if a.db == nil {
		return fmt.Errorf("snowflake: connection not available")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("snowflake: health check failed: %w", err)
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
