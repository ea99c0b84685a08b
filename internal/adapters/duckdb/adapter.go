// Package duckdb provides the DuckDB engine adapter. DuckDB is the default,
// embedded engine: no external database process is required to run the
// gateway.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/sqlgateway/canonic/internal/adapters"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Adapter implements the engine adapter interface for DuckDB.
type Adapter struct {
	mu               sync.RWMutex
	db               *sql.DB
	connectionString string
	closed           bool
}

// AdapterConfig configures the DuckDB adapter.
type AdapterConfig struct {
	// DatabasePath is the path to the DuckDB database file.
	// Use ":memory:" for in-memory database.
	DatabasePath string
}

// NewAdapter creates a new DuckDB adapter with default in-memory configuration.
func NewAdapter() *Adapter {
	return NewAdapterWithConfig(AdapterConfig{DatabasePath: ":memory:"})
}

// NewAdapterWithConfig creates a new DuckDB adapter with the given configuration.
// If the driver fails to open, the adapter is returned in a closed state
// rather than erroring at construction, so the caller can still register it
// and surface a clean health-check failure later.
func NewAdapterWithConfig(config AdapterConfig) *Adapter {
	connStr := config.DatabasePath
	if connStr == "" {
		connStr = ":memory:"
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return &Adapter{
			connectionString: connStr,
			closed:           true,
		}
	}

	return &Adapter{
		db:               db,
		connectionString: connStr,
		closed:           false,
	}
}

// Execute runs sql (already validator-accepted) and returns the raw result.
// Row values are returned as the driver's native Go types; normalization to
// JSON-safe scalars happens one layer up, in the executor package, so every
// adapter's output is normalized identically.
func (a *Adapter) Execute(ctx context.Context, query string) (*adapters.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("duckdb adapter: context error: %w", err)
	}
	if query == "" {
		return nil, fmt.Errorf("duckdb adapter: query is empty")
	}

	a.mu.RLock()
	if a.closed || a.db == nil {
		a.mu.RUnlock()
		return nil, fmt.Errorf("duckdb adapter: connection is closed")
	}
	db := a.db
	a.mu.RUnlock()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duckdb adapter: query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("duckdb adapter: failed to get columns: %w", err)
	}

	resultRows := make([][]interface{}, 0)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("duckdb adapter: context error during row iteration: %w", err)
		}

		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("duckdb adapter: failed to scan row: %w", err)
		}

		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb adapter: error during row iteration: %w", err)
	}

	return &adapters.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{"engine": "duckdb"},
	}, nil
}

// Name returns the engine name.
func (a *Adapter) Name() string {
	return "duckdb"
}

// bankingSchemaDDL creates the fixed three-table banking schema and its
// seed rows. DuckDB has no embedded migration runner of its own since the
// database is ephemeral per process; the schema is created fresh on boot.
const bankingSchemaDDL = `
CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY,
	name VARCHAR NOT NULL,
	email VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER NOT NULL,
	account_number VARCHAR NOT NULL,
	balance DECIMAL(18, 2) NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY,
	account_id INTEGER NOT NULL,
	type VARCHAR NOT NULL,
	amount DECIMAL(18, 2) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT now()
);

INSERT INTO customers (id, name, email)
SELECT * FROM (VALUES
	(1, 'Alice Johnson', 'alice.johnson@example.com'),
	(2, 'Bruno Silva', 'bruno.silva@example.com'),
	(3, 'Chen Wei', 'chen.wei@example.com'),
	(4, 'Diana Okafor', 'diana.okafor@example.com'),
	(5, 'Elena Petrova', 'elena.petrova@example.com')
) AS v
WHERE NOT EXISTS (SELECT 1 FROM customers);

INSERT INTO accounts (id, customer_id, account_number, balance)
SELECT * FROM (VALUES
	(1, 1, 'ACC-1000', 2500.00),
	(2, 1, 'ACC-1001', 150.75),
	(3, 2, 'ACC-1002', 9800.50),
	(4, 3, 'ACC-1003', 0.00),
	(5, 4, 'ACC-1004', 42000.00),
	(6, 5, 'ACC-1005', 675.25)
) AS v
WHERE NOT EXISTS (SELECT 1 FROM accounts);

INSERT INTO transactions (id, account_id, type, amount)
SELECT * FROM (VALUES
	(1, 1, 'credit', 1000.00),
	(2, 1, 'debit', 250.00),
	(3, 2, 'credit', 150.75),
	(4, 3, 'credit', 10000.00),
	(5, 3, 'debit', 199.50),
	(6, 4, 'credit', 100.00),
	(7, 5, 'credit', 42000.00),
	(8, 6, 'credit', 700.00),
	(9, 6, 'debit', 24.75)
) AS v
WHERE NOT EXISTS (SELECT 1 FROM transactions);
`

// Seed creates the banking schema and its seed rows if they do not already
// exist. Safe to call multiple times.
func (a *Adapter) Seed(ctx context.Context) error {
	a.mu.RLock()
	if a.closed || a.db == nil {
		a.mu.RUnlock()
		return fmt.Errorf("duckdb adapter: connection is closed")
	}
	db := a.db
	a.mu.RUnlock()

	_, err := db.ExecContext(ctx, bankingSchemaDDL)
	if err != nil {
		return fmt.Errorf("duckdb adapter: failed to seed banking schema: %w", err)
	}
	return nil
}

// Ping checks if the engine is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed || a.db == nil {
		return fmt.Errorf("duckdb adapter: connection is closed")
	}
	return a.db.PingContext(ctx)
}

// CheckHealth verifies the adapter can serve queries.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	return a.Ping(ctx)
}

// Close releases any resources held by the adapter. Idempotent.
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
