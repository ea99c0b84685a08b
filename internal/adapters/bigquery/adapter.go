// Package bigquery provides the Google BigQuery data warehouse adapter.
package bigquery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sqlgateway/canonic/internal/adapters"
)

// Config configures the BigQuery adapter.
type Config struct {
	// ProjectID is the GCP project ID.
	ProjectID string

	// CredentialsJSON is the service account key (optional if using ADC).
	CredentialsJSON string

	// Location is the BigQuery region (e.g., "US", "EU").
	Location string

	// DefaultDataset is the default dataset for unqualified tables.
	DefaultDataset string

	// QueryTimeout for query execution.
	QueryTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Location:     "US",
		QueryTimeout: 5 * time.Minute,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("bigquery: project_id is required")
	}
	return nil
}

// Adapter implements the EngineAdapter interface for BigQuery.
type Adapter struct {
	mu     sync.RWMutex
	config Config
	client *bigquery.Client
	closed bool
}

// NewAdapter creates a new BigQuery adapter using the Google Cloud SDK.
func NewAdapter(ctx context.Context, config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	}
	// If no credentials provided, SDK falls back to Application Default Credentials.

	client, err := bigquery.NewClient(ctx, config.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: failed to create client: %w", err)
	}

	return &Adapter{
		config: config,
		client: client,
	}, nil
}

// NewAdapterWithoutConnect creates a BigQuery adapter without establishing a
// connection. Useful for testing and configuration validation.
func NewAdapterWithoutConnect(config Config) *Adapter {
	return &Adapter{
		config: config,
		client: nil,
		closed: false,
	}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "bigquery"
}

// Execute runs sql (already validator-accepted) against BigQuery.
func (a *Adapter) Execute(ctx context.Context, query string) (*adapters.QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, fmt.Errorf("bigquery: adapter is closed")
	}

	if a.client == nil {
		return nil, fmt.Errorf("bigquery: client not available")
	}

	queryCtx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	defer cancel()

	q := a.client.Query(query)
	if a.config.DefaultDataset != "" {
		q.DefaultDatasetID = a.config.DefaultDataset
	}
	if a.config.Location != "" {
		q.Location = a.config.Location
	}

	it, err := q.Read(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: query failed: %w", err)
	}

	return a.collectResults(it)
}

// collectResults collects BigQuery results into a QueryResult.
func (a *Adapter) collectResults(it *bigquery.RowIterator) (*adapters.QueryResult, error) {
	schema := it.Schema
	columns := make([]string, len(schema))
	for i, field := range schema {
		columns[i] = field.Name
	}

	var resultRows [][]interface{}
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery: failed to read row: %w", err)
		}

		rowData := make([]interface{}, len(row))
		for i, v := range row {
			rowData[i] = v
		}
		resultRows = append(resultRows, rowData)
	}

	return &adapters.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{
			"engine":   "bigquery",
			"project":  a.config.ProjectID,
			"location": a.config.Location,
		},
	}, nil
}

// Ping checks if BigQuery is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("bigquery: adapter is closed")
	}

	if a.client == nil {
		return fmt.Errorf("bigquery: client not available")
	}

	q := a.client.Query("SELECT 1")
	_, err := q.Read(ctx)
	if err != nil {
		return fmt.Errorf("bigquery: ping failed: %w", err)
	}

	return nil
}

// CheckHealth verifies the adapter is healthy.
func (a *Adapter) CheckHealth(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("bigquery: adapter is closed")
	}

	if a.client == nil {
		return fmt.Errorf("bigquery: client not available")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := a.client.Query("SELECT 1")
	it, err := q.Read(healthCtx)
	if err != nil {
		return fmt.Errorf("bigquery: health check failed: %w", err)
	}

	var row []bigquery.Value
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return fmt.Errorf("bigquery: health check read failed: %w", err)
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
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

var _ adapters.EngineAdapter = (*Adapter)(nil)
