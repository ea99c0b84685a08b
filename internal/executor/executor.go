// Package executor runs validator-accepted SQL against a configured engine
// adapter, enforcing the wall-clock timeout and row cap, and normalizing
// every adapter's raw driver values into JSON-safe scalars so callers never
// see engine-specific types.
package executor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sqlgateway/canonic/internal/adapters"
	canonicerrors "github.com/sqlgateway/canonic/internal/errors"
)

// Limits bounds execution: how long a query may run and how many rows may
// come back to the caller.
type Limits struct {
	Timeout     time.Duration
	MaxRowCount int
}

// DefaultLimits returns the configuration-section defaults: a 30 second
// timeout and a 1000 row cap.
func DefaultLimits() Limits {
	return Limits{Timeout: 30 * time.Second, MaxRowCount: 1000}
}

// Result is the JSON-safe outcome of a query execution. Data is an ordered
// sequence of column-name to value mappings, per row, matching the
// execution_result.data shape of the response envelope.
type Result struct {
	Data      []map[string]interface{} `json:"data"`
	RowCount  int                      `json:"row_count"`
	ElapsedMs float64                  `json:"elapsed_ms"`
	Engine    string                   `json:"engine"`
	Truncated bool                     `json:"truncated"`
}

// Executor runs SQL against one named engine adapter.
type Executor struct {
	registry *adapters.AdapterRegistry
	engine   string
	limits   Limits
}

// New constructs an Executor bound to the adapter registered under engine.
func New(registry *adapters.AdapterRegistry, engine string, limits Limits) *Executor {
	return &Executor{registry: registry, engine: engine, limits: limits}
}

// Run executes sql against the configured engine. elapsed_ms is measured
// around the fetch only, not around connection setup. Driver errors are
// wrapped into ErrExecutionFailed; a context deadline is reported as
// ErrExecutionTimeout. Credentials never appear in the returned error.
func (e *Executor) Run(ctx context.Context, sql string) (*Result, error) {
	adapter, ok := e.registry.Get(e.engine)
	if !ok {
		return nil, canonicerrors.NewEngineUnavailable(e.engine, nil)
	}

	timeout := e.limits.Timeout
	if timeout <= 0 {
		timeout = DefaultLimits().Timeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := adapter.Execute(runCtx, sql)
	elapsed := time.Since(start)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, canonicerrors.NewExecutionTimeout(int(timeout.Seconds()))
		}
		return nil, canonicerrors.NewExecutionFailed(e.engine, redactCause(err))
	}

	maxRows := e.limits.MaxRowCount
	if maxRows <= 0 {
		maxRows = DefaultLimits().MaxRowCount
	}

	data := make([]map[string]interface{}, 0, len(raw.Rows))
	truncated := false
	for i, row := range raw.Rows {
		if i >= maxRows {
			truncated = true
			break
		}
		data = append(data, rowToMap(raw.Columns, normalizeRow(row)))
	}

	return &Result{
		Data:      data,
		RowCount:  len(data),
		ElapsedMs: float64(elapsed.Microseconds()) / 1000.0,
		Engine:    e.engine,
		Truncated: truncated,
	}, nil
}

// rowToMap zips columns with a normalized row's values into the
// column-name-to-value mapping the response envelope expects.
func rowToMap(columns []string, row []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if i < len(row) {
			m[col] = row[i]
		} else {
			m[col] = nil
		}
	}
	return m
}

var (
	// credentialURLRe matches a `scheme://user:pass@` DSN prefix.
	credentialURLRe = regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://)[^\s/:@]+:[^\s/@]+@`)

	// credentialParamRe matches a `key=value` connection-string fragment
	// whose key names a credential.
	credentialParamRe = regexp.MustCompile(`(?i)\b(password|pwd|passwd|secret|token|apikey|api_key)\s*=\s*\S+`)
)

// redactCause strips anything that looks like a DSN or connection string
// from a driver error so credentials never leak into a user-facing message,
// while preserving the rest of the driver's message for diagnosis. Driver
// errors are wrapped as opaque text; the original, unredacted error is not
// returned or logged.
func redactCause(err error) error {
	msg := err.Error()
	msg = credentialURLRe.ReplaceAllString(msg, "$1***:***@")
	msg = credentialParamRe.ReplaceAllStringFunc(msg, func(m string) string {
		eq := strings.IndexByte(m, '=')
		return m[:eq+1] + "***"
	})
	return &opaqueError{msg: msg}
}

type opaqueError struct{ msg string }

func (e *opaqueError) Error() string { return e.msg }
