package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sqlgateway/canonic/internal/errors"
)

// MockRepository is an in-memory implementation of AuditRepository for
// testing. It is thread-safe and respects context cancellation.
type MockRepository struct {
	mu      sync.RWMutex
	entries []AuditEntry

	// Test helper fields for simulating failures.
	connectivityFailure     bool
	persistenceFailure      bool
	connectivityCheckCalled bool
}

// NewMockRepository creates a new mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// checkContext verifies the context is not cancelled or timed out.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Insert records one completed request.
func (r *MockRepository) Insert(ctx context.Context, entry AuditEntry) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.persistenceFailure {
		return errors.NewDatabaseUnavailable(nil)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, entry)
	return nil
}

// Recent returns the most recently inserted entries, newest first.
func (r *MockRepository) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]AuditEntry, len(r.entries))
	copy(ordered, r.entries)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

// SetConnectivityFailure configures the mock to simulate connectivity failures.
func (r *MockRepository) SetConnectivityFailure(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectivityFailure = fail
}

// SetPersistenceFailure configures the mock to simulate persistence failures.
func (r *MockRepository) SetPersistenceFailure(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistenceFailure = fail
}

// CheckConnectivity verifies database connectivity.
func (r *MockRepository) CheckConnectivity(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectivityCheckCalled = true

	if r.connectivityFailure {
		return errors.NewDatabaseUnavailable(nil)
	}
	return nil
}

// ConnectivityCheckCalled returns whether CheckConnectivity was called.
func (r *MockRepository) ConnectivityCheckCalled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connectivityCheckCalled
}

// Verify MockRepository implements AuditRepository interface.
var _ AuditRepository = (*MockRepository)(nil)
