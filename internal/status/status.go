// Package status reports gateway readiness for the /health endpoint.
package status

import (
	"context"
	"sync"
)

// Result is the shape returned by the /health endpoint: overall status,
// database reachability, the whitelisted tables, and whether the agent
// pipeline has a usable LLM credential.
type Result struct {
	Status   string   `json:"status"`
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
	AIReady  bool     `json:"ai_ready"`
}

// Checker reports gateway readiness.
type Checker interface {
	GetStatus(ctx context.Context) (*Result, error)
}

// PingFunc checks that the configured database is reachable.
type PingFunc func(ctx context.Context) error

// FuncChecker implements Checker from a database ping function, a static
// table list, and whether an LLM API key was configured at startup.
type FuncChecker struct {
	ping    PingFunc
	tables  []string
	aiReady bool
}

// NewFuncChecker creates a new readiness checker.
func NewFuncChecker(ping PingFunc, tables []string, aiReady bool) *FuncChecker {
	return &FuncChecker{ping: ping, tables: tables, aiReady: aiReady}
}

// GetStatus implements Checker.
func (c *FuncChecker) GetStatus(ctx context.Context) (*Result, error) {
	result := &Result{
		Status:   "ok",
		Database: "ok",
		Tables:   c.tables,
		AIReady:  c.aiReady,
	}

	if err := c.ping(ctx); err != nil {
		result.Status = "degraded"
		result.Database = "unreachable"
	}
	if !c.aiReady {
		result.Status = "degraded"
	}

	return result, nil
}

// MockChecker is a test implementation of Checker.
type MockChecker struct {
	mu       sync.RWMutex
	dbReady  bool
	dbMsg    string
	aiReady  bool
	tables   []string
}

// NewMockChecker creates a new mock readiness checker.
func NewMockChecker() *MockChecker {
	return &MockChecker{dbReady: true, dbMsg: "ok", aiReady: true}
}

// SetDatabaseStatus sets the simulated database readiness.
func (m *MockChecker) SetDatabaseStatus(ready bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dbReady = ready
	m.dbMsg = message
}

// SetAIReady sets the simulated LLM-credential readiness.
func (m *MockChecker) SetAIReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aiReady = ready
}

// SetTables sets the simulated whitelisted table list.
func (m *MockChecker) SetTables(tables []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = tables
}

// GetStatus implements Checker.
func (m *MockChecker) GetStatus(ctx context.Context) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := &Result{
		Status:   "ok",
		Database: m.dbMsg,
		Tables:   m.tables,
		AIReady:  m.aiReady,
	}
	if !m.dbReady || !m.aiReady {
		result.Status = "degraded"
	}
	return result, nil
}
