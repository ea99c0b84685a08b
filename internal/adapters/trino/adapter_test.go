package trino

import (
	"context"
	"testing"
)

func TestNewAdapterAppliesDefaults(t *testing.T) {
	a := NewAdapter(AdapterConfig{Host: "coordinator.example.com", Port: 8080})
	if a.config.User != "canonic" {
		t.Errorf("expected default user canonic, got %q", a.config.User)
	}
	if a.config.Catalog != "memory" {
		t.Errorf("expected default catalog memory, got %q", a.config.Catalog)
	}
	if a.config.Schema != "default" {
		t.Errorf("expected default schema default, got %q", a.config.Schema)
	}
	if a.config.MaxOpenConns != 10 {
		t.Errorf("expected default max open conns 10, got %d", a.config.MaxOpenConns)
	}
}

func TestExecuteRejectsEmptyQuery(t *testing.T) {
	a := NewAdapter(AdapterConfig{Host: "coordinator.example.com", Port: 8080})
	if _, err := a.Execute(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestNameIsTrino(t *testing.T) {
	a := NewAdapter(AdapterConfig{Host: "coordinator.example.com"})
	if a.Name() != "trino" {
		t.Errorf("expected name trino, got %q", a.Name())
	}
}
