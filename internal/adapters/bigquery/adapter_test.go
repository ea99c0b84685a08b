package bigquery

import "testing"

func TestBigQueryDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Location != "US" {
		t.Errorf("expected default location US, got %q", cfg.Location)
	}
	if cfg.QueryTimeout <= 0 {
		t.Error("expected a positive default query timeout")
	}
}

func TestBigQueryConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("expected error when project_id is missing")
	}
	if err := (Config{ProjectID: "proj"}).Validate(); err != nil {
		t.Fatalf("expected no error with project_id set, got %v", err)
	}
}
