package postgres

import "testing"

func TestPostgresDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxOpenConns != 10 {
		t.Errorf("expected default max open conns 10, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 5 {
		t.Errorf("expected default max idle conns 5, got %d", cfg.MaxIdleConns)
	}
}

func TestPostgresConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("expected error when connection string is missing")
	}
	cfg := DefaultConfig()
	cfg.ConnectionString = "host=localhost port=5432 dbname=canonic user=canonic password=x sslmode=disable"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error with connection string set, got %v", err)
	}
}
