// Package main is the entrypoint for the canonic gateway server. It loads
// configuration, wires the schema catalog, validator limits, the configured
// engine adapter, the agent pipeline, and the orchestrator, then serves the
// HTTP surface until it receives a shutdown signal.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqlgateway/canonic/internal/adapters"
	"github.com/sqlgateway/canonic/internal/adapters/duckdb"
	"github.com/sqlgateway/canonic/internal/adapters/postgres"
	"github.com/sqlgateway/canonic/internal/agent"
	"github.com/sqlgateway/canonic/internal/agent/prompt"
	"github.com/sqlgateway/canonic/internal/catalog"
	"github.com/sqlgateway/canonic/internal/config"
	"github.com/sqlgateway/canonic/internal/executor"
	"github.com/sqlgateway/canonic/internal/gateway"
	"github.com/sqlgateway/canonic/internal/observability"
	"github.com/sqlgateway/canonic/internal/orchestrator"
	canonicsql "github.com/sqlgateway/canonic/internal/sql"
	"github.com/sqlgateway/canonic/internal/status"
	"github.com/sqlgateway/canonic/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver, used for the audit/migration connection
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		showVer    = flag.Bool("version", false, "show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("canonic-gateway %s (commit: %s)\n", version, commit)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat := catalog.NewCatalog()

	registry := adapters.NewAdapterRegistry()
	if err := registerAdapter(ctx, registry, cfg); err != nil {
		return err
	}
	defer registry.CloseAll()

	logger, auditRepo, err := buildAuditTrail(ctx, cfg, registry)
	if err != nil {
		return err
	}

	limits := canonicsql.Limits{
		MaxQueryLength: cfg.MaxQueryLength,
		DefaultLimit:   cfg.DefaultLimit,
		MaxLimit:       cfg.MaxLimit,
	}
	execLimits := executor.Limits{
		Timeout:     cfg.QueryTimeout(),
		MaxRowCount: cfg.MaxResultRows,
	}
	exec := executor.New(registry, cfg.Engine, execLimits)

	client := agent.NewClient(cfg.LLMAPIKey, cfg.LLMModel)
	prompts := agent.NewPromptSet(prompt.NewLoader(cfg.PromptsDir))

	intentAgent := agent.NewIntentAgent(client, prompts)
	sqlAgent := agent.NewSQLAgent(client, prompts, cat.AsPromptText())
	insightAgent := agent.NewInsightAgent(client, prompts)

	orch := orchestrator.New(intentAgent, sqlAgent, insightAgent, cat, limits, exec)

	checker := status.NewFuncChecker(func(ctx context.Context) error {
		a, ok := registry.Get(cfg.Engine)
		if !ok {
			return fmt.Errorf("engine %q not registered", cfg.Engine)
		}
		return a.Ping(ctx)
	}, cat.AllowedTables(), cfg.LLMAPIKey != "")

	gw := gateway.New(orch, cat, checker, logger, auditRepo, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      gw,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		close(done)
	}()

	log.Printf("canonic gateway starting on %s (engine=%s)", server.Addr, cfg.Engine)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	log.Println("gateway stopped")
	return nil
}

// registerAdapter registers exactly one adapter for cfg.Engine. config.Config
// recognizes six engine names, but this deployment's configuration surface is
// a single DATABASE_URL string, which only duckdb (no connection needed at
// all) and postgres (a plain connection string) can be driven by. Redshift
// needs a host/user/password/SSL tuple, and Trino/Snowflake/BigQuery need
// their own structured connection shapes entirely; none of those fit in one
// string, so selecting them fails startup with a clear error instead of
// guessing at a DSN split.
func registerAdapter(ctx context.Context, registry *adapters.AdapterRegistry, cfg *config.Config) error {
	switch cfg.Engine {
	case "duckdb":
		registry.Register(duckdb.NewAdapter())
		return nil

	case "postgres":
		pgConfig := postgres.DefaultConfig()
		pgConfig.ConnectionString = cfg.DatabaseURL
		pgConfig.MaxOpenConns = cfg.DBPoolSize + cfg.DBMaxOverflow
		pgConfig.MaxIdleConns = cfg.DBPoolSize
		a, err := postgres.NewAdapter(ctx, pgConfig)
		if err != nil {
			return fmt.Errorf("failed to connect postgres adapter: %w", err)
		}
		registry.Register(a)
		return nil

	case "redshift", "trino", "snowflake", "bigquery":
		return fmt.Errorf(
			"engine %q requires connection details beyond a single DATABASE_URL string; "+
				"this deployment only wires duckdb and postgres", cfg.Engine)

	default:
		return fmt.Errorf("unrecognized engine %q", cfg.Engine)
	}
}

// buildAuditTrail wires the observability logger and the audit repository
// to Postgres when DatabaseURL is configured. Without one (the default
// duckdb deployment), it seeds the in-memory banking schema and falls back
// to a stdout logger and an in-memory repository.
func buildAuditTrail(ctx context.Context, cfg *config.Config, registry *adapters.AdapterRegistry) (observability.QueryLogger, storage.AuditRepository, error) {
	if cfg.DatabaseURL == "" {
		if a, ok := registry.Get("duckdb"); ok {
			if seeder, ok := a.(interface{ Seed(context.Context) error }); ok {
				if err := seeder.Seed(ctx); err != nil {
					return nil, nil, fmt.Errorf("failed to seed duckdb schema: %w", err)
				}
			}
		}
		return observability.NewJSONLogger(os.Stdout), storage.NewMockRepository(), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("audit database unreachable: %w", err)
	}

	log.Println("running database migrations")
	if err := storage.NewMigrationRunner(db).Run(ctx); err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	logger, err := observability.NewPersistentLogger(db)
	if err != nil {
		return nil, nil, err
	}
	return logger, storage.NewPostgresRepository(db), nil
}
