// Package config provides configuration loading for the canonic gateway
// and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration, with fields named to mirror
// the environment variables in spec §6 directly.
type Config struct {
	DatabaseURL    string   `mapstructure:"database_url"`
	LLMAPIKey      string   `mapstructure:"llm_api_key"`
	LLMModel       string   `mapstructure:"llm_model"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Debug          bool     `mapstructure:"debug"`

	// Engine selects which adapter serves queries: one of duckdb, postgres,
	// trino, snowflake, bigquery, redshift. Single-engine-per-deployment.
	Engine string `mapstructure:"engine"`

	DBPoolSize          int `mapstructure:"db_pool_size"`
	DBMaxOverflow       int `mapstructure:"db_max_overflow"`
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds"`
	MaxResultRows       int `mapstructure:"max_result_rows"`
	MaxQueryLength      int `mapstructure:"max_query_length"`
	MaxRetries          int `mapstructure:"max_retries"`
	DefaultLimit        int `mapstructure:"default_limit"`
	MaxLimit            int `mapstructure:"max_limit"`

	ServerPort int    `mapstructure:"server_port"`
	PromptsDir string `mapstructure:"prompts_dir"`
}

// DefaultConfig returns a configuration with the values spec'd in §6.
func DefaultConfig() *Config {
	return &Config{
		DatabaseURL:         "",
		LLMAPIKey:           "",
		LLMModel:            "claude-sonnet-4-20250514",
		AllowedOrigins:      []string{},
		Debug:               false,
		Engine:              "duckdb",
		DBPoolSize:          5,
		DBMaxOverflow:       10,
		QueryTimeoutSeconds: 30,
		MaxResultRows:       1000,
		MaxQueryLength:      5000,
		MaxRetries:          2,
		DefaultLimit:        100,
		MaxLimit:            1000,
		ServerPort:          8080,
		PromptsDir:          "./prompts",
	}
}

// QueryTimeout returns QueryTimeoutSeconds as a time.Duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// Validate checks fail-fast preconditions: a configured database, an LLM
// key so the agent pipeline can run, and a recognized engine name.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.Engine != "duckdb" {
		return fmt.Errorf("config: database_url is required for engine %q", c.Engine)
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("config: llm_api_key is required")
	}
	switch c.Engine {
	case "duckdb", "postgres", "trino", "snowflake", "bigquery", "redshift":
	default:
		return fmt.Errorf("config: unrecognized engine %q", c.Engine)
	}
	return nil
}

// Load loads configuration from file and environment. configPath may be
// empty, in which case a YAML file named config.yaml is searched for in
// the working directory and $HOME/.canonic.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".canonic"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("llm_api_key", d.LLMAPIKey)
	v.SetDefault("llm_model", d.LLMModel)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("db_pool_size", d.DBPoolSize)
	v.SetDefault("db_max_overflow", d.DBMaxOverflow)
	v.SetDefault("query_timeout_seconds", d.QueryTimeoutSeconds)
	v.SetDefault("max_result_rows", d.MaxResultRows)
	v.SetDefault("max_query_length", d.MaxQueryLength)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("default_limit", d.DefaultLimit)
	v.SetDefault("max_limit", d.MaxLimit)
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("prompts_dir", d.PromptsDir)
}
