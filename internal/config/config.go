// Package config loads the pipeline's YAML configuration, following the
// teacher's internal/config/config.go pattern: unmarshal into a plain
// struct, then fill in defaults for anything unset, printing a pterm
// warning/info notice for each one so an operator sees what changed.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds one LLM provider's credentials/endpoint.
type ProviderConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// LLMConfig configures the multi-provider router.
type LLMConfig struct {
	DefaultProvider string         `yaml:"default_provider"`
	OpenAI          ProviderConfig `yaml:"openai"`
	Anthropic       ProviderConfig `yaml:"anthropic"`
	MaxRetries      int            `yaml:"max_retries"`
	CacheSize       int            `yaml:"cache_size"`
	CacheTTLMinutes int            `yaml:"cache_ttl_minutes"`
}

// RedisConfig configures both the job store and event bus Redis backends.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// ArtifactsConfig selects and configures the artifact store backend.
type ArtifactsConfig struct {
	Backend   string `yaml:"backend"` // "memory" or "s3"
	S3Bucket  string `yaml:"s3_bucket,omitempty"`
	S3Prefix  string `yaml:"s3_prefix,omitempty"`
	S3Region  string `yaml:"s3_region,omitempty"`
	S3Endpoint string `yaml:"s3_endpoint,omitempty"`
}

// PipelineConfig bounds the scheduler's concurrency, per-task timeout, and
// Stage B/Final context-assembly token budget.
type PipelineConfig struct {
	MaxConcurrent             int `yaml:"max_concurrent"`
	AnalyzerTimeoutSeconds     int `yaml:"analyzer_timeout_seconds"`
	StageBBudgetTokens         int `yaml:"stage_b_budget_tokens"`
	StageBMinPerAnalyzerTokens int `yaml:"stage_b_min_per_analyzer_tokens"`
}

// TelemetryConfig controls OpenTelemetry metrics export, mirroring the
// teacher's OTel config shape.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Config is the top-level pipeline configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	LogPath   string          `yaml:"log_path,omitempty"`
	JobTTLHours int           `yaml:"job_ttl_hours"`
	LLM       LLMConfig       `yaml:"llm"`
	Redis     RedisConfig     `yaml:"redis"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	OTel      TelemetryConfig `yaml:"otel"`
}

// JobTTL returns the configured job TTL as a time.Duration.
func (c *Config) JobTTL() time.Duration {
	return time.Duration(c.JobTTLHours) * time.Hour
}

// AnalyzerTimeout returns the configured per-analyzer timeout.
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.Pipeline.AnalyzerTimeoutSeconds) * time.Second
}

// Load reads filename, unmarshals it as YAML, and fills in defaults for any
// zero-valued field, printing a pterm notice for each default applied.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		pterm.Error.Printf("Error reading config file: %v\n", err)
		return nil, fmt.Errorf("config: read %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		pterm.Error.Printf("Error unmarshaling config: %v\n", err)
		return nil, fmt.Errorf("config: unmarshal %s: %w", filename, err)
	}

	applyDefaults(&cfg)

	pterm.Success.Println("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		pterm.Info.Println("No log_level specified, using default (info).")
	}
	if cfg.JobTTLHours <= 0 {
		cfg.JobTTLHours = 24
		pterm.Info.Println("No job_ttl_hours specified, using default (24).")
	}
	if cfg.LLM.DefaultProvider == "" {
		cfg.LLM.DefaultProvider = "gpt"
		pterm.Info.Println("No llm.default_provider specified, using default (gpt).")
	}
	if cfg.LLM.MaxRetries <= 0 {
		cfg.LLM.MaxRetries = 3
		pterm.Info.Println("No llm.max_retries specified, using default (3).")
	}
	if cfg.LLM.CacheSize <= 0 {
		cfg.LLM.CacheSize = 512
		pterm.Info.Println("No llm.cache_size specified, using default (512).")
	}
	if cfg.LLM.CacheTTLMinutes <= 0 {
		cfg.LLM.CacheTTLMinutes = 60
		pterm.Info.Println("No llm.cache_ttl_minutes specified, using default (60).")
	}
	if cfg.Artifacts.Backend == "" {
		cfg.Artifacts.Backend = "memory"
		pterm.Warning.Println("No artifacts.backend specified, defaulting to in-memory storage (not durable).")
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		cfg.Pipeline.MaxConcurrent = 4
		pterm.Info.Println("No pipeline.max_concurrent specified, using default (4).")
	}
	if cfg.Pipeline.AnalyzerTimeoutSeconds <= 0 {
		cfg.Pipeline.AnalyzerTimeoutSeconds = 120
		pterm.Info.Println("No pipeline.analyzer_timeout_seconds specified, using default (120).")
	}
	if cfg.Pipeline.StageBBudgetTokens <= 0 {
		cfg.Pipeline.StageBBudgetTokens = 4000
		pterm.Info.Println("No pipeline.stage_b_budget_tokens specified, using default (4000).")
	}
	if cfg.Pipeline.StageBMinPerAnalyzerTokens <= 0 {
		cfg.Pipeline.StageBMinPerAnalyzerTokens = 500
		pterm.Info.Println("No pipeline.stage_b_min_per_analyzer_tokens specified, using default (500).")
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "transcriptlens"
		pterm.Info.Println("No otel.service_name specified, using default (transcriptlens).")
	}
	if !cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		pterm.Info.Println("Redis not configured; job store and event bus will run in-memory only.")
	}
}
