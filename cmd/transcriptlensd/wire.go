package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/intelligencedev/transcriptlens/internal/analyzer"
	"github.com/intelligencedev/transcriptlens/internal/appmetrics"
	"github.com/intelligencedev/transcriptlens/internal/artifacts"
	"github.com/intelligencedev/transcriptlens/internal/config"
	"github.com/intelligencedev/transcriptlens/internal/eventbus"
	"github.com/intelligencedev/transcriptlens/internal/jobstore"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
	"github.com/intelligencedev/transcriptlens/internal/scheduler"
	"github.com/intelligencedev/transcriptlens/internal/tokencount"
)

// buildScheduler wires an in-process Scheduler: an in-memory job store and
// event bus, an LLM Router built from cfg (or the process environment when
// cfg carries no keys), an in-memory artifact store, and the nine built-in
// analyzer specs. This mirrors the "everything in-process, nothing durable"
// mode the teacher's own CLI entrypoints default to before a server command
// wires Redis/S3 in.
func buildScheduler(cfg *config.Config) *scheduler.Scheduler {
	store := jobstore.NewMemoryStore(ttlOrDefault(cfg))
	bus := eventbus.NewLocalBus()
	router := buildRouter(cfg)
	artifactStore := artifacts.NewMemoryStore()

	stageA, stageB, final := analyzer.BuiltinSpecs()

	schedCfg := scheduler.DefaultConfig()
	if cfg.Pipeline.MaxConcurrent > 0 {
		schedCfg.MaxConcurrent = cfg.Pipeline.MaxConcurrent
	}
	if cfg.Pipeline.AnalyzerTimeoutSeconds > 0 {
		schedCfg.AnalyzerTimeout = time.Duration(cfg.Pipeline.AnalyzerTimeoutSeconds) * time.Second
	}
	if cfg.Pipeline.StageBBudgetTokens > 0 {
		schedCfg.StageBBudgetTokens = cfg.Pipeline.StageBBudgetTokens
	}
	if cfg.Pipeline.StageBMinPerAnalyzerTokens > 0 {
		schedCfg.StageBMinPerAnalyzer = cfg.Pipeline.StageBMinPerAnalyzerTokens
	}

	return &scheduler.Scheduler{
		Store:   store,
		Bus:     bus,
		LLM:     router,
		Counter: tokencount.Counter{},
		ArtifactWriterFor: func(jobID string) *artifacts.Writer {
			return artifacts.NewWriter(artifactStore, jobID)
		},
		ArtifactStore: artifactStore,
		Metrics:       appmetrics.NewSink(),
		StageA:        stageA,
		StageB:        stageB,
		Final:         final,
		Config:        schedCfg,
	}
}

func ttlOrDefault(cfg *config.Config) time.Duration {
	if cfg.JobTTLHours > 0 {
		return cfg.JobTTL()
	}
	return jobstore.DefaultTTL
}

// buildRouter assembles an llmcap.Router from cfg, falling back to the
// OPENAI_API_KEY / ANTHROPIC_API_KEY environment variables when cfg carries
// no explicit credentials, the same env-var fallback the teacher's own
// provider constructors apply.
func buildRouter(cfg *config.Config) *llmcap.Router {
	openaiKey := firstNonEmpty(cfg.LLM.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY"))
	anthropicKey := firstNonEmpty(cfg.LLM.Anthropic.APIKey, os.Getenv("ANTHROPIC_API_KEY"))

	var providers []llmcap.Provider
	var def llmcap.Provider

	openai := llmcap.NewOpenAIProvider(openaiKey, cfg.LLM.OpenAI.Endpoint)
	providers = append(providers, openai)
	def = openai

	if anthropicKey != "" {
		claude := llmcap.NewAnthropicProvider(anthropicKey)
		providers = append(providers, claude)
		if cfg.LLM.DefaultProvider == "claude" {
			def = claude
		}
	}

	router := llmcap.NewRouter(def, providers...)
	if cfg.LLM.MaxRetries > 0 {
		router.MaxRetries = cfg.LLM.MaxRetries
	}
	if cfg.LLM.CacheSize > 0 {
		ttl := time.Duration(cfg.LLM.CacheTTLMinutes) * time.Minute
		if ttl <= 0 {
			ttl = time.Hour
		}
		router.Cache = llmcap.NewCache(cfg.LLM.CacheSize, ttl)
	}
	return router
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// readDashboardMarkdown reads back the insight_dashboard.md artifact the
// scheduler already wrote into the job's artifact directory during
// finalization, for printing to stdout. This is a display-only read of the
// artifact store, distinct from the Job store re-read the aggregation
// itself must never perform.
func readDashboardMarkdown(ctx context.Context, sched *scheduler.Scheduler, jobID string) (string, error) {
	r, _, err := sched.ArtifactStore.Get(ctx, dashboardKey(jobID, "insight_dashboard.md"))
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// exportDashboard copies the three insight_dashboard artifacts the
// scheduler already wrote into the job's artifact directory out to a local
// directory, for callers that want a filesystem copy alongside the durable
// artifact store.
func exportDashboard(ctx context.Context, sched *scheduler.Scheduler, jobID, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range []string{"insight_dashboard.json", "insight_dashboard.md", "insight_dashboard.csv"} {
		r, _, err := sched.ArtifactStore.Get(ctx, dashboardKey(jobID, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func dashboardKey(jobID, name string) string {
	return fmt.Sprintf("jobs/%s/final/%s", jobID, name)
}
