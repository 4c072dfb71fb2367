// Command transcriptlensd is a thin local CLI over the pipeline: point it
// at a transcript file, run it through Stage A, Stage B, and Final
// analyzers, and print the resulting job plus the aggregated insight
// dashboard. It wires the in-memory job store/event bus/artifact store by
// default, the same cobra root-command/subcommand shape the pack's
// codefang CLI uses, pared down to what a local test harness needs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/intelligencedev/transcriptlens/internal/appmetrics"
	"github.com/intelligencedev/transcriptlens/internal/config"
	"github.com/intelligencedev/transcriptlens/internal/obslog"
	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "transcriptlensd",
		Short: "Run meeting transcripts through the analysis pipeline",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a pipeline config YAML file (defaults apply if omitted)")
	root.AddCommand(newAnalyzeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		transcriptPath string
		stageAFlag     []string
		stageBFlag     []string
		finalFlag      []string
		outDir         string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one transcript through the pipeline and print the aggregated insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}
			obslog.Init(cfg.LogPath, cfg.LogLevel)

			if shutdown, err := appmetrics.Init(cmd.Context(), cfg.OTel); err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			} else if shutdown != nil {
				defer shutdown(context.Background())
			}

			tr, err := loadTranscript(transcriptPath)
			if err != nil {
				return err
			}

			sched := buildScheduler(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			job, err := sched.Submit(ctx, tr, stageAFlag, stageBFlag, finalFlag)
			if err != nil {
				return fmt.Errorf("submit job: %w", err)
			}

			fmt.Printf("job %s finished with status %s (%d errors)\n", job.JobID, job.Status, len(job.Errors))
			for _, msg := range job.Errors {
				fmt.Fprintln(os.Stderr, "  error:", msg)
			}

			// The scheduler already ran aggregation and wrote the insight
			// dashboard into the job's artifact directory during
			// finalization; read it back for display rather than
			// recomputing it from a second Job store read.
			dashboard, err := readDashboardMarkdown(ctx, sched, job.JobID)
			if err != nil {
				return fmt.Errorf("read insight dashboard: %w", err)
			}
			fmt.Println()
			fmt.Println(dashboard)

			if outDir != "" {
				if err := exportDashboard(ctx, sched, job.JobID, outDir); err != nil {
					return fmt.Errorf("export dashboard: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "path to a plain-text transcript file (required)")
	cmd.Flags().StringSliceVar(&stageAFlag, "stage-a", nil, "Stage A analyzer slugs to run (default: all built-ins)")
	cmd.Flags().StringSliceVar(&stageBFlag, "stage-b", nil, "Stage B analyzer slugs to run (default: all built-ins)")
	cmd.Flags().StringSliceVar(&finalFlag, "final", nil, "Final analyzer slugs to run (default: all built-ins)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write insight_dashboard.{json,md,csv} into")
	cmd.MarkFlagRequired("transcript")
	return cmd
}

func loadTranscript(path string) (transcript.Transcript, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("read transcript %s: %w", path, err)
	}
	return transcript.FromPlainText(string(raw)), nil
}

func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{LogLevel: "info"}, nil
	}
	return config.Load(path)
}
