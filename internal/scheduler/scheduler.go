// Package scheduler implements the Pipeline Scheduler: submit a transcript,
// fan out Stage A analyzers, barrier, fan out Stage B analyzers (seeded
// with the fair-share-combined Stage A context), barrier, fan out Final
// analyzers, barrier, then run the insight aggregator synchronously over
// the in-memory stage results. Concurrency within each stage is a bounded
// errgroup fan-out collected into a mutex-guarded result map, the same
// coordinator shape as the teacher's internal/agent/warpp.go RunWARPP,
// generalized from a fixed two-branch parallel section down to an
// arbitrary-width one.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/intelligencedev/transcriptlens/internal/aggregator"
	"github.com/intelligencedev/transcriptlens/internal/analyzer"
	"github.com/intelligencedev/transcriptlens/internal/appmetrics"
	"github.com/intelligencedev/transcriptlens/internal/artifacts"
	"github.com/intelligencedev/transcriptlens/internal/contextasm"
	"github.com/intelligencedev/transcriptlens/internal/eventbus"
	"github.com/intelligencedev/transcriptlens/internal/jobstore"
	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
	"github.com/intelligencedev/transcriptlens/internal/obslog"
	"github.com/intelligencedev/transcriptlens/internal/pipelineerr"
	"github.com/intelligencedev/transcriptlens/internal/tokencount"
	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

// Config bounds concurrency and per-task timeouts, and sets the fair-share
// combiner's token budget/minimum.
type Config struct {
	MaxConcurrent             int
	AnalyzerTimeout           time.Duration
	StageBBudgetTokens        int
	StageBMinPerAnalyzer      int
	IncludeTranscriptInStageB bool
}

// DefaultConfig returns reasonable defaults, matching the magnitudes implied
// by the worked examples in the testable-properties scenarios.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:        4,
		AnalyzerTimeout:      2 * time.Minute,
		StageBBudgetTokens:   4000,
		StageBMinPerAnalyzer: 500,
	}
}

// Scheduler owns every dependency the pipeline needs to run a job end to
// end: a job store, an event bus, an LLM capability, a token counter, an
// artifact writer factory, and the registered analyzer specs per stage.
type Scheduler struct {
	Store             jobstore.Store
	Bus               eventbus.Bus
	LLM               llmcap.Capability
	Counter           tokencount.Counter
	ArtifactWriterFor func(jobID string) *artifacts.Writer
	ArtifactStore     artifacts.Store
	Metrics           *appmetrics.Sink
	StageA            []analyzer.Spec
	StageB            []analyzer.Spec
	Final             []analyzer.Spec
	Config            Config
}

// Submit registers a new Job and runs its pipeline synchronously, returning
// once the job reaches a terminal state. Callers that want async behavior
// run Submit in their own goroutine; the scheduler itself does not spawn
// one, so cancellation via ctx always stops the whole run.
func (s *Scheduler) Submit(ctx context.Context, tr transcript.Transcript, selectedStageA, selectedStageB, selectedFinal []string) (*jobtypes.Job, error) {
	if len(tr.Segments) == 0 {
		return nil, pipelineerr.Input("transcript has no segments", nil)
	}

	jobID := uuid.NewString()
	job := jobtypes.NewJob(jobID)
	if err := s.Store.Create(ctx, job); err != nil {
		return nil, pipelineerr.Store("create job", err)
	}
	writer := s.ArtifactWriterFor(jobID)
	start := time.Now()

	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventJobQueued, Timestamp: time.Now()})

	logger := obslog.JobLogger(ctx, jobID)
	logger.Info().Msg("scheduler: job queued")

	if err := s.Store.Update(ctx, jobID, func(j *jobtypes.Job) error {
		j.Status = jobtypes.JobProcessing
		j.StartedAt = time.Now()
		return nil
	}); err != nil {
		return s.fail(ctx, jobID, writer, start, pipelineerr.Store("mark processing", err))
	}

	stageASpecs := selectSpecs(s.StageA, selectedStageA)
	stageAResults := s.runStage(ctx, jobID, analyzer.StageA, stageASpecs, map[string]any{
		"transcript": tr.TextForAnalysis(),
	}, writer)
	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventStageCompleted, Stage: string(analyzer.StageA), Timestamp: time.Now()})

	combined, _ := contextasm.BuildFairCombinedContext(ctx, s.Counter, stageAResults, s.Config.StageBBudgetTokens, s.Config.StageBMinPerAnalyzer, specOrder(stageASpecs))
	if err := writer.WriteIntermediateText(ctx, "stage_b_context.txt", []byte(combined)); err != nil {
		logger.Warn().Err(err).Msg("scheduler: failed to persist stage_b_context.txt")
	}
	stageBVars := map[string]any{"previous_analyses": combined}
	if s.Config.IncludeTranscriptInStageB {
		stageBVars["transcript"] = tr.TextForAnalysis()
	}

	stageBSpecs := selectSpecs(s.StageB, selectedStageB)
	stageBResults := s.runStage(ctx, jobID, analyzer.StageB, stageBSpecs, stageBVars, writer)
	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventStageCompleted, Stage: string(analyzer.StageB), Timestamp: time.Now()})

	allPrior := map[string]jobtypes.AnalyzerRecord{}
	for k, v := range stageAResults {
		allPrior[k] = v
	}
	for k, v := range stageBResults {
		allPrior[k] = v
	}
	finalContext, _ := contextasm.BuildFairCombinedContext(ctx, s.Counter, allPrior, s.Config.StageBBudgetTokens, s.Config.StageBMinPerAnalyzer, nil)
	if err := writer.WriteFinalText(ctx, "context_combined.txt", []byte(finalContext)); err != nil {
		logger.Warn().Err(err).Msg("scheduler: failed to persist context_combined.txt")
	}

	finalSpecs := selectSpecs(s.Final, selectedFinal)
	finalResults := s.runStage(ctx, jobID, analyzer.StageFinal, finalSpecs, map[string]any{
		"previous_analyses": finalContext,
		"transcript":        tr.TextForAnalysis(),
	}, writer)
	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventStageCompleted, Stage: string(analyzer.StageFinal), Timestamp: time.Now()})

	// Insight Aggregation runs synchronously here, over the in-memory
	// Combined ∪ Final_results this run just produced — never by reading
	// the Job store a second time.
	combinedAll := make(map[string]jobtypes.AnalyzerRecord, len(allPrior)+len(finalResults))
	for k, v := range allPrior {
		combinedAll[k] = v
	}
	for k, v := range finalResults {
		combinedAll[k] = v
	}
	items, counts := aggregator.Aggregate(combinedAll, &tr)
	if err := s.writeInsightDashboard(ctx, writer, items, counts); err != nil {
		logger.Warn().Err(err).Msg("scheduler: failed to persist insight dashboard")
	} else {
		s.Bus.Publish(ctx, eventbus.Event{
			JobID:     jobID,
			Type:      eventbus.EventInsightsUpdated,
			Payload:   map[string]any{"counts": counts, "items": items},
			Timestamp: time.Now(),
		})
	}

	end := time.Now()
	if err := s.Store.Update(ctx, jobID, func(j *jobtypes.Job) error {
		j.Status = jobtypes.JobCompleted
		j.CompletedAt = end
		j.TotalProcessingTimeMs = end.Sub(start).Milliseconds()
		return nil
	}); err != nil {
		return s.fail(ctx, jobID, writer, start, pipelineerr.Store("mark completed", err))
	}

	finished, err := s.Store.Get(ctx, jobID)
	if err != nil {
		return nil, pipelineerr.Store("get completed job", err)
	}

	if err := writer.WriteFinalStatus(ctx, buildFinalStatus(finished, writer.JobPrefix(), start, end)); err != nil {
		logger.Warn().Err(err).Msg("scheduler: failed to persist final_status.json")
	}
	if err := writer.WriteCompletedSentinel(ctx); err != nil {
		logger.Warn().Err(err).Msg("scheduler: failed to persist COMPLETED sentinel")
	}
	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventJobCompleted, Timestamp: time.Now()})
	s.Metrics.RecordJob("completed")

	return finished, nil
}

// fail marks the job errored, writes final_status.json (status: error, with
// a diagnostic message, no COMPLETED sentinel), and emits job.error. This is
// the scheduler's single path for pipeline-level failures (store errors,
// unrecoverable invariant violations) — per-analyzer errors never reach it.
func (s *Scheduler) fail(ctx context.Context, jobID string, writer *artifacts.Writer, start time.Time, cause error) (*jobtypes.Job, error) {
	end := time.Now()
	_ = s.Store.Update(ctx, jobID, func(j *jobtypes.Job) error {
		j.Status = jobtypes.JobError
		j.Errors = append(j.Errors, cause.Error())
		j.CompletedAt = end
		return nil
	})

	job, err := s.Store.Get(ctx, jobID)
	if err == nil && writer != nil {
		if werr := writer.WriteFinalStatus(ctx, buildFinalStatus(job, writer.JobPrefix(), start, end)); werr != nil {
			obslog.JobLogger(ctx, jobID).Warn().Err(werr).Msg("scheduler: failed to persist final_status.json")
		}
	}

	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventJobError, Payload: map[string]any{"error": cause.Error()}, Timestamp: time.Now()})
	s.Metrics.RecordJob("error")
	return job, err
}

// writeInsightDashboard renders and persists the three Insight Dashboard
// formats under final/. A rendering failure here is an AggregatorError: it
// is reported to the caller (who logs it) but never fails the job.
func (s *Scheduler) writeInsightDashboard(ctx context.Context, writer *artifacts.Writer, items []aggregator.InsightItem, counts aggregator.Counts) error {
	asJSON, err := aggregator.ToJSON(items)
	if err != nil {
		return err
	}
	asCSV, err := aggregator.ToCSV(items)
	if err != nil {
		return err
	}
	md := aggregator.ToMarkdown(items, counts)
	return writer.WriteDashboard(ctx, []byte(asJSON), []byte(md), []byte(asCSV))
}

// buildFinalStatus renders the machine-readable completion summary written
// to final_status.json: run_id, status, output_dir, per-stage analyzer
// slugs/token totals, overall tokens, wall clock, timestamps, and (on
// failure) a diagnostic error string.
func buildFinalStatus(job *jobtypes.Job, outputDir string, start, end time.Time) map[string]any {
	payload := map[string]any{
		"run_id":             job.JobID,
		"status":             string(job.Status),
		"output_dir":         outputDir,
		"stage_a":            stageStatusSummary(job.StageA),
		"stage_b":            stageStatusSummary(job.StageB),
		"total_tokens":       job.TokenUsageTotal.TotalTokens,
		"wall_clock_seconds": end.Sub(start).Seconds(),
		"timestamps": map[string]string{
			"start_time": start.UTC().Format(time.RFC3339),
			"end_time":   end.UTC().Format(time.RFC3339),
		},
	}
	if len(job.Errors) > 0 {
		payload["error"] = strings.Join(job.Errors, "; ")
	}
	return payload
}

func stageStatusSummary(records map[string]jobtypes.AnalyzerRecord) map[string]any {
	slugs := make([]string, 0, len(records))
	tokens := 0
	for slug, rec := range records {
		slugs = append(slugs, slug)
		tokens += rec.TokenUsage.TotalTokens
	}
	sort.Strings(slugs)
	return map[string]any{"analyzers": slugs, "tokens": tokens}
}

func stageMap(j *jobtypes.Job, stage analyzer.Stage) map[string]jobtypes.AnalyzerRecord {
	switch stage {
	case analyzer.StageA:
		return j.StageA
	case analyzer.StageB:
		return j.StageB
	default:
		return j.Final
	}
}

func selectSpecs(all []analyzer.Spec, selected []string) []analyzer.Spec {
	if len(selected) == 0 {
		return all
	}
	want := map[string]bool{}
	for _, s := range selected {
		want[s] = true
	}
	var out []analyzer.Spec
	for _, s := range all {
		if want[s.Slug] {
			out = append(out, s)
		}
	}
	return out
}

func specOrder(specs []analyzer.Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Slug
	}
	return out
}

// runStage fans out every spec as a bounded-concurrency task via an
// errgroup.Group (the same fan-out idiom as the teacher's
// internal/agent/warpp.go RunWARPP, generalized from a fixed two-branch
// parallel section to an arbitrary-width one with SetLimit) and collects
// every result into a mutex-guarded map. A failed or panicking analyzer
// still yields a terminal AnalyzerRecord via runTask, so g.Go never itself
// returns an error and this stage can never fail as a barrier.
func (s *Scheduler) runStage(ctx context.Context, jobID string, stage analyzer.Stage, specs []analyzer.Spec, vars map[string]any, writer *artifacts.Writer) map[string]jobtypes.AnalyzerRecord {
	results := make(map[string]jobtypes.AnalyzerRecord, len(specs))
	if len(specs) == 0 {
		return results
	}

	limit := s.Config.MaxConcurrent
	if limit <= 0 {
		limit = len(specs)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			rec := s.runTask(gctx, jobID, stage, spec, vars, writer)
			mu.Lock()
			results[spec.Slug] = rec
			mu.Unlock()
			return nil // a failed analyzer yields a terminal error record, never a group error
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scheduler) runTask(ctx context.Context, jobID string, stage analyzer.Stage, spec analyzer.Spec, vars map[string]any, writer *artifacts.Writer) jobtypes.AnalyzerRecord {
	logger := obslog.JobLogger(ctx, jobID)

	if err := s.Store.Update(ctx, jobID, func(j *jobtypes.Job) error {
		stageMap(j, stage)[spec.Slug] = jobtypes.AnalyzerRecord{Slug: spec.Slug, Status: jobtypes.AnalyzerProcessing}
		return nil
	}); err != nil {
		logger.Warn().Err(err).Str("analyzer", spec.Slug).Msg("scheduler: failed to record pending->processing transition")
	}

	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventbus.EventAnalyzerStarted, Analyzer: spec.Slug, Stage: string(stage), Timestamp: time.Now()})

	taskCtx := ctx
	var cancel context.CancelFunc
	if s.Config.AnalyzerTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, s.Config.AnalyzerTimeout)
		defer cancel()
	}

	rec := runWithRecover(taskCtx, s.LLM, analyzer.Task{Spec: spec, Variables: vars})

	if writer != nil {
		if stage == analyzer.StageFinal {
			_ = writer.WriteFinal(ctx, spec.Slug, []byte(rec.RawOutput))
		} else if len(rec.StructuredData) > 0 {
			if data, err := json.MarshalIndent(rec.StructuredData, "", "  "); err == nil {
				_ = writer.WriteIntermediate(ctx, string(stage), spec.Slug, "json", data)
			}
		} else {
			_ = writer.WriteIntermediate(ctx, string(stage), spec.Slug, "md", []byte(rec.RawOutput))
		}
	}

	if err := s.Store.Update(ctx, jobID, func(j *jobtypes.Job) error {
		stageMap(j, stage)[spec.Slug] = rec
		j.TokenUsageTotal = j.TokenUsageTotal.Add(rec.TokenUsage)
		return nil
	}); err != nil {
		logger.Warn().Err(err).Str("analyzer", spec.Slug).Msg("scheduler: failed to persist analyzer record")
	}

	eventType := eventbus.EventAnalyzerComplete
	status := "completed"
	if rec.Status == jobtypes.AnalyzerError {
		eventType = eventbus.EventAnalyzerError
		status = "error"
		logger.Warn().Str("analyzer", spec.Slug).Str("error", rec.ErrorMessage).Msg("scheduler: analyzer task failed")
	}
	s.Metrics.RecordAnalyzerTask(string(stage), spec.Slug, status, rec.ProcessingTimeSecs, rec.TokenUsage.PromptTokens, rec.TokenUsage.CompletionTokens)
	s.Bus.Publish(ctx, eventbus.Event{JobID: jobID, Type: eventType, Analyzer: spec.Slug, Stage: string(stage), Timestamp: time.Now()})
	return rec
}

// runWithRecover converts a panicking analyzer task into a terminal error
// record instead of taking down the whole stage, mirroring the teacher's
// warpp runner's per-step panic recovery.
func runWithRecover(ctx context.Context, llm llmcap.Capability, task analyzer.Task) (rec jobtypes.AnalyzerRecord) {
	defer func() {
		if p := recover(); p != nil {
			rec = jobtypes.AnalyzerRecord{
				Slug:         task.Spec.Slug,
				Status:       jobtypes.AnalyzerError,
				ErrorMessage: fmt.Sprintf("panic: %v", p),
			}
		}
	}()
	return analyzer.Run(ctx, llm, task)
}
