package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Writer scopes every write to a single job, under store keys of the form
// jobs/{job_id}/....
type Writer struct {
	store Store
	jobID string
}

// NewWriter scopes store to jobID.
func NewWriter(store Store, jobID string) *Writer {
	return &Writer{store: store, jobID: jobID}
}

func (w *Writer) key(parts ...string) string {
	return fmt.Sprintf("jobs/%s/%s", w.jobID, strings.Join(parts, "/"))
}

// WriteIntermediate persists a stage analyzer's raw/markdown artifact at
// intermediate/<stage>/<slug>.<ext>.
func (w *Writer) WriteIntermediate(ctx context.Context, stage, slug, ext string, data []byte) error {
	contentType := "text/markdown"
	if ext == "json" {
		contentType = "application/json"
	}
	return w.store.Put(ctx, w.key("intermediate", stage, slug+"."+ext), newReader(data), contentType)
}

// WriteSummaryChunk persists one map-reduce chunk summary artifact.
func (w *Writer) WriteSummaryChunk(ctx context.Context, stage string, index int, text string) error {
	return w.store.Put(ctx, w.key("intermediate", "summaries", fmt.Sprintf("%s.chunk_%03d.md", stage, index)), newReader([]byte(text)), "text/markdown")
}

// WriteFinal persists a Final-stage analyzer's markdown report at
// final/<slug>.md.
func (w *Writer) WriteFinal(ctx context.Context, slug string, markdown []byte) error {
	return w.store.Put(ctx, w.key("final", slug+".md"), newReader(markdown), "text/markdown")
}

// WriteIntermediateText persists a stage-level (not per-analyzer) plain-text
// artifact at intermediate/<name>, e.g. the exact fair-share-combined
// context fed into Stage B.
func (w *Writer) WriteIntermediateText(ctx context.Context, name string, data []byte) error {
	return w.store.Put(ctx, w.key("intermediate", name), newReader(data), "text/plain")
}

// WriteFinalText persists a stage-level plain-text artifact at final/<name>,
// e.g. the exact combined context fed into the Final stage.
func (w *Writer) WriteFinalText(ctx context.Context, name string, data []byte) error {
	return w.store.Put(ctx, w.key("final", name), newReader(data), "text/plain")
}

// WriteDashboard persists the three Insight Dashboard renderings at
// final/insight_dashboard.{json,md,csv}.
func (w *Writer) WriteDashboard(ctx context.Context, jsonBody, markdown, csvBody []byte) error {
	if err := w.store.Put(ctx, w.key("final", "insight_dashboard.json"), newReader(jsonBody), "application/json"); err != nil {
		return fmt.Errorf("artifacts: write insight dashboard json: %w", err)
	}
	if err := w.store.Put(ctx, w.key("final", "insight_dashboard.md"), newReader(markdown), "text/markdown"); err != nil {
		return fmt.Errorf("artifacts: write insight dashboard markdown: %w", err)
	}
	if err := w.store.Put(ctx, w.key("final", "insight_dashboard.csv"), newReader(csvBody), "text/csv"); err != nil {
		return fmt.Errorf("artifacts: write insight dashboard csv: %w", err)
	}
	return nil
}

// JobPrefix returns the artifact-store key prefix every object for this job
// is written under, used as the `output_dir` field in final_status.json.
func (w *Writer) JobPrefix() string {
	return fmt.Sprintf("jobs/%s", w.jobID)
}

// WriteFinalStatus persists the job's machine-readable completion summary at
// final_status.json.
func (w *Writer) WriteFinalStatus(ctx context.Context, status any) error {
	b, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: marshal final status: %w", err)
	}
	return w.store.Put(ctx, w.key("final_status.json"), newReader(b), "application/json")
}

// WriteCompletedSentinel writes the empty COMPLETED marker file a caller can
// poll for cheaply instead of reading final_status.json.
func (w *Writer) WriteCompletedSentinel(ctx context.Context) error {
	return w.store.Put(ctx, w.key("COMPLETED"), newReader(nil), "text/plain")
}

func newReader(b []byte) io.Reader { return bytes.NewReader(b) }
