// Package obslog centralizes structured logging setup for the pipeline,
// adapted from the teacher's observability/logging.go: a zerolog global
// logger writing to stdout or an append-mode file, with trace-context
// enrichment for log lines emitted while a span is active.
package obslog

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init configures the global zerolog logger. logPath may be empty, in which
// case logs go to stdout; level is parsed case-insensitively and defaults to
// info on an empty or unrecognized value.
func Init(logPath string, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := os.Stdout
	var out *os.File = w
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		} else {
			fmt.Fprintf(os.Stderr, "obslog: failed to open log file %q: %v\n", logPath, err)
		}
	}

	log.Logger = log.Output(out).With().Timestamp().Logger()

	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			lvl = l
		}
	}
	zerolog.SetGlobalLevel(lvl)

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// WithTrace returns a logger enriched with trace_id/span_id/trace_sampled
// fields when ctx carries an active OpenTelemetry span.
func WithTrace(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if ctx == nil {
		return &l
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With().Str("trace_id", sc.TraceID().String()).Logger()
		if sc.HasSpanID() {
			l = l.With().Str("span_id", sc.SpanID().String()).Logger()
		}
		if sc.IsSampled() {
			l = l.With().Bool("trace_sampled", true).Logger()
		}
	}
	return &l
}

// JobLogger returns a logger scoped to a single job, the way the scheduler
// and analyzer runner tag every line they emit during a run.
func JobLogger(ctx context.Context, jobID string) *zerolog.Logger {
	l := WithTrace(ctx).With().Str("job_id", jobID).Logger()
	return &l
}
