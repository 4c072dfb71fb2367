package appmetrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sink is a thin adapter over OpenTelemetry metrics, the same
// IncCounter/ObserveHistogram shape as the teacher's internal/rag/obs.OtelMetrics,
// generalized to a named-metric cache so any pipeline stage can record
// through it without predeclaring every instrument.
type Sink struct {
	meter      metric.Meter
	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewSink constructs a Sink bound to the global meter provider under the
// "transcriptlens" instrumentation name.
func NewSink() *Sink {
	return &Sink{
		meter:      otel.Meter("transcriptlens"),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (s *Sink) IncCounter(name string, labels map[string]string) {
	if s == nil {
		return
	}
	c, ok := s.getCounter(name)
	if !ok {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(toAttrs(labels)...))
}

func (s *Sink) ObserveHistogram(name string, value float64, labels map[string]string) {
	if s == nil {
		return
	}
	h, ok := s.getHistogram(name)
	if !ok {
		return
	}
	h.Record(context.Background(), value, metric.WithAttributes(toAttrs(labels)...))
}

func (s *Sink) getCounter(name string) (metric.Int64Counter, bool) {
	s.mu.RLock()
	c, ok := s.counters[name]
	s.mu.RUnlock()
	if ok {
		return c, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.counters[name]; ok {
		return c, true
	}
	ctr, err := s.meter.Int64Counter(name)
	if err != nil {
		return ctr, false
	}
	s.counters[name] = ctr
	return ctr, true
}

func (s *Sink) getHistogram(name string) (metric.Float64Histogram, bool) {
	s.mu.RLock()
	h, ok := s.histograms[name]
	s.mu.RUnlock()
	if ok {
		return h, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.histograms[name]; ok {
		return h, true
	}
	hist, err := s.meter.Float64Histogram(name)
	if err != nil {
		return hist, false
	}
	s.histograms[name] = hist
	return hist, true
}

func toAttrs(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		out = append(out, attribute.String(k, v))
	}
	return out
}

// Pipeline-level metric names, recorded by the scheduler and analyzer
// runner: a per-stage task counter, a per-task latency histogram, and a
// token-usage histogram split by prompt/completion.
const (
	MetricAnalyzerTasksTotal  = "transcriptlens.analyzer.tasks_total"
	MetricAnalyzerDurationSec = "transcriptlens.analyzer.duration_seconds"
	MetricTokenUsageTotal     = "transcriptlens.tokens.total"
	MetricJobsTotal           = "transcriptlens.jobs_total"
)

// RecordAnalyzerTask records one terminal analyzer-task outcome.
func (s *Sink) RecordAnalyzerTask(stage, slug, status string, durationSeconds float64, promptTokens, completionTokens int) {
	labels := map[string]string{"stage": stage, "analyzer": slug, "status": status}
	s.IncCounter(MetricAnalyzerTasksTotal, labels)
	s.ObserveHistogram(MetricAnalyzerDurationSec, durationSeconds, labels)
	s.ObserveHistogram(MetricTokenUsageTotal, float64(promptTokens), map[string]string{"stage": stage, "analyzer": slug, "kind": "prompt"})
	s.ObserveHistogram(MetricTokenUsageTotal, float64(completionTokens), map[string]string{"stage": stage, "analyzer": slug, "kind": "completion"})
}

// RecordJob records one terminal job outcome.
func (s *Sink) RecordJob(status string) {
	s.IncCounter(MetricJobsTotal, map[string]string{"status": status})
}
