package appmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSink_IsUsableImmediately(t *testing.T) {
	s := NewSink()
	assert.NotPanics(t, func() {
		s.IncCounter(MetricJobsTotal, map[string]string{"status": "completed"})
		s.ObserveHistogram(MetricAnalyzerDurationSec, 1.5, map[string]string{"stage": "stage_a"})
	})
}

func TestSink_RecordAnalyzerTaskDoesNotPanic(t *testing.T) {
	s := NewSink()
	assert.NotPanics(t, func() {
		s.RecordAnalyzerTask("stage_a", "say_means", "completed", 0.5, 10, 20)
	})
}

func TestSink_RecordJobDoesNotPanic(t *testing.T) {
	s := NewSink()
	assert.NotPanics(t, func() {
		s.RecordJob("completed")
	})
}

func TestSink_NilReceiverIsSafe(t *testing.T) {
	var s *Sink
	assert.NotPanics(t, func() {
		s.IncCounter(MetricJobsTotal, nil)
		s.ObserveHistogram(MetricAnalyzerDurationSec, 1, nil)
		s.RecordAnalyzerTask("stage_a", "say_means", "error", 0, 0, 0)
		s.RecordJob("error")
	})
}

func TestToAttrs_EmptyLabelsReturnsNil(t *testing.T) {
	assert.Nil(t, toAttrs(nil))
	assert.Nil(t, toAttrs(map[string]string{}))
}

func TestToAttrs_ConvertsEveryLabel(t *testing.T) {
	attrs := toAttrs(map[string]string{"a": "1"})
	assert.Len(t, attrs, 1)
}
