// Package jobtypes holds the typed value objects shared by the scheduler,
// job store, analyzer runner, and aggregator. Record shapes are ported from
// the Python reference models (Job / AnalyzerRecord / TokenUsage) into plain
// Go structs so callers never touch a bag of map[string]any.
package jobtypes

import "time"

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// AnalyzerStatus is the lifecycle state of a single AnalyzerRecord.
type AnalyzerStatus string

const (
	AnalyzerPending    AnalyzerStatus = "pending"
	AnalyzerProcessing AnalyzerStatus = "processing"
	AnalyzerCompleted  AnalyzerStatus = "completed"
	AnalyzerError      AnalyzerStatus = "error"
)

// stateRank gives the state machine its forward-only ordering; CanAdvance
// rejects any transition that would move a status backwards.
var stateRank = map[AnalyzerStatus]int{
	AnalyzerPending:    0,
	AnalyzerProcessing: 1,
	AnalyzerCompleted:  2,
	AnalyzerError:      2,
}

// CanAdvance reports whether moving from "from" to "to" is a legal,
// non-regressing transition in the AnalyzerRecord state machine.
func CanAdvance(from, to AnalyzerStatus) bool {
	return stateRank[to] >= stateRank[from]
}

// TokenUsage accumulates prompt/completion/total token counts across one or
// more LLM calls.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two TokenUsage values.
func (t TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     t.PromptTokens + o.PromptTokens,
		CompletionTokens: t.CompletionTokens + o.CompletionTokens,
		TotalTokens:      t.TotalTokens + o.TotalTokens,
	}
}

// Insight is a single bullet-level observation surfaced by an analyzer,
// distinct from the aggregator's cross-analyzer InsightItem.
type Insight struct {
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence,omitempty"`
	SourceAnalyzer string  `json:"source_analyzer,omitempty"`
	Category       string  `json:"category,omitempty"`
}

// Concept is a named idea an analyzer identified in its output, with an
// occurrence count used to rank the "top concepts" summary.
type Concept struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	RelatedConcepts  []string `json:"related_concepts,omitempty"`
	Occurrences      int      `json:"occurrences"`
}

// AnalyzerRecord is the per-analyzer result stored on a Job.
type AnalyzerRecord struct {
	Slug               string         `json:"slug"`
	Status             AnalyzerStatus `json:"status"`
	ProcessingTimeSecs float64        `json:"processing_time_seconds"`
	TokenUsage         TokenUsage     `json:"token_usage"`
	RawOutput          string         `json:"raw_output,omitempty"`
	StructuredData     map[string]any `json:"structured_data,omitempty"`
	Insights           []Insight      `json:"insights,omitempty"`
	Concepts           []Concept      `json:"concepts,omitempty"`
	ModelUsed          string         `json:"model_used,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	PromptPath         string         `json:"prompt_path,omitempty"`
}

// ToContextString renders the record the way Stage B / Final prompts expect
// previous-analysis context to look: a heading, the raw output, then a
// trimmed list of insights and concepts.
func (r AnalyzerRecord) ToContextString() string {
	out := "## " + r.Slug + " Analysis\n" + r.RawOutput
	if len(r.Insights) > 0 {
		out += "\n### Key Insights:\n"
		n := len(r.Insights)
		if n > 5 {
			n = 5
		}
		for _, ins := range r.Insights[:n] {
			out += "- " + ins.Text + "\n"
		}
	}
	if len(r.Concepts) > 0 {
		out += "\n### Identified Concepts:\n"
		n := len(r.Concepts)
		if n > 10 {
			n = 10
		}
		names := make([]string, 0, n)
		for _, c := range r.Concepts[:n] {
			names = append(names, c.Name)
		}
		for i, name := range names {
			if i > 0 {
				out += ", "
			}
			out += name
		}
	}
	return out
}

// Job is the top-level unit of work tracked by the pipeline: one transcript
// run through Stage A, Stage B, and Final analyzers.
type Job struct {
	JobID                 string                    `json:"job_id"`
	Status                JobStatus                 `json:"status"`
	StageA                map[string]AnalyzerRecord `json:"stage_a"`
	StageB                map[string]AnalyzerRecord `json:"stage_b"`
	Final                 map[string]AnalyzerRecord `json:"final"`
	TokenUsageTotal        TokenUsage               `json:"token_usage_total"`
	Errors                []string                  `json:"errors,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
	StartedAt             time.Time                 `json:"started_at,omitempty"`
	CompletedAt           time.Time                 `json:"completed_at,omitempty"`
	TotalProcessingTimeMs int64                      `json:"total_processing_time_ms"`
}

// NewJob returns a freshly queued Job with initialized record maps.
func NewJob(jobID string) *Job {
	return &Job{
		JobID:     jobID,
		Status:    JobQueued,
		StageA:    map[string]AnalyzerRecord{},
		StageB:    map[string]AnalyzerRecord{},
		Final:     map[string]AnalyzerRecord{},
		CreatedAt: time.Now(),
	}
}

// Clone returns a deep-enough copy of the Job for safe hand-off across the
// Job Store boundary (callers must not mutate the maps/slices in place).
func (j *Job) Clone() *Job {
	c := *j
	c.StageA = cloneRecords(j.StageA)
	c.StageB = cloneRecords(j.StageB)
	c.Final = cloneRecords(j.Final)
	c.Errors = append([]string(nil), j.Errors...)
	return &c
}

func cloneRecords(m map[string]AnalyzerRecord) map[string]AnalyzerRecord {
	out := make(map[string]AnalyzerRecord, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
