package artifacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteIntermediateUsesStageSlugExtKey(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store, "job-9")

	require.NoError(t, w.WriteIntermediate(context.Background(), "stage_a", "say_means", "md", []byte("body")))

	_, attrs, err := store.Get(context.Background(), "jobs/job-9/intermediate/stage_a/say_means.md")
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", attrs.ContentType)
}

func TestWriter_WriteIntermediateJSONUsesJSONContentType(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store, "job-9")

	require.NoError(t, w.WriteIntermediate(context.Background(), "stage_a", "say_means", "json", []byte("{}")))

	_, attrs, err := store.Get(context.Background(), "jobs/job-9/intermediate/stage_a/say_means.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", attrs.ContentType)
}

func TestWriter_WriteSummaryChunkZeroPadsIndex(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store, "job-9")

	require.NoError(t, w.WriteSummaryChunk(context.Background(), "stage_b", 3, "chunk text"))

	ok, err := store.Exists(context.Background(), "jobs/job-9/intermediate/summaries/stage_b.chunk_003.md")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriter_WriteFinalUsesFinalSlugKey(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store, "job-9")

	require.NoError(t, w.WriteFinal(context.Background(), "meeting_notes", []byte("# Meeting Notes")))

	ok, err := store.Exists(context.Background(), "jobs/job-9/final/meeting_notes.md")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriter_WriteFinalStatusMarshalsJSON(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store, "job-9")

	status := map[string]any{"job_id": "job-9", "status": "completed"}
	require.NoError(t, w.WriteFinalStatus(context.Background(), status))

	r, attrs, err := store.Get(context.Background(), "jobs/job-9/final_status.json")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "application/json", attrs.ContentType)
}

func TestWriter_WriteCompletedSentinelWritesEmptyMarker(t *testing.T) {
	store := NewMemoryStore()
	w := NewWriter(store, "job-9")

	require.NoError(t, w.WriteCompletedSentinel(context.Background()))

	_, attrs, err := store.Get(context.Background(), "jobs/job-9/COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, int64(0), attrs.Size)
}
