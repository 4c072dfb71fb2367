package obslog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DefaultsToInfoLevelOnUnrecognizedValue(t *testing.T) {
	Init("", "not-a-real-level")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInit_ParsesKnownLevelCaseInsensitively(t *testing.T) {
	Init("", "DEBUG")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInit_NormalizesWarningToWarn(t *testing.T) {
	Init("", "warning")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestInit_WritesToConfiguredLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	Init(path, "info")
	defer Init("", "info")

	zerolog.Ctx(context.Background())
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestWithTrace_NilContextReturnsLoggerWithoutPanicking(t *testing.T) {
	assert.NotPanics(t, func() {
		l := WithTrace(nil)
		assert.NotNil(t, l)
	})
}

func TestWithTrace_NoActiveSpanReturnsBareLogger(t *testing.T) {
	l := WithTrace(context.Background())
	assert.NotNil(t, l)
}

func TestJobLogger_ScopesLoggerToJobID(t *testing.T) {
	l := JobLogger(context.Background(), "job-123")
	assert.NotNil(t, l)
}
