package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeEngine materializes a shell script standing in for the external
// analysis process.
func writeFakeEngine(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "engine.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestAnalyzeParsesEngineOutput(t *testing.T) {
	path := writeFakeEngine(t, `cat > /dev/null
printf '{"averages_by_question":{"didatica":4.2},"previous_averages_by_question":{"didatica":3.9},"analysis_by_question":{"didatica":"ok"},"suggestions":["melhorar biblioteca"],"executive_summary":"resumo"}'`)

	engine := NewAnalysisEngine(path, 5*time.Second)
	output, err := engine.Analyze(context.Background(), EngineInput{})
	require.NoError(t, err)

	assert.InDelta(t, 4.2, output.AveragesByQuestion["didatica"], 0.001)
	assert.InDelta(t, 3.9, output.PreviousAveragesByQuestion["didatica"], 0.001)
	assert.Equal(t, []string{"melhorar biblioteca"}, output.Suggestions)
	assert.Equal(t, "resumo", output.ExecutiveSummary)
}

func TestAnalyzeNonZeroExitIsEngineFailure(t *testing.T) {
	path := writeFakeEngine(t, `cat > /dev/null
echo "engine exploded" >&2
exit 3`)

	engine := NewAnalysisEngine(path, 5*time.Second)
	_, err := engine.Analyze(context.Background(), EngineInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindAnalysisEngine))
	assert.Contains(t, err.Error(), "engine exploded")
}

func TestAnalyzeMalformedOutputIsEngineFailure(t *testing.T) {
	path := writeFakeEngine(t, `cat > /dev/null
echo "this is not json"`)

	engine := NewAnalysisEngine(path, 5*time.Second)
	_, err := engine.Analyze(context.Background(), EngineInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindAnalysisEngine))
}

func TestAnalyzeTimeout(t *testing.T) {
	path := writeFakeEngine(t, `sleep 5`)

	engine := NewAnalysisEngine(path, 100*time.Millisecond)
	_, err := engine.Analyze(context.Background(), EngineInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindAnalysisEngine))
	assert.Contains(t, err.Error(), "timed out")
}

func TestAnalyzeEmptyCommand(t *testing.T) {
	engine := NewAnalysisEngine("", time.Second)
	_, err := engine.Analyze(context.Background(), EngineInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindAnalysisEngine))
}
