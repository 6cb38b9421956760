package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
)

// AnalysisEngine runs the external statistics/NLP process. The protocol is
// one JSON document on stdin, one JSON document on stdout, exit code 0.
// Anything else (bad exit, malformed output, timeout) is an
// apperror.AnalysisEngine; the engine never partially succeeds.
type AnalysisEngine struct {
	command string
	timeout time.Duration
}

// NewAnalysisEngine creates an engine wrapper around the configured command
// line, e.g. "python3 python_scripts/analyze_evaluations.py".
func NewAnalysisEngine(command string, timeout time.Duration) *AnalysisEngine {
	return &AnalysisEngine{
		command: command,
		timeout: timeout,
	}
}

// EngineInput is the document written to the engine's stdin. Current holds
// the deduplicated evaluations of the requested period, Previous the ones of
// the comparison period (may be empty).
type EngineInput struct {
	Current  []model.Evaluation `json:"current"`
	Previous []model.Evaluation `json:"previous"`
}

// EngineOutput is the document the engine writes to stdout.
type EngineOutput struct {
	AveragesByQuestion         map[string]float64 `json:"averages_by_question"`
	PreviousAveragesByQuestion map[string]float64 `json:"previous_averages_by_question"`
	AnalysisByQuestion         map[string]string  `json:"analysis_by_question"`
	Suggestions                []string           `json:"suggestions"`
	ExecutiveSummary           string             `json:"executive_summary"`
}

// Analyze runs one engine invocation.
func (e *AnalysisEngine) Analyze(ctx context.Context, input EngineInput) (*EngineOutput, error) {
	parts := strings.Fields(e.command)
	if len(parts) == 0 {
		return nil, apperror.AnalysisEngine("Analysis engine command is not configured", nil)
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, apperror.AnalysisEngine("Failed to encode engine input", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperror.AnalysisEngine(
				fmt.Sprintf("Analysis engine timed out after %s", e.timeout), ctx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, apperror.AnalysisEngine(
				fmt.Sprintf("Analysis engine failed: %s", detail), err)
		}
		return nil, apperror.AnalysisEngine("Analysis engine failed", err)
	}

	var output EngineOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, apperror.AnalysisEngine("Analysis engine produced malformed output", err)
	}

	return &output, nil
}
