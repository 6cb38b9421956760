package services

import (
	"context"
	"testing"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmptyPeriodSkipsEngine(t *testing.T) {
	db := newTestDB(t)

	// A command that would fail loudly proves the engine is never invoked
	engine := NewAnalysisEngine("/nonexistent/engine", time.Second)
	svc := NewAnalysisService(db, engine)

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		From: time.Now().Add(-30 * 24 * time.Hour),
		To:   time.Now(),
	})
	require.NoError(t, err)
	assert.Zero(t, report.TotalEvaluations.Value)
	assert.Nil(t, report.TotalEvaluations.Delta)
	assert.Zero(t, report.AverageMediaFinal.Value)
	assert.Nil(t, report.AverageMediaFinal.Delta)
	assert.Empty(t, report.Trends)
	assert.Len(t, report.ScoreDistribution, 5)
	for bucket := 1; bucket <= 5; bucket++ {
		assert.Zero(t, report.ScoreDistribution[bucket])
	}
}

func TestAnalyzeRejectsInvertedPeriod(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalysisService(db, NewAnalysisEngine("true", time.Second))

	_, err := svc.Analyze(context.Background(), AnalysisRequest{
		From: time.Now(),
		To:   time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
}

func TestAnalyzeDeduplicatesAndBuildsReport(t *testing.T) {
	db := newTestDB(t)

	path := writeFakeEngine(t, `cat > /dev/null
printf '{"averages_by_question":{"didatica":4.0,"biblioteca":2.5},"previous_averages_by_question":{"didatica":3.5},"analysis_by_question":{"didatica":"boa"},"suggestions":["reformar a biblioteca"],"executive_summary":"resumo geral"}'`)
	svc := NewAnalysisService(db, NewAnalysisEngine(path, 5*time.Second))

	userA := createTestUser(t, db, true)
	userB := createTestUser(t, db, true)
	inst := createTestInstitution(t, db, "Universidade")
	course := createTestCourse(t, db, "Computação", inst.ID)

	now := time.Now()
	// userA evaluated twice inside the window; only the newest survives dedup
	createTestEvaluation(t, db, userA.ID, inst.ID, course.ID, 2.0, now.Add(-20*24*time.Hour))
	createTestEvaluation(t, db, userA.ID, inst.ID, course.ID, 4.4, now.Add(-2*24*time.Hour))
	createTestEvaluation(t, db, userB.ID, inst.ID, course.ID, 3.4, now.Add(-5*24*time.Hour))
	// one evaluation in the comparison window gives the scalar metrics a baseline
	createTestEvaluation(t, db, userA.ID, inst.ID, course.ID, 3.0, now.Add(-35*24*time.Hour))

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		InstitutionID: inst.ID,
		From:          now.Add(-30 * 24 * time.Hour),
		To:            now,
	})
	require.NoError(t, err)

	// Scalars count one evaluation per respondent: 2 now against 1 before
	assert.InDelta(t, 2.0, report.TotalEvaluations.Value, 0.001)
	require.NotNil(t, report.TotalEvaluations.Delta)
	assert.InDelta(t, 1.0, *report.TotalEvaluations.Delta, 0.001)

	// (4.4 + 3.4) / 2 = 3.9 now, 3.0 in the comparison window
	assert.InDelta(t, 3.9, report.AverageMediaFinal.Value, 0.001)
	require.NotNil(t, report.AverageMediaFinal.Delta)
	assert.InDelta(t, 0.9, *report.AverageMediaFinal.Delta, 0.001)

	// Distribution uses the deduplicated rows: 4.4 -> 4, 3.4 -> 3
	assert.Equal(t, 1, report.ScoreDistribution[4])
	assert.Equal(t, 1, report.ScoreDistribution[3])
	assert.Equal(t, 0, report.ScoreDistribution[2])

	// didatica has comparison data, biblioteca does not
	didatica, ok := report.Trends["didatica"]
	require.True(t, ok)
	assert.InDelta(t, 4.0, didatica.Value, 0.001)
	require.NotNil(t, didatica.Delta)
	assert.InDelta(t, 0.5, *didatica.Delta, 0.001)

	biblioteca, ok := report.Trends["biblioteca"]
	require.True(t, ok)
	assert.Nil(t, biblioteca.Delta)

	assert.Equal(t, "resumo geral", report.ExecutiveSummary)
	assert.Equal(t, []string{"reformar a biblioteca"}, report.Suggestions)
}

func TestAnalyzeCountsRepeatRespondentOnce(t *testing.T) {
	db := newTestDB(t)

	path := writeFakeEngine(t, `cat > /dev/null
printf '{"averages_by_question":{},"previous_averages_by_question":{},"analysis_by_question":{},"suggestions":[],"executive_summary":""}'`)
	svc := NewAnalysisService(db, NewAnalysisEngine(path, 5*time.Second))

	user := createTestUser(t, db, true)
	inst := createTestInstitution(t, db, "Universidade")
	course := createTestCourse(t, db, "Direito", inst.ID)

	now := time.Now()
	createTestEvaluation(t, db, user.ID, inst.ID, course.ID, 2.0, now.Add(-10*24*time.Hour))
	createTestEvaluation(t, db, user.ID, inst.ID, course.ID, 4.0, now.Add(-1*24*time.Hour))

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		InstitutionID: inst.ID,
		From:          now.Add(-30 * 24 * time.Hour),
		To:            now,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, report.TotalEvaluations.Value, 0.001)
	assert.InDelta(t, 4.0, report.AverageMediaFinal.Value, 0.001)

	// Empty comparison window: no deltas, not zero deltas
	assert.Nil(t, report.TotalEvaluations.Delta)
	assert.Nil(t, report.AverageMediaFinal.Delta)
}

func TestScoreDistributionClampsOutliers(t *testing.T) {
	// media_final 0 means a comment-only submission; it lands in bucket 1
	dist := scoreDistribution([]model.Evaluation{
		{FinalScore: 0},
		{FinalScore: 3.5},
		{FinalScore: 5},
	})
	assert.Equal(t, 1, dist[1])
	assert.Equal(t, 1, dist[4])
	assert.Equal(t, 1, dist[5])
}
