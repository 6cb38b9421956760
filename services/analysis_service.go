package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"gorm.io/gorm"
)

// AnalysisService aggregates evaluations into an admin-facing report. It
// deduplicates to the latest submission per respondent, delegates the
// statistics/NLP pass to the external engine, and computes the score
// distribution and trend deltas locally so the report never depends on the
// engine for them.
type AnalysisService struct {
	db     *gorm.DB
	engine *AnalysisEngine
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(db *gorm.DB, engine *AnalysisEngine) *AnalysisService {
	return &AnalysisService{
		db:     db,
		engine: engine,
	}
}

// AnalysisRequest scopes a report. From/To bound the current period; the
// comparison period is the equally sized window immediately before From.
type AnalysisRequest struct {
	InstitutionID uint
	CourseID      uint
	From          time.Time
	To            time.Time
}

// TrendValue is a metric value plus its movement against the comparison
// period. Delta is nil when the comparison period had no data for the metric,
// which is distinct from a delta of zero.
type TrendValue struct {
	Value float64  `json:"value"`
	Delta *float64 `json:"delta,omitempty"`
}

// AnalysisReport is the merged output of the engine pass and the local
// aggregation. All scalar metrics count the deduplicated set: one evaluation
// per respondent per period.
type AnalysisReport struct {
	PeriodStart        time.Time             `json:"period_start"`
	PeriodEnd          time.Time             `json:"period_end"`
	TotalEvaluations   TrendValue            `json:"total_evaluations"`
	AverageMediaFinal  TrendValue            `json:"average_media_final"`
	ScoreDistribution  map[int]int           `json:"score_distribution"`
	Trends             map[string]TrendValue `json:"trends"`
	AnalysisByQuestion map[string]string     `json:"analysis_by_question,omitempty"`
	Suggestions        []string              `json:"suggestions,omitempty"`
	ExecutiveSummary   string                `json:"executive_summary,omitempty"`
}

// Analyze builds the report for one request.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisReport, error) {
	if req.To.Before(req.From) {
		return nil, apperror.Validation("Analysis period end must not precede its start")
	}

	current, err := s.fetchPeriod(ctx, req, req.From, req.To)
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{
		PeriodStart:       req.From,
		PeriodEnd:         req.To,
		ScoreDistribution: emptyDistribution(),
		Trends:            make(map[string]TrendValue),
	}

	// Nothing to analyze: report the empty shape without invoking the engine
	if len(current) == 0 {
		return report, nil
	}

	current = latestPerRespondent(current)

	window := req.To.Sub(req.From)
	previous, err := s.fetchPeriod(ctx, req, req.From.Add(-window), req.From)
	if err != nil {
		return nil, err
	}
	previous = latestPerRespondent(previous)

	report.TotalEvaluations = TrendValue{Value: float64(len(current))}
	report.AverageMediaFinal = TrendValue{Value: meanFinalScore(current)}
	if len(previous) > 0 {
		totalDelta := float64(len(current) - len(previous))
		report.TotalEvaluations.Delta = &totalDelta
		averageDelta := report.AverageMediaFinal.Value - meanFinalScore(previous)
		report.AverageMediaFinal.Delta = &averageDelta
	}

	output, err := s.engine.Analyze(ctx, EngineInput{
		Current:  current,
		Previous: previous,
	})
	if err != nil {
		return nil, err
	}

	report.ScoreDistribution = scoreDistribution(current)
	report.Trends = buildTrends(output.AveragesByQuestion, output.PreviousAveragesByQuestion)
	report.AnalysisByQuestion = output.AnalysisByQuestion
	report.Suggestions = output.Suggestions
	report.ExecutiveSummary = output.ExecutiveSummary

	return report, nil
}

func (s *AnalysisService) fetchPeriod(ctx context.Context, req AnalysisRequest, from, to time.Time) ([]model.Evaluation, error) {
	query := s.db.WithContext(ctx).
		Where("criado_em >= ? AND criado_em < ?", from, to)
	if req.InstitutionID != 0 {
		query = query.Where("instituicao_id = ?", req.InstitutionID)
	}
	if req.CourseID != 0 {
		query = query.Where("curso_id = ?", req.CourseID)
	}

	var evaluations []model.Evaluation
	if err := query.Order("criado_em DESC").Find(&evaluations).Error; err != nil {
		return nil, fmt.Errorf("failed to load evaluations for analysis: %w", err)
	}
	return evaluations, nil
}

// latestPerRespondent keeps only each user's newest evaluation. Input must be
// ordered newest first.
func latestPerRespondent(evaluations []model.Evaluation) []model.Evaluation {
	seen := make(map[uint]bool, len(evaluations))
	result := make([]model.Evaluation, 0, len(evaluations))
	for _, e := range evaluations {
		if seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		result = append(result, e)
	}
	return result
}

func meanFinalScore(evaluations []model.Evaluation) float64 {
	if len(evaluations) == 0 {
		return 0
	}
	var sum float64
	for _, e := range evaluations {
		sum += e.FinalScore
	}
	return sum / float64(len(evaluations))
}

func emptyDistribution() map[int]int {
	dist := make(map[int]int, 5)
	for i := 1; i <= 5; i++ {
		dist[i] = 0
	}
	return dist
}

// scoreDistribution buckets media_final into the 1..5 histogram by rounding
// half away from zero. Scores outside the range are clamped.
func scoreDistribution(evaluations []model.Evaluation) map[int]int {
	dist := emptyDistribution()
	for _, e := range evaluations {
		bucket := int(math.Round(e.FinalScore))
		if bucket < 1 {
			bucket = 1
		}
		if bucket > 5 {
			bucket = 5
		}
		dist[bucket]++
	}
	return dist
}

// buildTrends pairs each current per-question average with its delta against
// the comparison period. Questions without comparison data get a nil delta.
func buildTrends(current, previous map[string]float64) map[string]TrendValue {
	trends := make(map[string]TrendValue, len(current))
	for key, value := range current {
		trend := TrendValue{Value: value}
		if prev, ok := previous[key]; ok {
			delta := value - prev
			trend.Delta = &delta
		}
		trends[key] = trend
	}
	return trends
}
