package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"gorm.io/gorm"
)

const (
	scoreKeyPrefix   = "nota_"
	commentKeyPrefix = "comentario_"

	minScore = 1.0
	maxScore = 5.0
)

// EvaluationService ingests evaluation submissions. A submission passes the
// account gate and the cooldown gate, has its answer keys normalized to the
// canonical categories, and is committed as one Avaliacoes row; the
// per-question breakdown rows are written afterwards, best effort.
type EvaluationService struct {
	db           *gorm.DB
	resolver     *EntityResolverService
	cooldownDays int
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(db *gorm.DB, resolver *EntityResolverService, cooldownDays int) *EvaluationService {
	return &EvaluationService{
		db:           db,
		resolver:     resolver,
		cooldownDays: cooldownDays,
	}
}

// SubmitEvaluationRequest is the inbound submission payload. Institution and
// course arrive as free text and are resolved (or created) before the
// evaluation is stored. Answers is the raw key/value form body: canonical
// nota_*/comentario_* keys plus the numeric question ids of older clients.
type SubmitEvaluationRequest struct {
	InstitutionName string                 `json:"instituicao" validate:"required"`
	City            string                 `json:"cidade"`
	State           string                 `json:"estado"`
	CourseName      string                 `json:"curso" validate:"required"`
	Answers         map[string]interface{} `json:"respostas" validate:"required"`
}

// SubmitEvaluationResult reports what the ingest pipeline did with a submission
type SubmitEvaluationResult struct {
	EvaluationID  uint     `json:"evaluation_id"`
	InstitutionID uint     `json:"instituicao_id"`
	CourseID      uint     `json:"curso_id"`
	FinalScore    float64  `json:"media_final"`
	DroppedKeys   []string `json:"dropped_keys,omitempty"`
}

// EvaluationStatus answers "can this user evaluate right now, and if not,
// when". DaysRemaining is zero when CanEvaluate is true.
type EvaluationStatus struct {
	CanEvaluate      bool       `json:"can_evaluate"`
	DaysRemaining    int        `json:"days_remaining"`
	LastEvaluationAt *time.Time `json:"last_evaluation_at,omitempty"`
	NextEligibleAt   *time.Time `json:"next_eligible_at,omitempty"`
}

// Submit runs the full ingest pipeline for one submission.
func (s *EvaluationService) Submit(ctx context.Context, user *model.User, req SubmitEvaluationRequest) (*SubmitEvaluationResult, error) {
	if !user.IsActive {
		return nil, apperror.AccountLocked("Account is locked and cannot submit evaluations")
	}

	status, err := s.GetStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !status.CanEvaluate {
		return nil, apperror.CooldownActive(
			fmt.Sprintf("You already evaluated recently. Try again in %d day(s)", status.DaysRemaining),
			status.DaysRemaining,
		)
	}

	institutionID, err := s.resolver.ResolveOrCreateInstitution(ctx, ResolveInstitutionRequest{
		Name:        req.InstitutionName,
		City:        req.City,
		State:       req.State,
		TriggeredBy: user.AnonymizedID,
	})
	if err != nil {
		return nil, err
	}

	courseID, err := s.resolver.ResolveOrCreateCourse(ctx, ResolveCourseRequest{
		Name:          req.CourseName,
		InstitutionID: institutionID,
		TriggeredBy:   user.AnonymizedID,
	})
	if err != nil {
		return nil, err
	}

	evaluation := model.Evaluation{
		UserID:        user.ID,
		InstitutionID: institutionID,
		CourseID:      courseID,
	}

	dropped, err := applyAnswers(&evaluation, req.Answers)
	if err != nil {
		return nil, err
	}

	scores := evaluation.Scores()
	if len(scores) == 0 && len(evaluation.Comments()) == 0 {
		return nil, apperror.Validation("Submission contains no recognizable answers")
	}
	evaluation.FinalScore = meanScore(scores)

	if err := s.db.WithContext(ctx).Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("failed to store evaluation: %w", err)
	}

	// The evaluation row is already committed; losing the breakdown rows
	// degrades per-question drill-down but never the submission itself.
	s.persistAnswers(ctx, &evaluation)

	if len(dropped) > 0 {
		log.Printf("evaluation %d: dropped %d unrecognized answer key(s): %s",
			evaluation.ID, len(dropped), strings.Join(dropped, ", "))
	}

	return &SubmitEvaluationResult{
		EvaluationID:  evaluation.ID,
		InstitutionID: institutionID,
		CourseID:      courseID,
		FinalScore:    evaluation.FinalScore,
		DroppedKeys:   dropped,
	}, nil
}

// GetStatus reports the cooldown state for a user.
func (s *EvaluationService) GetStatus(ctx context.Context, userID uint) (*EvaluationStatus, error) {
	var last model.Evaluation
	err := s.db.WithContext(ctx).
		Where("usuario_id = ?", userID).
		Order("criado_em DESC").
		First(&last).Error
	if err == gorm.ErrRecordNotFound {
		return &EvaluationStatus{CanEvaluate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last evaluation: %w", err)
	}

	window := time.Duration(s.cooldownDays) * 24 * time.Hour
	nextEligible := last.CreatedAt.Add(window)
	now := time.Now()

	status := &EvaluationStatus{
		LastEvaluationAt: &last.CreatedAt,
		NextEligibleAt:   &nextEligible,
	}
	if !now.Before(nextEligible) {
		status.CanEvaluate = true
		return status, nil
	}

	status.DaysRemaining = int(math.Ceil(nextEligible.Sub(now).Hours() / 24))
	if status.DaysRemaining < 1 {
		status.DaysRemaining = 1
	}
	return status, nil
}

// GetDetails loads one evaluation with its per-question rows. Non-admin
// callers may only read their own submissions.
func (s *EvaluationService) GetDetails(ctx context.Context, requester *model.User, evaluationID uint) (*model.Evaluation, []model.EvaluationAnswer, error) {
	var evaluation model.Evaluation
	if err := s.db.WithContext(ctx).First(&evaluation, evaluationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, apperror.NotFound("Evaluation not found")
		}
		return nil, nil, err
	}

	if evaluation.UserID != requester.ID && !requester.IsAdmin() {
		return nil, nil, apperror.NotFound("Evaluation not found")
	}

	var answers []model.EvaluationAnswer
	if err := s.db.WithContext(ctx).
		Where("avaliacao_id = ?", evaluationID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, nil, err
	}

	return &evaluation, answers, nil
}

// ListByUser returns a user's submissions, newest first.
func (s *EvaluationService) ListByUser(ctx context.Context, userID uint) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	err := s.db.WithContext(ctx).
		Where("usuario_id = ?", userID).
		Order("criado_em DESC").
		Find(&evaluations).Error
	return evaluations, err
}

// EvaluationFilter narrows a filtered listing
type EvaluationFilter struct {
	InstitutionID uint
	CourseID      uint
	From          *time.Time
	To            *time.Time
	Page          int
	Limit         int
}

// ListFiltered returns evaluations matching the filter plus the total count.
func (s *EvaluationService) ListFiltered(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Evaluation{})

	if filter.InstitutionID != 0 {
		query = query.Where("instituicao_id = ?", filter.InstitutionID)
	}
	if filter.CourseID != 0 {
		query = query.Where("curso_id = ?", filter.CourseID)
	}
	if filter.From != nil {
		query = query.Where("criado_em >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("criado_em <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	var evaluations []model.Evaluation
	err := query.
		Order("criado_em DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&evaluations).Error
	return evaluations, total, err
}

// persistAnswers writes the per-question breakdown rows for a stored
// evaluation. Failures are logged, never returned.
func (s *EvaluationService) persistAnswers(ctx context.Context, evaluation *model.Evaluation) {
	scores := evaluation.Scores()
	comments := evaluation.Comments()

	var rows []model.EvaluationAnswer
	for _, cat := range model.Categories {
		score, hasScore := scores[cat]
		comment, hasComment := comments[cat]
		if !hasScore && !hasComment {
			continue
		}
		row := model.EvaluationAnswer{
			EvaluationID: evaluation.ID,
			QuestionKey:  cat,
		}
		if hasScore {
			v := score
			row.Score = &v
		}
		if hasComment {
			v := comment
			row.Comment = &v
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Printf("evaluation %d: failed to store answer breakdown: %v", evaluation.ID, err)
	}
}

// applyAnswers normalizes the raw answer map onto the evaluation record and
// returns the keys it had to drop. A recognized score key with an invalid
// value is a validation error, not a drop.
func applyAnswers(evaluation *model.Evaluation, answers map[string]interface{}) ([]string, error) {
	var dropped []string

	for key, value := range answers {
		category, isComment, ok := normalizeAnswerKey(key)
		if !ok {
			dropped = append(dropped, key)
			continue
		}

		if isComment {
			text, ok := value.(string)
			if !ok {
				dropped = append(dropped, key)
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			evaluation.SetComment(category, text)
			continue
		}

		score, ok := parseScore(value)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		if score < minScore || score > maxScore {
			return nil, apperror.Validation(fmt.Sprintf("Score for %q must be between 1 and 5", key))
		}
		evaluation.SetScore(category, score)
	}

	return dropped, nil
}

// normalizeAnswerKey maps one raw key to a canonical category. Accepted
// shapes: nota_<categoria>, comentario_<categoria>, a bare legacy question id
// ("101"), and comentario_<legacy id>.
func normalizeAnswerKey(key string) (category string, isComment bool, ok bool) {
	key = strings.ToLower(strings.TrimSpace(key))

	resolve := func(name string) (string, bool) {
		if canonical, found := model.LegacyQuestionKey[name]; found {
			return canonical, true
		}
		for _, cat := range model.Categories {
			if name == cat {
				return cat, true
			}
		}
		return "", false
	}

	switch {
	case strings.HasPrefix(key, scoreKeyPrefix):
		category, ok = resolve(strings.TrimPrefix(key, scoreKeyPrefix))
		return category, false, ok
	case strings.HasPrefix(key, commentKeyPrefix):
		category, ok = resolve(strings.TrimPrefix(key, commentKeyPrefix))
		return category, true, ok
	default:
		// Bare legacy question ids carry a score
		if canonical, found := model.LegacyQuestionKey[key]; found {
			return canonical, false, true
		}
		return "", false, false
	}
}

// parseScore accepts the numeric shapes JSON bodies produce: numbers and
// numeric strings.
func parseScore(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// meanScore is the arithmetic mean of the submitted notas, zero when none
// were submitted.
func meanScore(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}
