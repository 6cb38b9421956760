package services

import (
	"context"
	"testing"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEvaluationService(db *gorm.DB) *EvaluationService {
	return NewEvaluationService(db, NewEntityResolverService(db), 60)
}

func TestSubmitStoresEvaluationWithMean(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)

	result, err := svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Computação",
		Answers: map[string]interface{}{
			"nota_didatica":       float64(5),
			"nota_infraestrutura": float64(4),
			"comentario_didatica": "Professores excelentes",
		},
	})
	require.NoError(t, err)
	require.NotZero(t, result.EvaluationID)
	assert.InDelta(t, 4.5, result.FinalScore, 0.001)
	assert.Empty(t, result.DroppedKeys)

	var stored model.Evaluation
	require.NoError(t, db.First(&stored, result.EvaluationID).Error)
	require.NotNil(t, stored.NotaDidatica)
	assert.InDelta(t, 5, *stored.NotaDidatica, 0.001)
	require.NotNil(t, stored.ComentarioDidatica)
	assert.Equal(t, "Professores excelentes", *stored.ComentarioDidatica)
	assert.InDelta(t, 4.5, stored.FinalScore, 0.001)

	// Per-question breakdown rows exist for both answered categories
	var answers []model.EvaluationAnswer
	require.NoError(t, db.Where("avaliacao_id = ?", stored.ID).Find(&answers).Error)
	assert.Len(t, answers, 2)
}

func TestSubmitNormalizesLegacyQuestionIDs(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)

	result, err := svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Direito",
		Answers: map[string]interface{}{
			"101":            float64(3),
			"comentario_109": "Aulas boas",
			"nota_invalida":  float64(5),
			"xyz":            "ignored",
		},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"nota_invalida", "xyz"}, result.DroppedKeys)

	var stored model.Evaluation
	require.NoError(t, db.First(&stored, result.EvaluationID).Error)
	require.NotNil(t, stored.NotaInfraestrutura)
	assert.InDelta(t, 3, *stored.NotaInfraestrutura, 0.001)
	require.NotNil(t, stored.ComentarioDidatica)
	assert.Equal(t, "Aulas boas", *stored.ComentarioDidatica)

	// media_final covers only the single submitted nota
	assert.InDelta(t, 3, stored.FinalScore, 0.001)
}

func TestSubmitRejectsLockedAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, false)

	_, err := svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Computação",
		Answers:         map[string]interface{}{"nota_didatica": float64(5)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindAccountLocked))
}

func TestSubmitEnforcesCooldown(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)

	first, err := svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Computação",
		Answers:         map[string]interface{}{"nota_didatica": float64(5)},
	})
	require.NoError(t, err)
	require.NotZero(t, first.EvaluationID)

	_, err = svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Computação",
		Answers:         map[string]interface{}{"nota_didatica": float64(4)},
	})
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindCooldownActive, appErr.Kind)
	assert.Equal(t, 60, appErr.DaysRemaining)
}

func TestSubmitRejectsOutOfRangeScore(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)

	_, err := svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Computação",
		Answers:         map[string]interface{}{"nota_didatica": float64(7)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestSubmitRejectsUnrecognizableSubmission(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)

	_, err := svc.Submit(context.Background(), user, SubmitEvaluationRequest{
		InstitutionName: "Universidade Teste",
		CourseName:      "Computação",
		Answers:         map[string]interface{}{"bogus": float64(5)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestGetStatusWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)

	status, err := svc.GetStatus(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, status.CanEvaluate)
	assert.Zero(t, status.DaysRemaining)
	assert.Nil(t, status.LastEvaluationAt)
}

func TestGetStatusComputesRemainingDays(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)
	inst := createTestInstitution(t, db, "Universidade")
	course := createTestCourse(t, db, "Computação", inst.ID)

	// Evaluated 10 days ago: 50 of the 60 cooldown days remain
	createTestEvaluation(t, db, user.ID, inst.ID, course.ID, 4.0,
		time.Now().Add(-10*24*time.Hour))

	status, err := svc.GetStatus(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, status.CanEvaluate)
	assert.Equal(t, 50, status.DaysRemaining)
	require.NotNil(t, status.NextEligibleAt)
}

func TestGetStatusAfterWindowElapsed(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)
	user := createTestUser(t, db, true)
	inst := createTestInstitution(t, db, "Universidade")
	course := createTestCourse(t, db, "Computação", inst.ID)

	createTestEvaluation(t, db, user.ID, inst.ID, course.ID, 4.0,
		time.Now().Add(-61*24*time.Hour))

	status, err := svc.GetStatus(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, status.CanEvaluate)
	assert.Zero(t, status.DaysRemaining)
}

func TestGetDetailsOwnershipRules(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)

	owner := createTestUser(t, db, true)
	stranger := createTestUser(t, db, true)
	admin := createTestUser(t, db, true)
	require.NoError(t, db.Model(admin).Update("role", "admin").Error)
	admin.Role = "admin"

	inst := createTestInstitution(t, db, "Universidade")
	course := createTestCourse(t, db, "Computação", inst.ID)
	evaluation := createTestEvaluation(t, db, owner.ID, inst.ID, course.ID, 4.0, time.Time{})

	_, _, err := svc.GetDetails(context.Background(), owner, evaluation.ID)
	require.NoError(t, err)

	// Strangers get not-found, not forbidden, so ids stay unguessable
	_, _, err = svc.GetDetails(context.Background(), stranger, evaluation.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, _, err = svc.GetDetails(context.Background(), admin, evaluation.ID)
	require.NoError(t, err)
}

func TestListFiltered(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db)

	user := createTestUser(t, db, true)
	instA := createTestInstitution(t, db, "Inst A")
	instB := createTestInstitution(t, db, "Inst B")
	courseA := createTestCourse(t, db, "Curso A", instA.ID)
	courseB := createTestCourse(t, db, "Curso B", instB.ID)

	createTestEvaluation(t, db, user.ID, instA.ID, courseA.ID, 4.0, time.Time{})
	createTestEvaluation(t, db, user.ID, instB.ID, courseB.ID, 3.0, time.Time{})

	evaluations, total, err := svc.ListFiltered(context.Background(), EvaluationFilter{
		InstitutionID: instA.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, evaluations, 1)
	assert.Equal(t, instA.ID, evaluations[0].InstitutionID)
}
