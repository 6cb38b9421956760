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

func TestMergeInstitutionsReassignsEverything(t *testing.T) {
	db := newTestDB(t)
	svc := NewMergeService(db)
	ctx := context.Background()

	source := createTestInstitution(t, db, "UniFederal")
	target := createTestInstitution(t, db, "Universidade Federal")

	course := createTestCourse(t, db, "Medicina", source.ID)
	user := createTestUser(t, db, true)
	require.NoError(t, db.Model(user).Update("instituicao_id", source.ID).Error)
	createTestEvaluation(t, db, user.ID, source.ID, course.ID, 4.0, time.Time{})

	result, err := svc.MergeInstitutions(ctx, source.ID, target.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.UsersReassigned)
	assert.EqualValues(t, 1, result.CoursesReassigned)
	assert.EqualValues(t, 1, result.EvalsReassigned)

	// Source row is gone
	var gone model.Institution
	err = db.First(&gone, source.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Everything now points at the target
	var movedCourse model.Course
	require.NoError(t, db.First(&movedCourse, course.ID).Error)
	assert.Equal(t, target.ID, movedCourse.InstitutionID)

	var movedUser model.User
	require.NoError(t, db.First(&movedUser, user.ID).Error)
	require.NotNil(t, movedUser.InstitutionID)
	assert.Equal(t, target.ID, *movedUser.InstitutionID)

	var evalCount int64
	require.NoError(t, db.Model(&model.Evaluation{}).
		Where("instituicao_id = ?", target.ID).Count(&evalCount).Error)
	assert.EqualValues(t, 1, evalCount)
}

func TestMergeInstitutionsValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMergeService(db)
	ctx := context.Background()

	inst := createTestInstitution(t, db, "Unica")

	_, err := svc.MergeInstitutions(ctx, inst.ID, inst.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.MergeInstitutions(ctx, 9999, inst.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = svc.MergeInstitutions(ctx, inst.ID, 9999)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestMergeCoursesReassignsUsersAndEvaluations(t *testing.T) {
	db := newTestDB(t)
	svc := NewMergeService(db)
	ctx := context.Background()

	inst := createTestInstitution(t, db, "Centro Universitario")
	source := createTestCourse(t, db, "Eng Software", inst.ID)
	target := createTestCourse(t, db, "Engenharia de Software", inst.ID)

	user := createTestUser(t, db, true)
	require.NoError(t, db.Model(user).Update("curso_id", source.ID).Error)
	createTestEvaluation(t, db, user.ID, inst.ID, source.ID, 3.5, time.Time{})

	result, err := svc.MergeCourses(ctx, source.ID, target.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.UsersReassigned)
	assert.EqualValues(t, 1, result.EvalsReassigned)

	var gone model.Course
	err = db.First(&gone, source.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var movedUser model.User
	require.NoError(t, db.First(&movedUser, user.ID).Error)
	require.NotNil(t, movedUser.CourseID)
	assert.Equal(t, target.ID, *movedUser.CourseID)
}

func TestDeactivateInstitutionRefusedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	svc := NewMergeService(db)
	ctx := context.Background()

	inst := createTestInstitution(t, db, "Faculdade Ativa")
	user := createTestUser(t, db, true)
	require.NoError(t, db.Model(user).Update("instituicao_id", inst.ID).Error)

	err := svc.DeactivateInstitution(ctx, inst.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	// Detach the user; deactivation now succeeds as a soft delete
	require.NoError(t, db.Model(user).Update("instituicao_id", nil).Error)
	require.NoError(t, svc.DeactivateInstitution(ctx, inst.ID))

	var stored model.Institution
	require.NoError(t, db.First(&stored, inst.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestDeactivateCourseRefusedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	svc := NewMergeService(db)
	ctx := context.Background()

	inst := createTestInstitution(t, db, "Faculdade")
	course := createTestCourse(t, db, "Historia", inst.ID)
	user := createTestUser(t, db, true)
	createTestEvaluation(t, db, user.ID, inst.ID, course.ID, 4.2, time.Time{})

	err := svc.DeactivateCourse(ctx, course.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}
