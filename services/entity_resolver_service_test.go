package services

import (
	"context"
	"testing"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrCreateInstitutionCreatesOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntityResolverService(db)
	ctx := context.Background()

	id, err := svc.ResolveOrCreateInstitution(ctx, ResolveInstitutionRequest{
		Name:        "  Universidade   Federal ",
		City:        "Recife",
		State:       "PE",
		TriggeredBy: "test",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	// Different casing and spacing resolve to the same row
	again, err := svc.ResolveOrCreateInstitution(ctx, ResolveInstitutionRequest{
		Name: "universidade federal",
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	var count int64
	require.NoError(t, db.Model(&model.Institution{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var stored model.Institution
	require.NoError(t, db.First(&stored, id).Error)
	assert.Equal(t, "Universidade Federal", stored.Name)
	assert.Equal(t, "Recife", stored.City)
	assert.True(t, stored.IsActive)
}

func TestResolveOrCreateInstitutionRecordsAuditEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntityResolverService(db)

	_, err := svc.ResolveOrCreateInstitution(context.Background(), ResolveInstitutionRequest{
		Name:        "Faculdade Nova",
		TriggeredBy: "user-42",
	})
	require.NoError(t, err)

	var entries []model.AutoCreatedEntity
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AutoEntityInstitution, entries[0].EntityType)
	assert.Equal(t, "Faculdade Nova", entries[0].EntityName)
	assert.Equal(t, "user-42", entries[0].TriggeredBy)

	// Resolving an existing name must not append another audit row
	_, err = svc.ResolveOrCreateInstitution(context.Background(), ResolveInstitutionRequest{
		Name: "faculdade nova",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.AutoCreatedEntity{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveOrCreateInstitutionRejectsEmptyName(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntityResolverService(db)

	_, err := svc.ResolveOrCreateInstitution(context.Background(), ResolveInstitutionRequest{
		Name: "   ",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestResolveOrCreateInstitutionReactivatesDeactivated(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntityResolverService(db)
	ctx := context.Background()

	id, err := svc.ResolveOrCreateInstitution(ctx, ResolveInstitutionRequest{
		Name: "Faculdade Antiga",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Institution{}).
		Where("id = ?", id).
		Update("is_active", false).Error)

	// Resolving the same name revives the row instead of duplicating it
	again, err := svc.ResolveOrCreateInstitution(ctx, ResolveInstitutionRequest{
		Name: "faculdade antiga",
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	var stored model.Institution
	require.NoError(t, db.First(&stored, id).Error)
	assert.True(t, stored.IsActive)

	var count int64
	require.NoError(t, db.Model(&model.Institution{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveOrCreateCourseScopedPerInstitution(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntityResolverService(db)
	ctx := context.Background()

	instA := createTestInstitution(t, db, "Instituicao A")
	instB := createTestInstitution(t, db, "Instituicao B")

	idA, err := svc.ResolveOrCreateCourse(ctx, ResolveCourseRequest{
		Name:          "Engenharia de Software",
		InstitutionID: instA.ID,
	})
	require.NoError(t, err)

	// Same name under another institution is a distinct course
	idB, err := svc.ResolveOrCreateCourse(ctx, ResolveCourseRequest{
		Name:          "engenharia de software",
		InstitutionID: instB.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, idA, idB)

	// Same name, same institution converges
	idA2, err := svc.ResolveOrCreateCourse(ctx, ResolveCourseRequest{
		Name:          "ENGENHARIA DE SOFTWARE",
		InstitutionID: instA.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, idA, idA2)
}

func TestResolveOrCreateCourseRequiresInstitution(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntityResolverService(db)

	_, err := svc.ResolveOrCreateCourse(context.Background(), ResolveCourseRequest{
		Name: "Direito",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
