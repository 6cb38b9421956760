package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/avaliaedu/portal/database"
	"github.com/avaliaedu/portal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema,
// including the case-insensitive name indexes the resolver depends on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Institution{},
		&model.Course{},
		&model.User{},
		&model.UnlockRequest{},
		&model.Evaluation{},
		&model.EvaluationAnswer{},
		&model.AutoCreatedEntity{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	))
	require.NoError(t, database.EnsureNameIndexes(db))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, active bool) *model.User {
	t.Helper()

	user := &model.User{
		Name:         "Test Student",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "not-a-real-hash",
		AnonymizedID: uuid.New().String(),
		Role:         "student",
		IsActive:     active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestInstitution(t *testing.T, db *gorm.DB, name string) *model.Institution {
	t.Helper()

	institution := &model.Institution{Name: name, IsActive: true}
	require.NoError(t, db.Create(institution).Error)
	return institution
}

func createTestCourse(t *testing.T, db *gorm.DB, name string, institutionID uint) *model.Course {
	t.Helper()

	course := &model.Course{Name: name, InstitutionID: institutionID, IsActive: true}
	require.NoError(t, db.Create(course).Error)
	return course
}

func createTestEvaluation(t *testing.T, db *gorm.DB, userID, institutionID, courseID uint, finalScore float64, createdAt time.Time) *model.Evaluation {
	t.Helper()

	evaluation := &model.Evaluation{
		UserID:        userID,
		InstitutionID: institutionID,
		CourseID:      courseID,
		FinalScore:    finalScore,
	}
	require.NoError(t, db.Create(evaluation).Error)
	if !createdAt.IsZero() {
		require.NoError(t, db.Model(evaluation).Update("criado_em", createdAt).Error)
		evaluation.CreatedAt = createdAt
	}
	return evaluation
}
