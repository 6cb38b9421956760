package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/avaliaedu/portal/database"
	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/avaliaedu/portal/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EntityResolverService finds or creates directory entities by normalized
// name. Lookup-then-insert is not atomic; the unique index on LOWER(nome) is
// the arbiter, and a duplicate-key error means another caller won the race,
// so the winner's row is re-read and returned. For any normalized name (and
// institution scope, for courses) all concurrent callers converge on one id.
type EntityResolverService struct {
	db *gorm.DB
}

// NewEntityResolverService creates a new entity resolver service
func NewEntityResolverService(db *gorm.DB) *EntityResolverService {
	return &EntityResolverService{
		db: db,
	}
}

// ResolveInstitutionRequest carries the free-text data for an institution resolve
type ResolveInstitutionRequest struct {
	Name        string
	City        string
	State       string
	TriggeredBy string // actor identifier for the audit trail
}

// ResolveCourseRequest carries the free-text data for a course resolve
type ResolveCourseRequest struct {
	Name          string
	InstitutionID uint
	TriggeredBy   string
}

// ResolveOrCreateInstitution returns the id of the active institution whose
// normalized name matches, creating it if absent. A soft-deactivated match is
// reactivated: the unique index covers inactive rows too, so the same name
// could never be recreated alongside one.
func (s *EntityResolverService) ResolveOrCreateInstitution(ctx context.Context, req ResolveInstitutionRequest) (uint, error) {
	name := validation.NormalizeName(req.Name)
	if name == "" {
		return 0, apperror.Validation("Institution name is required")
	}

	var existing model.Institution
	err := s.db.WithContext(ctx).
		Where("LOWER(nome) = LOWER(?)", name).
		First(&existing).Error
	if err == nil {
		if !existing.IsActive {
			if err := s.db.WithContext(ctx).Model(&existing).Update("is_active", true).Error; err != nil {
				return 0, fmt.Errorf("failed to reactivate institution: %w", err)
			}
		}
		return existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("failed to look up institution: %w", err)
	}

	institution := model.Institution{
		Name:     name,
		City:     validation.NormalizeName(req.City),
		State:    validation.NormalizeName(req.State),
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(&institution).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// Another caller inserted the same normalized name first
			var winner model.Institution
			if err := s.db.WithContext(ctx).
				Where("LOWER(nome) = LOWER(?)", name).
				First(&winner).Error; err != nil {
				return 0, fmt.Errorf("failed to re-read institution after duplicate: %w", err)
			}
			return winner.ID, nil
		}
		return 0, fmt.Errorf("failed to create institution: %w", err)
	}

	s.logAutoCreated(ctx, model.AutoEntityInstitution, name, req.TriggeredBy, map[string]interface{}{
		"created_id": institution.ID,
		"cidade":     institution.City,
		"estado":     institution.State,
	})

	return institution.ID, nil
}

// ResolveOrCreateCourse returns the id of the active course whose normalized
// name matches within the institution, creating it if absent. Like
// institutions, a soft-deactivated match is reactivated.
func (s *EntityResolverService) ResolveOrCreateCourse(ctx context.Context, req ResolveCourseRequest) (uint, error) {
	name := validation.NormalizeName(req.Name)
	if name == "" {
		return 0, apperror.Validation("Course name is required")
	}
	if req.InstitutionID == 0 {
		return 0, apperror.Validation("Institution is required to resolve a course")
	}

	var existing model.Course
	err := s.db.WithContext(ctx).
		Where("LOWER(nome) = LOWER(?) AND instituicao_id = ?", name, req.InstitutionID).
		First(&existing).Error
	if err == nil {
		if !existing.IsActive {
			if err := s.db.WithContext(ctx).Model(&existing).Update("is_active", true).Error; err != nil {
				return 0, fmt.Errorf("failed to reactivate course: %w", err)
			}
		}
		return existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("failed to look up course: %w", err)
	}

	course := model.Course{
		Name:          name,
		InstitutionID: req.InstitutionID,
		IsActive:      true,
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		if database.IsUniqueViolation(err) {
			var winner model.Course
			if err := s.db.WithContext(ctx).
				Where("LOWER(nome) = LOWER(?) AND instituicao_id = ?", name, req.InstitutionID).
				First(&winner).Error; err != nil {
				return 0, fmt.Errorf("failed to re-read course after duplicate: %w", err)
			}
			return winner.ID, nil
		}
		return 0, fmt.Errorf("failed to create course: %w", err)
	}

	s.logAutoCreated(ctx, model.AutoEntityCourse, name, req.TriggeredBy, map[string]interface{}{
		"created_id":     course.ID,
		"instituicao_id": req.InstitutionID,
	})

	return course.ID, nil
}

// logAutoCreated appends one audit row for an implicitly created entity.
// Best effort: a failed audit write never fails the resolve.
func (s *EntityResolverService) logAutoCreated(ctx context.Context, entityType, entityName, triggeredBy string, metadata map[string]interface{}) {
	var meta datatypes.JSON
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			meta = datatypes.JSON(raw)
		}
	}

	entry := model.AutoCreatedEntity{
		EntityType:  entityType,
		EntityName:  entityName,
		TriggeredBy: triggeredBy,
		Metadata:    meta,
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("failed to record auto-created %s %q: %v", entityType, entityName, err)
	}
}
