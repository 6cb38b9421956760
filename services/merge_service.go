package services

import (
	"context"
	"fmt"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"gorm.io/gorm"
)

// MergeService consolidates duplicate directory entities. Every merge runs
// inside one transaction: either all referencing rows move to the target and
// the source disappears, or nothing changes.
type MergeService struct {
	db *gorm.DB
}

// NewMergeService creates a new merge service
func NewMergeService(db *gorm.DB) *MergeService {
	return &MergeService{
		db: db,
	}
}

// MergeResult reports how many rows were reassigned by a merge
type MergeResult struct {
	SourceID          uint  `json:"source_id"`
	TargetID          uint  `json:"target_id"`
	UsersReassigned   int64 `json:"users_reassigned"`
	CoursesReassigned int64 `json:"courses_reassigned,omitempty"`
	EvalsReassigned   int64 `json:"evaluations_reassigned"`
}

// MergeInstitutions moves every user, course and evaluation from the source
// institution to the target, then deletes the source row.
func (s *MergeService) MergeInstitutions(ctx context.Context, sourceID, targetID uint) (*MergeResult, error) {
	if sourceID == targetID {
		return nil, apperror.Validation("Source and target institutions must be different")
	}

	result := &MergeResult{SourceID: sourceID, TargetID: targetID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source, target model.Institution
		if err := tx.First(&source, sourceID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("Source institution not found")
			}
			return err
		}
		if err := tx.First(&target, targetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("Target institution not found")
			}
			return err
		}

		res := tx.Model(&model.User{}).
			Where("instituicao_id = ?", sourceID).
			Update("instituicao_id", targetID)
		if res.Error != nil {
			return fmt.Errorf("failed to reassign users: %w", res.Error)
		}
		result.UsersReassigned = res.RowsAffected

		res = tx.Model(&model.Course{}).
			Where("instituicao_id = ?", sourceID).
			Update("instituicao_id", targetID)
		if res.Error != nil {
			return fmt.Errorf("failed to reassign courses: %w", res.Error)
		}
		result.CoursesReassigned = res.RowsAffected

		res = tx.Model(&model.Evaluation{}).
			Where("instituicao_id = ?", sourceID).
			Update("instituicao_id", targetID)
		if res.Error != nil {
			return fmt.Errorf("failed to reassign evaluations: %w", res.Error)
		}
		result.EvalsReassigned = res.RowsAffected

		if err := tx.Delete(&model.Institution{}, sourceID).Error; err != nil {
			return fmt.Errorf("failed to delete source institution: %w", err)
		}

		return nil
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.Transaction("Institution merge failed", err)
	}

	return result, nil
}

// MergeCourses moves every user and evaluation from the source course to the
// target, then deletes the source row. Courses from different institutions
// may be merged; the target's institution wins.
func (s *MergeService) MergeCourses(ctx context.Context, sourceID, targetID uint) (*MergeResult, error) {
	if sourceID == targetID {
		return nil, apperror.Validation("Source and target courses must be different")
	}

	result := &MergeResult{SourceID: sourceID, TargetID: targetID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source, target model.Course
		if err := tx.First(&source, sourceID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("Source course not found")
			}
			return err
		}
		if err := tx.First(&target, targetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("Target course not found")
			}
			return err
		}

		res := tx.Model(&model.User{}).
			Where("curso_id = ?", sourceID).
			Update("curso_id", targetID)
		if res.Error != nil {
			return fmt.Errorf("failed to reassign users: %w", res.Error)
		}
		result.UsersReassigned = res.RowsAffected

		res = tx.Model(&model.Evaluation{}).
			Where("curso_id = ?", sourceID).
			Update("curso_id", targetID)
		if res.Error != nil {
			return fmt.Errorf("failed to reassign evaluations: %w", res.Error)
		}
		result.EvalsReassigned = res.RowsAffected

		if err := tx.Delete(&model.Course{}, sourceID).Error; err != nil {
			return fmt.Errorf("failed to delete source course: %w", err)
		}

		return nil
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.Transaction("Course merge failed", err)
	}

	return result, nil
}

// DeactivateInstitution soft-deletes an institution. Refused while any user
// or evaluation still references it; merging is the supported way out.
func (s *MergeService) DeactivateInstitution(ctx context.Context, id uint) error {
	var institution model.Institution
	if err := s.db.WithContext(ctx).First(&institution, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("Institution not found")
		}
		return err
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("instituicao_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return apperror.Conflict("Institution still has registered users; merge it into another institution instead")
	}
	if err := s.db.WithContext(ctx).Model(&model.Evaluation{}).
		Where("instituicao_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return apperror.Conflict("Institution still has evaluations; merge it into another institution instead")
	}

	return s.db.WithContext(ctx).Model(&institution).Update("is_active", false).Error
}

// DeactivateCourse soft-deletes a course under the same referential rules
func (s *MergeService) DeactivateCourse(ctx context.Context, id uint) error {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("Course not found")
		}
		return err
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("curso_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return apperror.Conflict("Course still has registered users; merge it into another course instead")
	}
	if err := s.db.WithContext(ctx).Model(&model.Evaluation{}).
		Where("curso_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return apperror.Conflict("Course still has evaluations; merge it into another course instead")
	}

	return s.db.WithContext(ctx).Model(&course).Update("is_active", false).Error
}
