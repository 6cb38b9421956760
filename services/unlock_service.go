package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/avaliaedu/portal/utils/auth"
	"gorm.io/gorm"
)

// unlockCodeTTL is how long an approved unlock code stays redeemable
const unlockCodeTTL = time.Hour

// UnlockService manages the account reactivation workflow: a locked user
// files a request, an admin approves or rejects it, and approval mails a
// short-lived verification code the user redeems to reactivate.
type UnlockService struct {
	db    *gorm.DB
	email *EmailService
}

// NewUnlockService creates a new unlock service
func NewUnlockService(db *gorm.DB, email *EmailService) *UnlockService {
	return &UnlockService{
		db:    db,
		email: email,
	}
}

// Request files an unlock request for a locked account. Active accounts and
// accounts with a pending request are refused.
func (s *UnlockService) Request(ctx context.Context, userID uint, reason string) (*model.UnlockRequest, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}
	if user.IsActive {
		return nil, apperror.Conflict("Account is not locked")
	}

	var pending int64
	if err := s.db.WithContext(ctx).Model(&model.UnlockRequest{}).
		Where("usuario_id = ? AND status = ?", userID, model.UnlockStatusPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, apperror.Conflict("An unlock request is already pending for this account")
	}

	request := model.UnlockRequest{
		UserID: userID,
		Reason: reason,
		Status: model.UnlockStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create unlock request: %w", err)
	}

	return &request, nil
}

// ListPending returns pending requests, oldest first, optionally bounded by
// creation date.
func (s *UnlockService) ListPending(ctx context.Context, from, to *time.Time) ([]model.UnlockRequest, error) {
	query := s.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", model.UnlockStatusPending)
	if from != nil {
		query = query.Where("criado_em >= ?", *from)
	}
	if to != nil {
		query = query.Where("criado_em <= ?", *to)
	}

	var requests []model.UnlockRequest
	err := query.Order("criado_em ASC").Find(&requests).Error
	return requests, err
}

// PendingCount returns how many requests await review.
func (s *UnlockService) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UnlockRequest{}).
		Where("status = ?", model.UnlockStatusPending).
		Count(&count).Error
	return count, err
}

// Approve marks a pending request approved, stores a hashed verification
// code with a one hour expiry, and mails the plain code to the user.
func (s *UnlockService) Approve(ctx context.Context, requestID, adminID uint) error {
	var request model.UnlockRequest
	if err := s.db.WithContext(ctx).Preload("User").First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("Unlock request not found")
		}
		return err
	}
	if request.Status != model.UnlockStatusPending {
		return apperror.Conflict("Unlock request was already reviewed")
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	hashed, err := auth.HashVerificationCode(code)
	if err != nil {
		return fmt.Errorf("failed to hash verification code: %w", err)
	}

	expiresAt := time.Now().Add(unlockCodeTTL)
	updates := map[string]interface{}{
		"status":            model.UnlockStatusApproved,
		"aprovado_por":      adminID,
		"verification_code": hashed,
		"code_expires_at":   expiresAt,
	}
	if err := s.db.WithContext(ctx).Model(&request).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to approve unlock request: %w", err)
	}

	// Approval stands even if delivery fails; the admin can re-approve to
	// issue a fresh code.
	if err := s.email.SendUnlockCodeEmail(request.User.Email, request.User.Name, code); err != nil {
		log.Printf("unlock request %d: failed to send code email: %v", request.ID, err)
	}

	return nil
}

// Reject marks a pending request rejected.
func (s *UnlockService) Reject(ctx context.Context, requestID, adminID uint) error {
	var request model.UnlockRequest
	if err := s.db.WithContext(ctx).First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("Unlock request not found")
		}
		return err
	}
	if request.Status != model.UnlockStatusPending {
		return apperror.Conflict("Unlock request was already reviewed")
	}

	return s.db.WithContext(ctx).Model(&request).Updates(map[string]interface{}{
		"status":       model.UnlockStatusRejected,
		"aprovado_por": adminID,
	}).Error
}

// Redeem exchanges a valid verification code for account reactivation. The
// code is single use: redemption clears it.
func (s *UnlockService) Redeem(ctx context.Context, email, code string) error {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("User not found")
		}
		return err
	}
	if user.IsActive {
		return apperror.Conflict("Account is not locked")
	}

	var request model.UnlockRequest
	err := s.db.WithContext(ctx).
		Where("usuario_id = ? AND status = ?", user.ID, model.UnlockStatusApproved).
		Order("updated_at DESC").
		First(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.Validation("No approved unlock request for this account")
		}
		return err
	}

	if request.VerificationCode == nil || request.CodeExpiresAt == nil {
		return apperror.Validation("No unlock code was issued for this request")
	}
	if time.Now().After(*request.CodeExpiresAt) {
		return apperror.Validation("Unlock code has expired")
	}
	if !auth.VerifyCode(*request.VerificationCode, code) {
		return apperror.Validation("Invalid unlock code")
	}

	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"is_active":       true,
			"desbloqueado_em": now,
			"token_version":   gorm.Expr("token_version + 1"),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&request).Updates(map[string]interface{}{
			"verification_code": nil,
			"code_expires_at":   nil,
		}).Error
	})
}

// ExpireStaleCodes clears verification codes past their expiry. Returns how
// many requests were touched; run from the hourly cron.
func (s *UnlockService) ExpireStaleCodes(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.UnlockRequest{}).
		Where("verification_code IS NOT NULL AND code_expires_at < ?", time.Now()).
		Updates(map[string]interface{}{
			"verification_code": nil,
			"code_expires_at":   nil,
		})
	return res.RowsAffected, res.Error
}
