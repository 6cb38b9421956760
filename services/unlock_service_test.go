package services

import (
	"context"
	"testing"
	"time"

	"github.com/avaliaedu/portal/config"
	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/avaliaedu/portal/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUnlockService(db *gorm.DB) *UnlockService {
	// Unconfigured SMTP: codes are logged, never sent
	return NewUnlockService(db, NewEmailService(&config.EnviornmentVariable{}))
}

func TestUnlockRequestLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newUnlockService(db)
	ctx := context.Background()

	locked := createTestUser(t, db, false)

	request, err := svc.Request(ctx, locked.ID, "Bloqueado injustamente apos troca de email")
	require.NoError(t, err)
	assert.Equal(t, model.UnlockStatusPending, request.Status)

	// A second request while one is pending is refused
	_, err = svc.Request(ctx, locked.ID, "Outro motivo qualquer aqui")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUnlockRequestRefusedForActiveAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newUnlockService(db)

	active := createTestUser(t, db, true)
	_, err := svc.Request(context.Background(), active.ID, "Conta esta normal")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestApproveStoresHashedCode(t *testing.T) {
	db := newTestDB(t)
	svc := newUnlockService(db)
	ctx := context.Background()

	locked := createTestUser(t, db, false)
	admin := createTestUser(t, db, true)

	request, err := svc.Request(ctx, locked.ID, "Preciso voltar a avaliar")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, request.ID, admin.ID))

	var stored model.UnlockRequest
	require.NoError(t, db.First(&stored, request.ID).Error)
	assert.Equal(t, model.UnlockStatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedByID)
	assert.Equal(t, admin.ID, *stored.ApprovedByID)
	require.NotNil(t, stored.VerificationCode)
	assert.NotEmpty(t, *stored.VerificationCode)
	require.NotNil(t, stored.CodeExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.CodeExpiresAt, time.Minute)

	// Double review is refused
	err = svc.Approve(ctx, request.ID, admin.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestRedeemReactivatesAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newUnlockService(db)
	ctx := context.Background()

	locked := createTestUser(t, db, false)

	// Seed an approved request with a known code
	hashed, err := auth.HashVerificationCode("ABC1234")
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour)
	request := model.UnlockRequest{
		UserID:           locked.ID,
		Reason:           "motivo",
		Status:           model.UnlockStatusApproved,
		VerificationCode: &hashed,
		CodeExpiresAt:    &expires,
	}
	require.NoError(t, db.Create(&request).Error)

	// Wrong code is refused
	err = svc.Redeem(ctx, locked.Email, "XYZ0000")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	require.NoError(t, svc.Redeem(ctx, locked.Email, "ABC1234"))

	var user model.User
	require.NoError(t, db.First(&user, locked.ID).Error)
	assert.True(t, user.IsActive)
	assert.NotNil(t, user.UnlockedAt)
	assert.Equal(t, locked.TokenVersion+1, user.TokenVersion)

	// Code is single use
	var stored model.UnlockRequest
	require.NoError(t, db.First(&stored, request.ID).Error)
	assert.Nil(t, stored.VerificationCode)

	err = svc.Redeem(ctx, locked.Email, "ABC1234")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestRedeemExpiredCode(t *testing.T) {
	db := newTestDB(t)
	svc := newUnlockService(db)

	locked := createTestUser(t, db, false)

	hashed, err := auth.HashVerificationCode("ABC1234")
	require.NoError(t, err)
	expires := time.Now().Add(-time.Minute)
	request := model.UnlockRequest{
		UserID:           locked.ID,
		Status:           model.UnlockStatusApproved,
		VerificationCode: &hashed,
		CodeExpiresAt:    &expires,
	}
	require.NoError(t, db.Create(&request).Error)

	err = svc.Redeem(context.Background(), locked.Email, "ABC1234")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestExpireStaleCodes(t *testing.T) {
	db := newTestDB(t)
	svc := newUnlockService(db)

	locked := createTestUser(t, db, false)

	hashed, err := auth.HashVerificationCode("ABC1234")
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	stale := model.UnlockRequest{
		UserID: locked.ID, Status: model.UnlockStatusApproved,
		VerificationCode: &hashed, CodeExpiresAt: &past,
	}
	fresh := model.UnlockRequest{
		UserID: locked.ID, Status: model.UnlockStatusApproved,
		VerificationCode: &hashed, CodeExpiresAt: &future,
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)

	touched, err := svc.ExpireStaleCodes(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, touched)

	var kept model.UnlockRequest
	require.NoError(t, db.First(&kept, fresh.ID).Error)
	assert.NotNil(t, kept.VerificationCode)
}
