package auth

import (
	"log"
	"time"

	"github.com/avaliaedu/portal/model"
	authutil "github.com/avaliaedu/portal/utils/auth"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// resetCodeTTL is how long a password reset code stays redeemable
const resetCodeTTL = 5 * time.Minute

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset with the mailed code
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ForgotPassword issues a short-lived reset code and mails it to the user.
// The response never reveals whether the email exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}

	neutral := fiber.Map{"message": "If the email exists, a reset code has been sent"}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.Success(c, neutral)
	}

	code, err := authutil.GenerateVerificationCode()
	if err != nil {
		return response.InternalServerError(c, "Failed to generate reset code")
	}
	hashed, err := authutil.HashVerificationCode(code)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate reset code")
	}

	expiresAt := time.Now().Add(resetCodeTTL)
	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"reset_code":            hashed,
		"reset_code_expires_at": expiresAt,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to store reset code")
	}

	if err := h.emailService.SendPasswordResetEmail(user.Email, user.Name, code); err != nil {
		log.Printf("failed to send reset email to %s: %v", user.Email, err)
	}

	return response.Success(c, neutral)
}

// ResetPassword exchanges a valid reset code for a new password. All
// existing tokens are invalidated.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Email, code and new password are required")
	}
	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired reset code")
	}

	if user.ResetCode == "" || user.ResetCodeExpiresAt == nil {
		return response.BadRequest(c, "Invalid or expired reset code")
	}
	if time.Now().After(*user.ResetCodeExpiresAt) {
		return response.BadRequest(c, "Invalid or expired reset code")
	}
	if !authutil.VerifyCode(user.ResetCode, req.Code) {
		return response.BadRequest(c, "Invalid or expired reset code")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"senha":                 hashedPassword,
		"reset_code":            "",
		"reset_code_expires_at": nil,
		"token_version":         gorm.Expr("token_version + 1"),
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.SuccessWithMessage(c, "Password updated successfully", nil)
}
