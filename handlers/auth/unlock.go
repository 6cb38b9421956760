package auth

import (
	"github.com/avaliaedu/portal/utils/middleware"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
)

// UnlockRequestBody represents a locked user's unlock request
type UnlockRequestBody struct {
	Reason string `json:"motivo" validate:"required,min=10"`
}

// RedeemUnlockRequest represents the code redemption after admin approval
type RedeemUnlockRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// RequestUnlock files an unlock request for the authenticated locked user
func (h *AuthHandler) RequestUnlock(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req UnlockRequestBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.Reason) < 10 {
		return response.BadRequest(c, "Please describe why the account should be unlocked")
	}

	request, err := h.unlockService.Request(c.Context(), user.ID, req.Reason)
	if err != nil {
		return response.FromError(c, err, "Failed to create unlock request")
	}

	return response.Created(c, request)
}

// RedeemUnlockCode exchanges an emailed verification code for reactivation.
// Unauthenticated: locked users redeem by email plus code.
func (h *AuthHandler) RedeemUnlockCode(c *fiber.Ctx) error {
	var req RedeemUnlockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Code == "" {
		return response.BadRequest(c, "Email and code are required")
	}

	if err := h.unlockService.Redeem(c.Context(), req.Email, req.Code); err != nil {
		return response.FromError(c, err, "Failed to redeem unlock code")
	}

	return response.SuccessWithMessage(c, "Account reactivated successfully", nil)
}
