package admin

import (
	"strconv"
	"time"

	"github.com/avaliaedu/portal/services"
	"github.com/avaliaedu/portal/utils/middleware"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
)

// UnlockAdminHandler exposes the unlock request review queue
type UnlockAdminHandler struct {
	service *services.UnlockService
}

// NewUnlockAdminHandler creates a new unlock admin handler
func NewUnlockAdminHandler(service *services.UnlockService) *UnlockAdminHandler {
	return &UnlockAdminHandler{
		service: service,
	}
}

// ListPending handles GET /api/v1/admin/unlocks
func (h *UnlockAdminHandler) ListPending(c *fiber.Ctx) error {
	var from, to *time.Time
	if v, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = &v
	}
	if v, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		end := v.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	requests, err := h.service.ListPending(c.Context(), from, to)
	if err != nil {
		return response.FromError(c, err, "Failed to load unlock requests")
	}

	return response.Success(c, requests)
}

// PendingCount handles GET /api/v1/admin/unlocks/count
func (h *UnlockAdminHandler) PendingCount(c *fiber.Ctx) error {
	count, err := h.service.PendingCount(c.Context())
	if err != nil {
		return response.FromError(c, err, "Failed to count unlock requests")
	}

	return response.Success(c, fiber.Map{"pending": count})
}

// Approve handles POST /api/v1/admin/unlocks/:id/approve
func (h *UnlockAdminHandler) Approve(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request id")
	}

	if err := h.service.Approve(c.Context(), uint(id), admin.ID); err != nil {
		return response.FromError(c, err, "Failed to approve unlock request")
	}

	return response.SuccessWithMessage(c, "Unlock request approved; code sent to the user", nil)
}

// Reject handles POST /api/v1/admin/unlocks/:id/reject
func (h *UnlockAdminHandler) Reject(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request id")
	}

	if err := h.service.Reject(c.Context(), uint(id), admin.ID); err != nil {
		return response.FromError(c, err, "Failed to reject unlock request")
	}

	return response.SuccessWithMessage(c, "Unlock request rejected", nil)
}
