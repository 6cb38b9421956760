package admin

import (
	"strconv"

	"github.com/avaliaedu/portal/services"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
)

// MergeHandler exposes the directory consolidation endpoints
type MergeHandler struct {
	service *services.MergeService
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(service *services.MergeService) *MergeHandler {
	return &MergeHandler{
		service: service,
	}
}

// MergeRequest names the duplicate row and the row that absorbs it
type MergeRequest struct {
	SourceID uint `json:"source_id" validate:"required"`
	TargetID uint `json:"target_id" validate:"required"`
}

// MergeInstitutions handles POST /api/v1/admin/institutions/merge
func (h *MergeHandler) MergeInstitutions(c *fiber.Ctx) error {
	var req MergeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SourceID == 0 || req.TargetID == 0 {
		return response.BadRequest(c, "source_id and target_id are required")
	}

	result, err := h.service.MergeInstitutions(c.Context(), req.SourceID, req.TargetID)
	if err != nil {
		return response.FromError(c, err, "Failed to merge institutions")
	}

	return response.Success(c, result)
}

// MergeCourses handles POST /api/v1/admin/courses/merge
func (h *MergeHandler) MergeCourses(c *fiber.Ctx) error {
	var req MergeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SourceID == 0 || req.TargetID == 0 {
		return response.BadRequest(c, "source_id and target_id are required")
	}

	result, err := h.service.MergeCourses(c.Context(), req.SourceID, req.TargetID)
	if err != nil {
		return response.FromError(c, err, "Failed to merge courses")
	}

	return response.Success(c, result)
}

// DeactivateInstitution handles DELETE /api/v1/admin/institutions/:id
func (h *MergeHandler) DeactivateInstitution(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	if err := h.service.DeactivateInstitution(c.Context(), uint(id)); err != nil {
		return response.FromError(c, err, "Failed to deactivate institution")
	}

	return response.SuccessWithMessage(c, "Institution deactivated", nil)
}

// DeactivateCourse handles DELETE /api/v1/admin/courses/:id
func (h *MergeHandler) DeactivateCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	if err := h.service.DeactivateCourse(c.Context(), uint(id)); err != nil {
		return response.FromError(c, err, "Failed to deactivate course")
	}

	return response.SuccessWithMessage(c, "Course deactivated", nil)
}
