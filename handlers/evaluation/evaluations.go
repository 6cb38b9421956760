package evaluation

import (
	"strconv"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/services"
	"github.com/avaliaedu/portal/utils/middleware"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/avaliaedu/portal/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// EvaluationHandler handles evaluation submission and browsing
type EvaluationHandler struct {
	service   *services.EvaluationService
	validator *validation.Validator
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(service *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// Submit handles POST /api/v1/evaluations
func (h *EvaluationHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req services.SubmitEvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.InstitutionName == "" || req.CourseName == "" {
		return response.BadRequest(c, "Institution and course are required")
	}
	if len(req.Answers) == 0 {
		return response.BadRequest(c, "At least one answer is required")
	}

	result, err := h.service.Submit(c.Context(), user, req)
	if err != nil {
		return response.FromError(c, err, "Failed to submit evaluation")
	}

	return response.Created(c, result)
}

// Status handles GET /api/v1/evaluations/status
func (h *EvaluationHandler) Status(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	status, err := h.service.GetStatus(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err, "Failed to load evaluation status")
	}

	return response.Success(c, status)
}

// MyEvaluations handles GET /api/v1/evaluations/mine
func (h *EvaluationHandler) MyEvaluations(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	evaluations, err := h.service.ListByUser(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err, "Failed to load evaluations")
	}

	return response.Success(c, evaluations)
}

// EvaluationDetailResponse bundles an evaluation with its per-question rows
type EvaluationDetailResponse struct {
	Evaluation *model.Evaluation        `json:"avaliacao"`
	Answers    []model.EvaluationAnswer `json:"respostas"`
}

// GetDetails handles GET /api/v1/evaluations/:id
func (h *EvaluationHandler) GetDetails(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid evaluation id")
	}

	evaluation, answers, err := h.service.GetDetails(c.Context(), user, uint(id))
	if err != nil {
		return response.FromError(c, err, "Failed to load evaluation")
	}

	return response.Success(c, EvaluationDetailResponse{
		Evaluation: evaluation,
		Answers:    answers,
	})
}

// ListFiltered handles GET /api/v1/admin/evaluations
func (h *EvaluationHandler) ListFiltered(c *fiber.Ctx) error {
	filter := services.EvaluationFilter{}

	if v, err := strconv.ParseUint(c.Query("instituicao_id"), 10, 32); err == nil {
		filter.InstitutionID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("curso_id"), 10, 32); err == nil {
		filter.CourseID = uint(v)
	}
	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	filter.Page, _ = strconv.Atoi(c.Query("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))

	evaluations, total, err := h.service.ListFiltered(c.Context(), filter)
	if err != nil {
		return response.FromError(c, err, "Failed to load evaluations")
	}

	pagination := response.CalculatePagination(filter.Page, filter.Limit, total)
	return response.Paginated(c, evaluations, pagination)
}
