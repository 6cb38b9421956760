package analysis

import (
	"strconv"
	"time"

	"github.com/avaliaedu/portal/services"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
)

// AnalysisHandler exposes the admin evaluation analytics report
type AnalysisHandler struct {
	service *services.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
	}
}

// GetReport handles GET /api/v1/admin/analysis. Defaults to the last 30
// days when no period is given.
func (h *AnalysisHandler) GetReport(c *fiber.Ctx) error {
	req := services.AnalysisRequest{}

	if v, err := strconv.ParseUint(c.Query("instituicao_id"), 10, 32); err == nil {
		req.InstitutionID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("curso_id"), 10, 32); err == nil {
		req.CourseID = uint(v)
	}

	now := time.Now()
	req.From = now.AddDate(0, 0, -30)
	req.To = now

	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		req.From = from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		req.To = to.Add(24*time.Hour - time.Nanosecond)
	}

	report, err := h.service.Analyze(c.Context(), req)
	if err != nil {
		return response.FromError(c, err, "Failed to build analysis report")
	}

	return response.Success(c, report)
}
