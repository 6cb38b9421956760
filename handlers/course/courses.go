package course

import (
	"strconv"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseHandler handles course directory requests
type CourseHandler struct {
	db *gorm.DB
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db: db,
	}
}

// CourseListItem is a course plus its aggregate evaluation stats
type CourseListItem struct {
	model.Course
	AverageScore    *float64 `json:"media_geral"`
	EvaluationCount int64    `json:"total_avaliacoes"`
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")
	institutionID := c.Query("instituicao_id", "")

	query := h.db.Model(&model.Course{}).Where(`"Cursos".is_active = ?`, true)

	if search != "" {
		query = query.Where("LOWER(nome) LIKE LOWER(?)", "%"+search+"%")
	}
	if institutionID != "" {
		query = query.Where("instituicao_id = ?", institutionID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var items []CourseListItem
	err := query.
		Select(`"Cursos".*,
			(SELECT AVG(media_final) FROM "Avaliacoes" WHERE curso_id = "Cursos".id) AS average_score,
			(SELECT COUNT(*) FROM "Avaliacoes" WHERE curso_id = "Cursos".id) AS evaluation_count`).
		Order("nome ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, items, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var item CourseListItem
	err := h.db.Model(&model.Course{}).
		Select(`"Cursos".*,
			(SELECT AVG(media_final) FROM "Avaliacoes" WHERE curso_id = "Cursos".id) AS average_score,
			(SELECT COUNT(*) FROM "Avaliacoes" WHERE curso_id = "Cursos".id) AS evaluation_count`).
		Where(`"Cursos".id = ?`, id).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var institution model.Institution
	if err := h.db.First(&institution, item.InstitutionID).Error; err == nil {
		item.Institution = institution
	}

	return response.Success(c, item)
}
