package institution

import (
	"math"
	"sort"
	"strconv"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/avaliaedu/portal/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// InstitutionHandler handles institution directory requests
type InstitutionHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewInstitutionHandler creates a new institution handler
func NewInstitutionHandler(db *gorm.DB) *InstitutionHandler {
	return &InstitutionHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// InstitutionListItem is an institution plus its aggregate evaluation stats
type InstitutionListItem struct {
	model.Institution
	AverageScore    *float64 `json:"media_geral"`
	EvaluationCount int64    `json:"total_avaliacoes"`
}

// ListInstitutions handles GET /api/v1/institutions
func (h *InstitutionHandler) ListInstitutions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")
	state := c.Query("estado", "")

	query := h.db.Model(&model.Institution{}).Where("is_active = ?", true)

	if search != "" {
		query = query.Where("LOWER(nome) LIKE LOWER(?) OR LOWER(cidade) LIKE LOWER(?)",
			"%"+search+"%", "%"+search+"%")
	}
	if state != "" {
		query = query.Where("LOWER(estado) = LOWER(?)", state)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count institutions")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var items []InstitutionListItem
	err := query.
		Select(`"Instituicoes".*,
			(SELECT AVG(media_final) FROM "Avaliacoes" WHERE instituicao_id = "Instituicoes".id) AS average_score,
			(SELECT COUNT(*) FROM "Avaliacoes" WHERE instituicao_id = "Instituicoes".id) AS evaluation_count`).
		Order("nome ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch institutions")
	}

	return response.Paginated(c, items, pagination)
}

// GetInstitution handles GET /api/v1/institutions/:id
func (h *InstitutionHandler) GetInstitution(c *fiber.Ctx) error {
	id := c.Params("id")

	var item InstitutionListItem
	err := h.db.Model(&model.Institution{}).
		Select(`"Instituicoes".*,
			(SELECT AVG(media_final) FROM "Avaliacoes" WHERE instituicao_id = "Instituicoes".id) AS average_score,
			(SELECT COUNT(*) FROM "Avaliacoes" WHERE instituicao_id = "Instituicoes".id) AS evaluation_count`).
		Where(`"Instituicoes".id = ?`, id).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Institution not found")
		}
		return response.InternalServerError(c, "Failed to fetch institution")
	}

	var courses []model.Course
	if err := h.db.Where("instituicao_id = ? AND is_active = ?", item.ID, true).
		Order("nome ASC").Find(&courses).Error; err == nil {
		item.Courses = courses
	}

	return response.Success(c, item)
}

// NearbyInstitution is an institution annotated with its distance from the
// query point
type NearbyInstitution struct {
	model.Institution
	DistanceKm float64 `json:"distancia_km"`
}

// NearbyInstitutions handles GET /api/v1/institutions/nearby
func (h *InstitutionHandler) NearbyInstitutions(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		return response.BadRequest(c, "lat and lon query parameters are required")
	}

	radiusKm, err := strconv.ParseFloat(c.Query("radius_km", "50"), 64)
	if err != nil || radiusKm <= 0 {
		radiusKm = 50
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var institutions []model.Institution
	if err := h.db.
		Where("is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&institutions).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch institutions")
	}

	nearby := make([]NearbyInstitution, 0, len(institutions))
	for _, inst := range institutions {
		d := haversineKm(lat, lon, *inst.Latitude, *inst.Longitude)
		if d <= radiusKm {
			nearby = append(nearby, NearbyInstitution{Institution: inst, DistanceKm: d})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}

	return response.Success(c, nearby)
}

// haversineKm is the great-circle distance between two points in kilometers
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
