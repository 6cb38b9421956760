package admin

import (
	"strconv"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/middleware"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserAdminHandler exposes admin user management
type UserAdminHandler struct {
	db *gorm.DB
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(db *gorm.DB) *UserAdminHandler {
	return &UserAdminHandler{
		db: db,
	}
}

// ListUsers handles GET /api/v1/admin/users
func (h *UserAdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search", "")
	locked := c.Query("locked", "")

	query := h.db.Model(&model.User{})

	if search != "" {
		query = query.Where("LOWER(nome) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)",
			"%"+search+"%", "%"+search+"%")
	}
	if locked == "true" {
		query = query.Where("is_active = ?", false)
	} else if locked == "false" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var users []model.User
	if err := query.
		Preload("Institution").
		Preload("Course").
		Order("criado_em DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, pagination)
}

// LockUser handles POST /api/v1/admin/users/:id/lock. Locking bumps the
// token version so existing sessions stop working immediately.
func (h *UserAdminHandler) LockUser(c *fiber.Ctx) error {
	admin, _ := middleware.GetUser(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var user model.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if admin != nil && admin.ID == user.ID {
		return response.BadRequest(c, "You cannot lock your own account")
	}
	if !user.IsActive {
		return response.Conflict(c, "Account is already locked")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"is_active":     false,
		"token_version": gorm.Expr("token_version + 1"),
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to lock user")
	}

	return response.SuccessWithMessage(c, "Account locked", nil)
}

// UnlockUser handles POST /api/v1/admin/users/:id/unlock, a direct admin
// override that skips the request/approve/redeem flow.
func (h *UserAdminHandler) UnlockUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var user model.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if user.IsActive {
		return response.Conflict(c, "Account is not locked")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"is_active":       true,
		"desbloqueado_em": gorm.Expr("CURRENT_TIMESTAMP"),
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to unlock user")
	}

	return response.SuccessWithMessage(c, "Account unlocked", nil)
}

// ListAutoCreatedEntities handles GET /api/v1/admin/auto-created, the review
// queue of directory entries created implicitly by registrations and
// submissions.
func (h *UserAdminHandler) ListAutoCreatedEntities(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	entityType := c.Query("type", "")

	query := h.db.Model(&model.AutoCreatedEntity{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count entries")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var entries []model.AutoCreatedEntity
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch entries")
	}

	return response.Paginated(c, entries, pagination)
}
