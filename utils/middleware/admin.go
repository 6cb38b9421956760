package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireAdmin middleware ensures the authenticated user has the admin role
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok || user == nil {
			return response.Unauthorized(c, "Authentication required")
		}

		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}

		// Store admin user in context for audit logging
		c.Locals("adminUser", user)

		return c.Next()
	}
}

// AdminAuditLog creates an audit log entry for admin actions
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminUser, ok := c.Locals("adminUser").(*model.User)
		if !ok {
			return c.Next() // Continue without logging if user not found
		}

		// Parse resource ID from params if available
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		// Capture request body for change tracking
		var newValue interface{}
		if c.Method() == "POST" || c.Method() == "PUT" {
			body := c.Body()
			if len(body) > 0 {
				json.Unmarshal(body, &newValue)
			}
		}

		// Execute the actual handler
		err := c.Next()

		newValueJSON, _ := json.Marshal(newValue)

		auditLog := model.AdminAuditLog{
			AdminID:     adminUser.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    string(newValueJSON),
			IPAddress:   c.IP(),
			UserAgent:   c.Get("User-Agent"),
			Description: c.Method() + " " + c.Path(),
		}

		db.Create(&auditLog)

		return err
	}
}
