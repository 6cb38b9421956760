package handlers

import (
	"github.com/avaliaedu/portal/database"
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth reports process liveness and database reachability
func HandleCheckHealth(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
