package handlers

import (
	"errors"
	"tunescore/internal/app"
	ratingController "tunescore/internal/controllers/ratings"
	userController "tunescore/internal/controllers/users"
	"tunescore/internal/handlers/middleware"
	"tunescore/internal/logger"
	"tunescore/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewUserHandler(*app, api).Register()
	NewRatingHandler(*app, api).Register()
	NewCollectionHandler(*app, api).Register()
	NewAchievementHandler(*app, api).Register()
	NewCatalogHandler(*app, api).Register()

	return nil
}

// respondError translates the store and validation error taxonomy into HTTP
// responses. Schema provisioning failures get a distinct, actionable message
// since the fix is an operator action, not a retry.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ratingController.ErrValidation),
		errors.Is(err, userController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, ratingController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	case errors.Is(err, repositories.ErrSchemaNotProvisioned):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Database schema is not provisioned. Run the migration command to set up tables.",
		})
	case errors.Is(err, repositories.ErrStoreConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Write conflict, please retry",
		})
	case errors.Is(err, repositories.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Storage is temporarily unavailable",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
