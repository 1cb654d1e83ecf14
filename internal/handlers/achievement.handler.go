package handlers

import (
	"tunescore/internal/app"
	achievementController "tunescore/internal/controllers/achievements"
	"tunescore/internal/handlers/middleware"
	"tunescore/internal/logger"
	"tunescore/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AchievementHandler struct {
	Handler
	sessionService        *services.SessionService
	achievementController achievementController.AchievementControllerInterface
}

func NewAchievementHandler(app app.App, router fiber.Router) *AchievementHandler {
	log := logger.New("handlers").File("achievement_handler")
	return &AchievementHandler{
		sessionService:        app.SessionService,
		achievementController: app.Controllers.Achievement,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AchievementHandler) Register() {
	achievements := h.router.Group("/achievements", h.middleware.RequireAuth(h.sessionService))

	achievements.Get("/", h.getUserAchievements)
}

func (h *AchievementHandler) getUserAchievements(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	achievements, err := h.achievementController.GetUserAchievements(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"achievements": achievements,
	})
}
