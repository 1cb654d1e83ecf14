package handlers

import (
	"tunescore/internal/app"
	userController "tunescore/internal/controllers/users"
	"tunescore/internal/handlers/middleware"
	"tunescore/internal/logger"
	"tunescore/internal/services"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	sessionService *services.SessionService
	userController userController.UserControllerInterface
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	log := logger.New("handlers").File("user_handler")
	return &UserHandler{
		sessionService: app.SessionService,
		userController: app.Controllers.User,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users")

	protected := users.Group("/", h.middleware.RequireAuth(h.sessionService))
	protected.Get("/me", h.getCurrentUser)
	protected.Get("/me/preferences", h.getPreferences)
	protected.Put("/me/preferences", h.updatePreferences)
}

// getCurrentUser returns information about the currently authenticated user
func (h *UserHandler) getCurrentUser(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	profile, err := h.userController.GetProfile(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": profile,
	})
}

func (h *UserHandler) getPreferences(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	prefs, err := h.userController.GetPreferences(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"preferences": prefs,
	})
}

func (h *UserHandler) updatePreferences(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var request userController.UpdatePreferencesRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	prefs, err := h.userController.UpdatePreferences(c.UserContext(), user, request)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"preferences": prefs,
	})
}
