package handlers

import (
	"tunescore/internal/app"
	collectionController "tunescore/internal/controllers/collection"
	"tunescore/internal/handlers/middleware"
	"tunescore/internal/logger"
	"tunescore/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CollectionHandler struct {
	Handler
	sessionService       *services.SessionService
	collectionController collectionController.CollectionControllerInterface
}

func NewCollectionHandler(app app.App, router fiber.Router) *CollectionHandler {
	log := logger.New("handlers").File("collection_handler")
	return &CollectionHandler{
		sessionService:       app.SessionService,
		collectionController: app.Controllers.Collection,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CollectionHandler) Register() {
	requireAuth := h.middleware.RequireAuth(h.sessionService)

	h.router.Get("/collection", requireAuth, h.getCollection)
	h.router.Get("/stats", requireAuth, h.getStats)
}

func (h *CollectionHandler) getCollection(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	collection, err := h.collectionController.GetCollection(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(collection)
}

func (h *CollectionHandler) getStats(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	stats, err := h.collectionController.GetStats(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stats)
}
