package handlers

import (
	"tunescore/internal/app"
	ratingController "tunescore/internal/controllers/ratings"
	"tunescore/internal/handlers/middleware"
	"tunescore/internal/logger"
	"tunescore/internal/services"

	"github.com/gofiber/fiber/v2"
)

type RatingHandler struct {
	Handler
	sessionService   *services.SessionService
	ratingController ratingController.RatingControllerInterface
}

func NewRatingHandler(app app.App, router fiber.Router) *RatingHandler {
	log := logger.New("handlers").File("rating_handler")
	return &RatingHandler{
		sessionService:   app.SessionService,
		ratingController: app.Controllers.Rating,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *RatingHandler) Register() {
	ratings := h.router.Group("/ratings", h.middleware.RequireAuth(h.sessionService))

	ratings.Get("/", h.getRatings)
	ratings.Post("/", h.rateSong)
	ratings.Get("/albums/:albumId", h.getAlbumRatings)
	ratings.Put("/albums/:albumId", h.rateAlbum)
	ratings.Get("/albums/:albumId/rating", h.getAlbumRating)
}

func (h *RatingHandler) getRatings(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	ratings, err := h.ratingController.GetRatings(c.UserContext(), user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"ratings": ratings,
	})
}

func (h *RatingHandler) rateSong(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var request ratingController.RateSongRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rating, err := h.ratingController.RateSong(c.UserContext(), user, request)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"rating": rating,
	})
}

func (h *RatingHandler) getAlbumRatings(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	ratings, err := h.ratingController.GetAlbumRatings(c.UserContext(), user, c.Params("albumId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"ratings": ratings,
	})
}

func (h *RatingHandler) rateAlbum(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var request ratingController.RateAlbumRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	request.AlbumID = c.Params("albumId")

	rating, err := h.ratingController.RateAlbum(c.UserContext(), user, request)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"rating": rating,
	})
}

func (h *RatingHandler) getAlbumRating(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	rating, err := h.ratingController.GetAlbumRating(c.UserContext(), user, c.Params("albumId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"rating": rating,
	})
}
