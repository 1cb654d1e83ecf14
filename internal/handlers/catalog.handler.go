package handlers

import (
	"strconv"
	"tunescore/internal/app"
	"tunescore/internal/logger"
	"tunescore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler proxies catalog browsing through the server so the
// client never holds catalog credentials
type CatalogHandler struct {
	Handler
	sessionService *services.SessionService
	catalogService *services.CatalogService
}

func NewCatalogHandler(app app.App, router fiber.Router) *CatalogHandler {
	log := logger.New("handlers").File("catalog_handler")
	return &CatalogHandler{
		sessionService: app.SessionService,
		catalogService: app.CatalogService,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CatalogHandler) Register() {
	catalog := h.router.Group("/catalog", h.middleware.RequireAuth(h.sessionService))

	catalog.Get("/search", h.searchArtists)
	catalog.Get("/artists/:artistId", h.getArtist)
	catalog.Get("/artists/:artistId/albums", h.getArtistAlbums)
	catalog.Get("/albums/:albumId", h.getAlbum)
	catalog.Get("/albums/:albumId/tracks", h.getAlbumTracks)
	catalog.Get("/tracks/:trackId", h.getTrack)
}

func (h *CatalogHandler) searchArtists(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	artists, err := h.catalogService.SearchArtists(c.UserContext(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Catalog lookup failed",
		})
	}

	return c.JSON(fiber.Map{
		"artists": artists,
	})
}

func (h *CatalogHandler) getArtist(c *fiber.Ctx) error {
	artist, err := h.catalogService.GetArtist(c.UserContext(), c.Params("artistId"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Catalog lookup failed",
		})
	}

	return c.JSON(fiber.Map{
		"artist": artist,
	})
}

func (h *CatalogHandler) getArtistAlbums(c *fiber.Ctx) error {
	albums, err := h.catalogService.GetArtistAlbums(c.UserContext(), c.Params("artistId"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Catalog lookup failed",
		})
	}

	return c.JSON(fiber.Map{
		"albums": albums,
	})
}

func (h *CatalogHandler) getAlbum(c *fiber.Ctx) error {
	album, err := h.catalogService.GetAlbum(c.UserContext(), c.Params("albumId"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Catalog lookup failed",
		})
	}

	return c.JSON(fiber.Map{
		"album": album,
	})
}

func (h *CatalogHandler) getAlbumTracks(c *fiber.Ctx) error {
	tracks, err := h.catalogService.GetAlbumTracks(c.UserContext(), c.Params("albumId"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Catalog lookup failed",
		})
	}

	return c.JSON(fiber.Map{
		"tracks": tracks,
	})
}

func (h *CatalogHandler) getTrack(c *fiber.Ctx) error {
	track, err := h.catalogService.GetTrack(c.UserContext(), c.Params("trackId"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Catalog lookup failed",
		})
	}

	return c.JSON(fiber.Map{
		"track": track,
	})
}
