package ratingController

import (
	"context"
	"errors"
	"tunescore/internal/events"
	"tunescore/internal/logger"
	. "tunescore/internal/models"
	"tunescore/internal/repositories"
	"tunescore/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// RateSongRequest is the payload for saving a song rating. Catalog metadata
// rides along denormalized so collection views never need a catalog call.
type RateSongRequest struct {
	SongID             string `json:"songId"`
	AlbumID            string `json:"albumId"`
	Rating             int    `json:"rating"`
	SongName           string `json:"songName"`
	AlbumName          string `json:"albumName"`
	ArtistName         string `json:"artistName"`
	ArtistID           string `json:"artistId"`
	Genre              string `json:"genre"`
	AlbumArtURL        string `json:"albumArtUrl"`
	TotalTracksInAlbum int    `json:"totalTracksInAlbum"`
}

type RateAlbumRequest struct {
	AlbumID string `json:"albumId"`
	Rating  int    `json:"rating"`
}

type transactionExecutor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type albumLookup interface {
	GetAlbum(ctx context.Context, albumID string) (*services.CatalogAlbum, error)
}

type RatingControllerInterface interface {
	RateSong(ctx context.Context, user *User, request RateSongRequest) (*SongRating, error)
	GetRatings(ctx context.Context, user *User) ([]SongRating, error)
	GetAlbumRatings(ctx context.Context, user *User, albumID string) ([]SongRating, error)
	RateAlbum(ctx context.Context, user *User, request RateAlbumRequest) (*AlbumRating, error)
	GetAlbumRating(ctx context.Context, user *User, albumID string) (*AlbumRating, error)
}

type RatingController struct {
	ratingRepo         repositories.RatingRepository
	transactionService transactionExecutor
	catalogService     albumLookup
	eventBus           *events.EventBus
}

func New(
	repos repositories.Repository,
	transactionService *services.TransactionService,
	catalogService *services.CatalogService,
	eventBus *events.EventBus,
) RatingControllerInterface {
	return &RatingController{
		ratingRepo:         repos.Rating,
		transactionService: transactionService,
		catalogService:     catalogService,
		eventBus:           eventBus,
	}
}

func validateRateSongRequest(request RateSongRequest) error {
	if request.SongID == "" {
		return errors.Join(ErrValidation, errors.New("songId is required"))
	}
	if request.AlbumID == "" {
		return errors.Join(ErrValidation, errors.New("albumId is required"))
	}
	if request.Rating < 1 || request.Rating > 10 {
		return errors.Join(ErrValidation, errors.New("rating must be between 1 and 10"))
	}
	return nil
}

// RateSong saves or replaces the user's rating for a song inside a single
// transaction, then publishes the saved rating for achievement evaluation.
// The publish happens strictly after commit and cannot fail the save.
func (c *RatingController) RateSong(
	ctx context.Context,
	user *User,
	request RateSongRequest,
) (*SongRating, error) {
	log := logger.NewWithContext(ctx, "ratingController").Function("RateSong")

	if err := validateRateSongRequest(request); err != nil {
		return nil, err
	}

	rating := &SongRating{
		UserID:      user.ID,
		SongID:      request.SongID,
		AlbumID:     request.AlbumID,
		Rating:      request.Rating,
		SongName:    request.SongName,
		AlbumName:   request.AlbumName,
		ArtistName:  request.ArtistName,
		ArtistID:    request.ArtistID,
		Genre:       request.Genre,
		AlbumArtURL: request.AlbumArtURL,
	}

	var saved *SongRating
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var txErr error
		saved, txErr = c.ratingRepo.UpsertSongRating(ctx, tx, rating)
		return txErr
	})
	if err != nil {
		return nil, log.Err("failed to save song rating", err, "userID", user.ID, "songID", request.SongID)
	}

	// Invalidate strictly after commit; a clear inside the transaction could
	// be repopulated by a concurrent read with rows that never commit
	c.ratingRepo.ClearUserRatingsCache(ctx, user.ID)

	c.publishRatingSaved(ctx, user.ID, saved, request.TotalTracksInAlbum)

	return saved, nil
}

// publishRatingSaved fires the post-commit event that drives achievement
// evaluation. When the client did not send the album's track total, a
// best-effort catalog lookup fills it in so album_master still has a chance.
func (c *RatingController) publishRatingSaved(
	ctx context.Context,
	userID uuid.UUID,
	rating *SongRating,
	totalTracksInAlbum int,
) {
	log := logger.NewWithContext(ctx, "ratingController").Function("publishRatingSaved")

	if c.eventBus == nil {
		return
	}

	if totalTracksInAlbum <= 0 && c.catalogService != nil && rating.AlbumID != "" {
		album, err := c.catalogService.GetAlbum(ctx, rating.AlbumID)
		if err != nil {
			log.Warn("album track total lookup failed", "albumID", rating.AlbumID, "error", err)
		} else {
			totalTracksInAlbum = album.TotalTracks
		}
	}

	err := c.eventBus.Publish(events.RATING_SAVED_CHANNEL, events.Event{
		UserID: &userID,
		Data: map[string]any{
			"songId":             rating.SongID,
			"albumId":            rating.AlbumID,
			"rating":             rating.Rating,
			"totalTracksInAlbum": totalTracksInAlbum,
		},
	})
	if err != nil {
		log.Warn("failed to publish rating saved event", "userID", userID, "error", err)
	}
}

func (c *RatingController) GetRatings(ctx context.Context, user *User) ([]SongRating, error) {
	log := logger.NewWithContext(ctx, "ratingController").Function("GetRatings")

	ratings, err := c.ratingRepo.GetRatingsForUser(ctx, user.ID)
	if err != nil {
		return nil, log.Err("failed to get ratings", err, "userID", user.ID)
	}

	return ratings, nil
}

func (c *RatingController) GetAlbumRatings(
	ctx context.Context,
	user *User,
	albumID string,
) ([]SongRating, error) {
	log := logger.NewWithContext(ctx, "ratingController").Function("GetAlbumRatings")

	if albumID == "" {
		return nil, errors.Join(ErrValidation, errors.New("albumId is required"))
	}

	ratings, err := c.ratingRepo.GetRatingsForAlbum(ctx, user.ID, albumID)
	if err != nil {
		return nil, log.Err("failed to get album ratings", err, "userID", user.ID, "albumID", albumID)
	}

	return ratings, nil
}

func (c *RatingController) RateAlbum(
	ctx context.Context,
	user *User,
	request RateAlbumRequest,
) (*AlbumRating, error) {
	log := logger.NewWithContext(ctx, "ratingController").Function("RateAlbum")

	if request.AlbumID == "" {
		return nil, errors.Join(ErrValidation, errors.New("albumId is required"))
	}
	if request.Rating < 1 || request.Rating > 10 {
		return nil, errors.Join(ErrValidation, errors.New("rating must be between 1 and 10"))
	}

	albumRating, err := c.ratingRepo.UpsertAlbumRating(ctx, user.ID, request.AlbumID, request.Rating)
	if err != nil {
		return nil, log.Err("failed to save album rating", err, "userID", user.ID, "albumID", request.AlbumID)
	}

	return albumRating, nil
}

func (c *RatingController) GetAlbumRating(
	ctx context.Context,
	user *User,
	albumID string,
) (*AlbumRating, error) {
	if albumID == "" {
		return nil, errors.Join(ErrValidation, errors.New("albumId is required"))
	}

	albumRating, err := c.ratingRepo.GetAlbumRating(ctx, user.ID, albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return albumRating, nil
}
