package repositories

import (
	"context"
	"errors"
	"time"
	"tunescore/internal/database"
	"tunescore/internal/logger"
	. "tunescore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RATINGS_CACHE_PREFIX = "ratings"
	RATINGS_CACHE_EXPIRY = 24 * time.Hour

	// songRatingUpsertKey is the unique index the song upsert serializes on
	songRatingUpsertKey = "idx_song_ratings_user_song"
)

// lostFirstInsertRace reports whether a failed insert collided with a
// concurrent first-time insert of the same (user_id, song_id). That violation
// is the expected upsert key, so the write must be retried as an update;
// surfacing it would turn a last-write-wins race into a spurious conflict.
func lostFirstInsertRace(err error) bool {
	return isUniqueViolation(err, songRatingUpsertKey)
}

type RatingRepository interface {
	UpsertSongRating(ctx context.Context, tx *gorm.DB, rating *SongRating) (*SongRating, error)
	GetRatingsForUser(ctx context.Context, userID uuid.UUID) ([]SongRating, error)
	GetRatingsForAlbum(ctx context.Context, userID uuid.UUID, albumID string) ([]SongRating, error)
	CountRatingsForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountRatingsForAlbum(ctx context.Context, userID uuid.UUID, albumID string) (int64, error)
	UpsertAlbumRating(ctx context.Context, userID uuid.UUID, albumID string, rating int) (*AlbumRating, error)
	GetAlbumRating(ctx context.Context, userID uuid.UUID, albumID string) (*AlbumRating, error)
	GetActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	ClearUserRatingsCache(ctx context.Context, userID uuid.UUID)
}

type ratingRepository struct {
	db  database.DB
	log logger.Logger
}

func NewRatingRepository(db database.DB) RatingRepository {
	return &ratingRepository{
		db:  db,
		log: logger.New("ratingRepository"),
	}
}

// UpsertSongRating guarantees exactly one row for (user_id, song_id) with the
// newest rating value and refreshed metadata. It must run inside tx: the
// existing row is locked with SELECT ... FOR UPDATE, then the write branches
// insert/update. Two concurrent first-time inserts both miss the lock; the
// loser's create hits the unique index and is retried as an update against
// the winner's row, so the race resolves last-write-wins instead of failing.
// The caller owns cache invalidation, after the transaction commits: doing
// it here would let a concurrent read repopulate the cache with uncommitted
// rows.
func (r *ratingRepository) UpsertSongRating(
	ctx context.Context,
	tx *gorm.DB,
	rating *SongRating,
) (*SongRating, error) {
	log := r.log.Function("UpsertSongRating")

	var existing SongRating
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND song_id = ?", rating.UserID, rating.SongID).
		First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Savepoint so a failed insert does not abort the whole transaction;
		// Postgres refuses further statements after an error otherwise
		if err := tx.SavePoint("song_rating_insert").Error; err != nil {
			return nil, log.Err(
				"failed to create savepoint",
				normalizeStoreError(err),
				"userID", rating.UserID,
				"songID", rating.SongID,
			)
		}

		createErr := tx.WithContext(ctx).Create(rating).Error
		if createErr == nil {
			return rating, nil
		}

		if !lostFirstInsertRace(createErr) {
			return nil, log.Err(
				"failed to insert song rating",
				normalizeStoreError(createErr),
				"userID", rating.UserID,
				"songID", rating.SongID,
			)
		}

		// Another first-time insert committed between our lock attempt and
		// the create. Roll back to the savepoint, lock the winner's row, and
		// overwrite it below.
		log.Debug("song rating inserted concurrently, retrying as update",
			"userID", rating.UserID, "songID", rating.SongID)

		if err := tx.RollbackTo("song_rating_insert").Error; err != nil {
			return nil, log.Err(
				"failed to roll back to savepoint",
				normalizeStoreError(err),
				"userID", rating.UserID,
				"songID", rating.SongID,
			)
		}

		err = tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND song_id = ?", rating.UserID, rating.SongID).
			First(&existing).Error
		if err != nil {
			return nil, log.Err(
				"failed to lock song rating after insert race",
				normalizeStoreError(err),
				"userID", rating.UserID,
				"songID", rating.SongID,
			)
		}

	case err != nil:
		return nil, log.Err(
			"failed to lock song rating row",
			normalizeStoreError(err),
			"userID", rating.UserID,
			"songID", rating.SongID,
		)
	}

	updates := map[string]any{
		"rating":        rating.Rating,
		"album_id":      rating.AlbumID,
		"song_name":     rating.SongName,
		"album_name":    rating.AlbumName,
		"artist_name":   rating.ArtistName,
		"artist_id":     rating.ArtistID,
		"genre":         rating.Genre,
		"album_art_url": rating.AlbumArtURL,
	}

	if err := tx.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return nil, log.Err(
			"failed to update song rating",
			normalizeStoreError(err),
			"userID", rating.UserID,
			"songID", rating.SongID,
		)
	}

	return &existing, nil
}

// GetRatingsForUser returns the user's full rating history ordered by
// updated_at descending. Recent Activity depends on that ordering.
func (r *ratingRepository) GetRatingsForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]SongRating, error) {
	log := r.log.Function("GetRatingsForUser")

	var cached []SongRating
	found, err := database.NewCacheBuilder(r.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(RATINGS_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get ratings from cache", "userID", userID, "error", err)
	}

	if found {
		return cached, nil
	}

	var ratings []SongRating
	err = r.db.SQLWithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, log.Err("failed to get user ratings", normalizeStoreError(err), "userID", userID)
	}

	if err := database.NewCacheBuilder(r.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(RATINGS_CACHE_PREFIX).
		WithStruct(ratings).
		WithTTL(RATINGS_CACHE_EXPIRY).
		Set(); err != nil {
		log.Warn("failed to cache user ratings", "userID", userID, "error", err)
	}

	return ratings, nil
}

func (r *ratingRepository) GetRatingsForAlbum(
	ctx context.Context,
	userID uuid.UUID,
	albumID string,
) ([]SongRating, error) {
	log := r.log.Function("GetRatingsForAlbum")

	var ratings []SongRating
	err := r.db.SQLWithContext(ctx).
		Where("user_id = ? AND album_id = ?", userID, albumID).
		Find(&ratings).Error
	if err != nil {
		return nil, log.Err(
			"failed to get album ratings",
			normalizeStoreError(err),
			"userID", userID,
			"albumID", albumID,
		)
	}

	return ratings, nil
}

func (r *ratingRepository) CountRatingsForUser(
	ctx context.Context,
	userID uuid.UUID,
) (int64, error) {
	var count int64
	err := r.db.SQLWithContext(ctx).
		Model(&SongRating{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, normalizeStoreError(err)
	}

	return count, nil
}

func (r *ratingRepository) CountRatingsForAlbum(
	ctx context.Context,
	userID uuid.UUID,
	albumID string,
) (int64, error) {
	var count int64
	err := r.db.SQLWithContext(ctx).
		Model(&SongRating{}).
		Where("user_id = ? AND album_id = ?", userID, albumID).
		Count(&count).Error
	if err != nil {
		return 0, normalizeStoreError(err)
	}

	return count, nil
}

// UpsertAlbumRating uses a native ON CONFLICT upsert; album ratings carry no
// denormalized metadata so there is nothing to merge beyond the score
func (r *ratingRepository) UpsertAlbumRating(
	ctx context.Context,
	userID uuid.UUID,
	albumID string,
	rating int,
) (*AlbumRating, error) {
	log := r.log.Function("UpsertAlbumRating")

	albumRating := &AlbumRating{
		UserID:  userID,
		AlbumID: albumID,
		Rating:  rating,
	}

	err := r.db.SQLWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "album_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(albumRating).Error
	if err != nil {
		return nil, log.Err(
			"failed to upsert album rating",
			normalizeStoreError(err),
			"userID", userID,
			"albumID", albumID,
		)
	}

	return albumRating, nil
}

func (r *ratingRepository) GetAlbumRating(
	ctx context.Context,
	userID uuid.UUID,
	albumID string,
) (*AlbumRating, error) {
	var albumRating AlbumRating
	err := r.db.SQLWithContext(ctx).
		Where("user_id = ? AND album_id = ?", userID, albumID).
		First(&albumRating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, normalizeStoreError(err)
	}

	return &albumRating, nil
}

// GetActiveUserIDs lists users who touched a rating since the given time;
// the stats warmup job uses this to bound its nightly pass
func (r *ratingRepository) GetActiveUserIDs(
	ctx context.Context,
	since time.Time,
) ([]uuid.UUID, error) {
	log := r.log.Function("GetActiveUserIDs")

	var userIDs []uuid.UUID
	err := r.db.SQLWithContext(ctx).
		Model(&SongRating{}).
		Distinct("user_id").
		Where("updated_at >= ?", since).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, log.Err("failed to list active users", normalizeStoreError(err), "since", since)
	}

	return userIDs, nil
}

func (r *ratingRepository) ClearUserRatingsCache(ctx context.Context, userID uuid.UUID) {
	err := database.NewCacheBuilder(r.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(RATINGS_CACHE_PREFIX).
		Delete()
	if err != nil {
		r.log.Warn("failed to clear user ratings cache", "userID", userID, "error", err)
	}
}
