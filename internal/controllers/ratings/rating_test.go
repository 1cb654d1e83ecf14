package ratingController

import (
	"context"
	"errors"
	"testing"
	"time"
	. "tunescore/internal/models"
	"tunescore/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRatingRepo struct {
	saved        *SongRating
	rows         map[string]*SongRating
	savedAlbum   *AlbumRating
	upsertErr    error
	albumRatings map[string]*AlbumRating

	cacheClears           int
	cacheClearedAfterSave bool
}

func (f *fakeRatingRepo) UpsertSongRating(ctx context.Context, tx *gorm.DB, rating *SongRating) (*SongRating, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if f.rows == nil {
		f.rows = make(map[string]*SongRating)
	}
	f.rows[rating.UserID.String()+"|"+rating.SongID] = rating
	f.saved = rating
	return rating, nil
}

func (f *fakeRatingRepo) GetRatingsForUser(ctx context.Context, userID uuid.UUID) ([]SongRating, error) {
	if f.saved == nil {
		return []SongRating{}, nil
	}
	return []SongRating{*f.saved}, nil
}

func (f *fakeRatingRepo) GetRatingsForAlbum(ctx context.Context, userID uuid.UUID, albumID string) ([]SongRating, error) {
	if f.saved != nil && f.saved.AlbumID == albumID {
		return []SongRating{*f.saved}, nil
	}
	return []SongRating{}, nil
}

func (f *fakeRatingRepo) CountRatingsForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRatingRepo) CountRatingsForAlbum(ctx context.Context, userID uuid.UUID, albumID string) (int64, error) {
	return 0, nil
}

func (f *fakeRatingRepo) UpsertAlbumRating(ctx context.Context, userID uuid.UUID, albumID string, rating int) (*AlbumRating, error) {
	f.savedAlbum = &AlbumRating{UserID: userID, AlbumID: albumID, Rating: rating}
	return f.savedAlbum, nil
}

func (f *fakeRatingRepo) GetAlbumRating(ctx context.Context, userID uuid.UUID, albumID string) (*AlbumRating, error) {
	if rating, ok := f.albumRatings[albumID]; ok {
		return rating, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRatingRepo) GetActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRatingRepo) ClearUserRatingsCache(ctx context.Context, userID uuid.UUID) {
	f.cacheClears++
	f.cacheClearedAfterSave = f.saved != nil
}

// fakeTransactionService runs the function without a real transaction; the
// repository fakes ignore tx anyway
type fakeTransactionService struct {
	executed bool
	beginErr error
}

func (f *fakeTransactionService) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.executed = true
	return fn(ctx, nil)
}

type fakeAlbumLookup struct {
	album *services.CatalogAlbum
	err   error
	calls int
}

func (f *fakeAlbumLookup) GetAlbum(ctx context.Context, albumID string) (*services.CatalogAlbum, error) {
	f.calls++
	return f.album, f.err
}

func newTestController(repo *fakeRatingRepo, tx *fakeTransactionService, catalog *fakeAlbumLookup) *RatingController {
	controller := &RatingController{
		ratingRepo:         repo,
		transactionService: tx,
	}
	if catalog != nil {
		controller.catalogService = catalog
	}
	return controller
}

func validRequest() RateSongRequest {
	return RateSongRequest{
		SongID:     "s1",
		AlbumID:    "al1",
		Rating:     8,
		SongName:   "Opener",
		AlbumName:  "Debut",
		ArtistName: "The Originals",
		ArtistID:   "A1",
		Genre:      "rock",
	}
}

func TestRateSongValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RateSongRequest)
		wantErr bool
	}{
		{"valid request", func(r *RateSongRequest) {}, false},
		{"missing song id", func(r *RateSongRequest) { r.SongID = "" }, true},
		{"missing album id", func(r *RateSongRequest) { r.AlbumID = "" }, true},
		{"rating of zero", func(r *RateSongRequest) { r.Rating = 0 }, true},
		{"rating of eleven", func(r *RateSongRequest) { r.Rating = 11 }, true},
		{"negative rating", func(r *RateSongRequest) { r.Rating = -3 }, true},
		{"boundary rating one", func(r *RateSongRequest) { r.Rating = 1 }, false},
		{"boundary rating ten", func(r *RateSongRequest) { r.Rating = 10 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRatingRepo{}
			controller := newTestController(repo, &fakeTransactionService{}, nil)

			request := validRequest()
			tt.mutate(&request)

			_, err := controller.RateSong(context.Background(), &User{ID: uuid.New()}, request)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, repo.saved, "invalid request must not reach the store")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRateSongSavesInsideTransaction(t *testing.T) {
	repo := &fakeRatingRepo{}
	tx := &fakeTransactionService{}
	controller := newTestController(repo, tx, nil)
	user := &User{ID: uuid.New()}

	saved, err := controller.RateSong(context.Background(), user, validRequest())
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.True(t, tx.executed)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, "s1", saved.SongID)
	assert.Equal(t, 8, saved.Rating)
	assert.Equal(t, "The Originals", saved.ArtistName)
}

func TestRateSongTwiceKeepsOneRowWithSecondScore(t *testing.T) {
	repo := &fakeRatingRepo{}
	controller := newTestController(repo, &fakeTransactionService{}, nil)
	user := &User{ID: uuid.New()}

	first := validRequest()
	first.Rating = 4
	_, err := controller.RateSong(context.Background(), user, first)
	require.NoError(t, err)

	second := validRequest()
	second.Rating = 9
	second.Genre = "prog rock"
	saved, err := controller.RateSong(context.Background(), user, second)
	require.NoError(t, err)

	assert.Len(t, repo.rows, 1, "re-rating the same song must not create a second row")
	assert.Equal(t, 9, saved.Rating)
	assert.Equal(t, "prog rock", saved.Genre, "metadata refreshes with the overwrite")
}

func TestRateSongClearsCacheAfterSave(t *testing.T) {
	repo := &fakeRatingRepo{}
	controller := newTestController(repo, &fakeTransactionService{}, nil)

	_, err := controller.RateSong(context.Background(), &User{ID: uuid.New()}, validRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.cacheClears)
	assert.True(t, repo.cacheClearedAfterSave, "invalidation runs after the write, not inside it")
}

func TestRateSongFailedSaveLeavesCacheAlone(t *testing.T) {
	repo := &fakeRatingRepo{upsertErr: errors.New("store is down")}
	controller := newTestController(repo, &fakeTransactionService{}, nil)

	_, err := controller.RateSong(context.Background(), &User{ID: uuid.New()}, validRequest())
	require.Error(t, err)

	assert.Equal(t, 0, repo.cacheClears)
}

func TestRateSongPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("store is down")
	repo := &fakeRatingRepo{upsertErr: storeErr}
	controller := newTestController(repo, &fakeTransactionService{}, nil)

	_, err := controller.RateSong(context.Background(), &User{ID: uuid.New()}, validRequest())
	assert.ErrorIs(t, err, storeErr)
}

func TestPublishRatingSavedFallsBackToCatalogForTrackTotal(t *testing.T) {
	catalog := &fakeAlbumLookup{album: &services.CatalogAlbum{ID: "al1", TotalTracks: 12}}
	controller := newTestController(&fakeRatingRepo{}, &fakeTransactionService{}, catalog)

	userID := uuid.New()
	rating := &SongRating{UserID: userID, SongID: "s1", AlbumID: "al1", Rating: 8}

	// Client sent no total: the catalog fills it in
	controller.publishRatingSaved(context.Background(), userID, rating, 0)
	assert.Equal(t, 1, catalog.calls)

	// Client supplied the total: no catalog call
	controller.publishRatingSaved(context.Background(), userID, rating, 12)
	assert.Equal(t, 1, catalog.calls)
}

func TestPublishRatingSavedSurvivesCatalogFailure(t *testing.T) {
	catalog := &fakeAlbumLookup{err: errors.New("catalog unavailable")}
	controller := newTestController(&fakeRatingRepo{}, &fakeTransactionService{}, catalog)

	userID := uuid.New()
	rating := &SongRating{UserID: userID, SongID: "s1", AlbumID: "al1", Rating: 8}

	assert.NotPanics(t, func() {
		controller.publishRatingSaved(context.Background(), userID, rating, 0)
	})
}

func TestRateAlbumValidation(t *testing.T) {
	controller := newTestController(&fakeRatingRepo{}, &fakeTransactionService{}, nil)
	user := &User{ID: uuid.New()}

	_, err := controller.RateAlbum(context.Background(), user, RateAlbumRequest{AlbumID: "", Rating: 5})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = controller.RateAlbum(context.Background(), user, RateAlbumRequest{AlbumID: "al1", Rating: 0})
	assert.ErrorIs(t, err, ErrValidation)

	saved, err := controller.RateAlbum(context.Background(), user, RateAlbumRequest{AlbumID: "al1", Rating: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, saved.Rating)
}

func TestGetAlbumRatingNotFound(t *testing.T) {
	controller := newTestController(&fakeRatingRepo{}, &fakeTransactionService{}, nil)

	_, err := controller.GetAlbumRating(context.Background(), &User{ID: uuid.New()}, "al-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRatings(t *testing.T) {
	repo := &fakeRatingRepo{}
	controller := newTestController(repo, &fakeTransactionService{}, nil)
	user := &User{ID: uuid.New()}

	_, err := controller.RateSong(context.Background(), user, validRequest())
	require.NoError(t, err)

	ratings, err := controller.GetRatings(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, "s1", ratings[0].SongID)
}
