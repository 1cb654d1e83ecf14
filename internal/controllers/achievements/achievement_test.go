package achievementController

import (
	"context"
	"errors"
	"testing"
	"time"
	"tunescore/internal/logger"
	. "tunescore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAchievementRepo struct {
	catalog     []Achievement
	unlocks     map[string]time.Time
	unlocked    []string
	catalogErr  error
	unlocksErr  error
	unlockErr   error
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{unlocks: make(map[string]time.Time)}
}

func (f *fakeAchievementRepo) GetCatalog(ctx context.Context) ([]Achievement, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeAchievementRepo) GetUserUnlocks(ctx context.Context, userID uuid.UUID) ([]UserAchievement, error) {
	if f.unlocksErr != nil {
		return nil, f.unlocksErr
	}
	unlocks := make([]UserAchievement, 0, len(f.unlocks))
	for id, at := range f.unlocks {
		unlocks = append(unlocks, UserAchievement{UserID: userID, AchievementID: id, UnlockedAt: at})
	}
	return unlocks, nil
}

func (f *fakeAchievementRepo) Unlock(ctx context.Context, userID uuid.UUID, achievementID string) (bool, error) {
	if f.unlockErr != nil {
		return false, f.unlockErr
	}
	if _, ok := f.unlocks[achievementID]; ok {
		return false, nil
	}
	f.unlocks[achievementID] = time.Now()
	f.unlocked = append(f.unlocked, achievementID)
	return true, nil
}

type fakeRatingRepo struct {
	userCount     int64
	albumCounts   map[string]int64
	userCountErr  error
	albumCountErr error
}

func (f *fakeRatingRepo) UpsertSongRating(ctx context.Context, tx *gorm.DB, rating *SongRating) (*SongRating, error) {
	return rating, nil
}

func (f *fakeRatingRepo) GetRatingsForUser(ctx context.Context, userID uuid.UUID) ([]SongRating, error) {
	return nil, nil
}

func (f *fakeRatingRepo) GetRatingsForAlbum(ctx context.Context, userID uuid.UUID, albumID string) ([]SongRating, error) {
	return nil, nil
}

func (f *fakeRatingRepo) CountRatingsForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.userCount, f.userCountErr
}

func (f *fakeRatingRepo) CountRatingsForAlbum(ctx context.Context, userID uuid.UUID, albumID string) (int64, error) {
	if f.albumCountErr != nil {
		return 0, f.albumCountErr
	}
	return f.albumCounts[albumID], nil
}

func (f *fakeRatingRepo) UpsertAlbumRating(ctx context.Context, userID uuid.UUID, albumID string, rating int) (*AlbumRating, error) {
	return nil, nil
}

func (f *fakeRatingRepo) GetAlbumRating(ctx context.Context, userID uuid.UUID, albumID string) (*AlbumRating, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRatingRepo) GetActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRatingRepo) ClearUserRatingsCache(ctx context.Context, userID uuid.UUID) {}

func newTestController(
	achievementRepo *fakeAchievementRepo,
	ratingRepo *fakeRatingRepo,
	now func() time.Time,
) *AchievementController {
	if now == nil {
		now = func() time.Time {
			return time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
		}
	}
	return &AchievementController{
		achievementRepo: achievementRepo,
		ratingRepo:      ratingRepo,
		log:             logger.New("achievementController"),
		now:             now,
	}
}

func TestEvaluateAndUnlockFirstListen(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	ratingRepo := &fakeRatingRepo{userCount: 1}
	controller := newTestController(achievementRepo, ratingRepo, nil)

	controller.EvaluateAndUnlock(context.Background(), uuid.New(), 5, "", 0)

	assert.Contains(t, achievementRepo.unlocked, AchievementFirstListen)
	assert.NotContains(t, achievementRepo.unlocked, AchievementCritic)
	assert.NotContains(t, achievementRepo.unlocked, AchievementTopRater)
}

func TestEvaluateAndUnlockTopRaterOnlyOnTen(t *testing.T) {
	tests := []struct {
		name     string
		rating   int
		unlocked bool
	}{
		{"rating of 10 unlocks", 10, true},
		{"rating of 9 does not", 9, false},
		{"rating of 1 does not", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			achievementRepo := newFakeAchievementRepo()
			ratingRepo := &fakeRatingRepo{userCount: 1}
			controller := newTestController(achievementRepo, ratingRepo, nil)

			controller.EvaluateAndUnlock(context.Background(), uuid.New(), tt.rating, "", 0)

			if tt.unlocked {
				assert.Contains(t, achievementRepo.unlocked, AchievementTopRater)
			} else {
				assert.NotContains(t, achievementRepo.unlocked, AchievementTopRater)
			}
		})
	}
}

func TestEvaluateAndUnlockNightOwlWindow(t *testing.T) {
	tests := []struct {
		name     string
		hour     int
		unlocked bool
	}{
		{"midnight", 0, true},
		{"3am", 3, true},
		{"4:59 side of the window", 4, true},
		{"5am is out", 5, false},
		{"mid afternoon", 15, false},
		{"11pm", 23, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			achievementRepo := newFakeAchievementRepo()
			ratingRepo := &fakeRatingRepo{userCount: 1}
			now := func() time.Time {
				return time.Date(2024, 6, 1, tt.hour, 30, 0, 0, time.UTC)
			}
			controller := newTestController(achievementRepo, ratingRepo, now)

			controller.EvaluateAndUnlock(context.Background(), uuid.New(), 5, "", 0)

			if tt.unlocked {
				assert.Contains(t, achievementRepo.unlocked, AchievementNightOwl)
			} else {
				assert.NotContains(t, achievementRepo.unlocked, AchievementNightOwl)
			}
		})
	}
}

func TestEvaluateAndUnlockAlbumMaster(t *testing.T) {
	tests := []struct {
		name        string
		albumID     string
		totalTracks int
		albumCount  int64
		unlocked    bool
	}{
		{"all tracks rated", "al1", 12, 12, true},
		{"one track short", "al1", 12, 11, false},
		{"unknown track total skips the rule", "al1", 0, 12, false},
		{"no album id skips the rule", "", 12, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			achievementRepo := newFakeAchievementRepo()
			ratingRepo := &fakeRatingRepo{
				userCount:   5,
				albumCounts: map[string]int64{"al1": tt.albumCount},
			}
			controller := newTestController(achievementRepo, ratingRepo, nil)

			controller.EvaluateAndUnlock(context.Background(), uuid.New(), 7, tt.albumID, tt.totalTracks)

			if tt.unlocked {
				assert.Contains(t, achievementRepo.unlocked, AchievementAlbumMaster)
			} else {
				assert.NotContains(t, achievementRepo.unlocked, AchievementAlbumMaster)
			}
		})
	}
}

func TestEvaluateAndUnlockCriticThreshold(t *testing.T) {
	tests := []struct {
		name      string
		userCount int64
		unlocked  bool
	}{
		{"exactly at threshold", CriticThreshold, true},
		{"over threshold", CriticThreshold + 10, true},
		{"one under", CriticThreshold - 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			achievementRepo := newFakeAchievementRepo()
			ratingRepo := &fakeRatingRepo{userCount: tt.userCount}
			controller := newTestController(achievementRepo, ratingRepo, nil)

			controller.EvaluateAndUnlock(context.Background(), uuid.New(), 5, "", 0)

			if tt.unlocked {
				assert.Contains(t, achievementRepo.unlocked, AchievementCritic)
			} else {
				assert.NotContains(t, achievementRepo.unlocked, AchievementCritic)
			}
		})
	}
}

func TestEvaluateAndUnlockNeverUnlocksMarathon(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	ratingRepo := &fakeRatingRepo{userCount: 100, albumCounts: map[string]int64{"al1": 100}}
	now := func() time.Time {
		return time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	}
	controller := newTestController(achievementRepo, ratingRepo, now)

	controller.EvaluateAndUnlock(context.Background(), uuid.New(), 10, "al1", 10)

	assert.NotContains(t, achievementRepo.unlocked, AchievementMarathon)
}

func TestEvaluateAndUnlockSwallowsRepositoryErrors(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	achievementRepo.unlockErr = errors.New("store is down")
	ratingRepo := &fakeRatingRepo{
		userCountErr:  errors.New("store is down"),
		albumCountErr: errors.New("store is down"),
	}
	controller := newTestController(achievementRepo, ratingRepo, nil)

	assert.NotPanics(t, func() {
		controller.EvaluateAndUnlock(context.Background(), uuid.New(), 10, "al1", 10)
	})
}

func TestEvaluateAndUnlockIsIdempotent(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	ratingRepo := &fakeRatingRepo{userCount: 3}
	controller := newTestController(achievementRepo, ratingRepo, nil)
	userID := uuid.New()

	controller.EvaluateAndUnlock(context.Background(), userID, 10, "", 0)
	controller.EvaluateAndUnlock(context.Background(), userID, 10, "", 0)

	count := 0
	for _, id := range achievementRepo.unlocked {
		if id == AchievementTopRater {
			count++
		}
	}
	assert.Equal(t, 1, count, "second pass is a no-op")
}

func TestGetUserAchievementsMergesCatalogAndUnlocks(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	achievementRepo.catalog = []Achievement{
		{ID: AchievementFirstListen, Name: "First Note"},
		{ID: AchievementCritic, Name: "Pro Critic"},
	}
	unlockedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	achievementRepo.unlocks[AchievementFirstListen] = unlockedAt

	controller := newTestController(achievementRepo, &fakeRatingRepo{}, nil)
	user := &User{ID: uuid.New()}

	statuses, err := controller.GetUserAchievements(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.True(t, statuses[0].Unlocked)
	require.NotNil(t, statuses[0].UnlockedAt)
	assert.Equal(t, unlockedAt, *statuses[0].UnlockedAt)

	assert.False(t, statuses[1].Unlocked)
	assert.Nil(t, statuses[1].UnlockedAt)
}

func TestGetUserAchievementsDegradesWhenUnlocksFail(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	achievementRepo.catalog = []Achievement{
		{ID: AchievementFirstListen, Name: "First Note"},
	}
	achievementRepo.unlocksErr = errors.New("store is down")

	controller := newTestController(achievementRepo, &fakeRatingRepo{}, nil)

	statuses, err := controller.GetUserAchievements(context.Background(), &User{ID: uuid.New()})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Unlocked)
}

func TestGetUserAchievementsCatalogFailure(t *testing.T) {
	achievementRepo := newFakeAchievementRepo()
	achievementRepo.catalogErr = errors.New("store is down")

	controller := newTestController(achievementRepo, &fakeRatingRepo{}, nil)

	_, err := controller.GetUserAchievements(context.Background(), &User{ID: uuid.New()})
	assert.Error(t, err)
}

func TestHandleRatingSavedCoercesEventNumbers(t *testing.T) {
	// JSON decoding delivers numbers as float64
	data := map[string]any{
		"rating":             float64(10),
		"albumId":            "al1",
		"totalTracksInAlbum": float64(12),
	}

	assert.Equal(t, 10, intFromEventData(data, "rating"))
	assert.Equal(t, 12, intFromEventData(data, "totalTracksInAlbum"))
	assert.Equal(t, "al1", stringFromEventData(data, "albumId"))
	assert.Equal(t, 0, intFromEventData(data, "missing"))
	assert.Equal(t, "", stringFromEventData(data, "missing"))
}
