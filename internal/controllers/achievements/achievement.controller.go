package achievementController

import (
	"context"
	"time"
	"tunescore/internal/events"
	"tunescore/internal/logger"
	. "tunescore/internal/models"
	"tunescore/internal/repositories"

	"github.com/google/uuid"
)

// Achievement identifiers. These are the primary keys of the seeded catalog;
// the unlock rules below are keyed on them.
const (
	AchievementFirstListen = "first_listen"
	AchievementAlbumMaster = "album_master"
	AchievementCritic      = "critic"
	AchievementTopRater    = "top_rater"
	AchievementNightOwl    = "night_owl"
	AchievementMarathon    = "marathon"
)

// CriticThreshold is the total rating count that unlocks the critic badge
const CriticThreshold = 50

// nightOwlEndHour bounds the local-time window [00:00, 05:00) for night_owl
const nightOwlEndHour = 5

type AchievementControllerInterface interface {
	GetUserAchievements(ctx context.Context, user *User) ([]AchievementStatus, error)
	EvaluateAndUnlock(ctx context.Context, userID uuid.UUID, rating int, albumID string, totalTracksInAlbum int)
}

type AchievementController struct {
	achievementRepo repositories.AchievementRepository
	ratingRepo      repositories.RatingRepository
	eventBus        *events.EventBus
	log             logger.Logger

	// now is swapped in tests to pin the clock for the night_owl rule
	now func() time.Time
}

func New(repos repositories.Repository, eventBus *events.EventBus) *AchievementController {
	controller := &AchievementController{
		achievementRepo: repos.Achievement,
		ratingRepo:      repos.Rating,
		eventBus:        eventBus,
		log:             logger.New("achievementController"),
		now:             time.Now,
	}

	if eventBus != nil {
		eventBus.Subscribe(events.RATING_SAVED_CHANNEL, controller.handleRatingSaved)
	}

	return controller
}

// GetUserAchievements merges the full catalog with the user's unlocks so every
// achievement shows up, locked or not. If the unlock lookup fails the catalog
// is still returned, all locked; the listing surface degrades rather than 500s.
func (c *AchievementController) GetUserAchievements(
	ctx context.Context,
	user *User,
) ([]AchievementStatus, error) {
	log := logger.NewWithContext(ctx, "achievementController").Function("GetUserAchievements")

	catalog, err := c.achievementRepo.GetCatalog(ctx)
	if err != nil {
		return nil, log.Err("failed to get achievement catalog", err, "userID", user.ID)
	}

	unlockedAt := make(map[string]time.Time)
	unlocks, err := c.achievementRepo.GetUserUnlocks(ctx, user.ID)
	if err != nil {
		log.Warn("failed to get user unlocks, returning locked catalog", "userID", user.ID, "error", err)
	} else {
		for _, unlock := range unlocks {
			unlockedAt[unlock.AchievementID] = unlock.UnlockedAt
		}
	}

	statuses := make([]AchievementStatus, 0, len(catalog))
	for _, achievement := range catalog {
		status := AchievementStatus{Achievement: achievement}
		if at, ok := unlockedAt[achievement.ID]; ok {
			unlocked := at
			status.UnlockedAt = &unlocked
			status.Unlocked = true
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// EvaluateAndUnlock runs every unlock rule against the rating that was just
// saved. It is fire-and-forget: rules that error are logged and skipped, and
// nothing here can fail the rating write, which has already committed.
func (c *AchievementController) EvaluateAndUnlock(
	ctx context.Context,
	userID uuid.UUID,
	rating int,
	albumID string,
	totalTracksInAlbum int,
) {
	log := logger.NewWithContext(ctx, "achievementController").Function("EvaluateAndUnlock")

	if rating == 10 {
		c.unlock(ctx, userID, AchievementTopRater)
	}

	if hour := c.now().Hour(); hour >= 0 && hour < nightOwlEndHour {
		c.unlock(ctx, userID, AchievementNightOwl)
	}

	if albumID != "" && totalTracksInAlbum > 0 {
		albumCount, err := c.ratingRepo.CountRatingsForAlbum(ctx, userID, albumID)
		if err != nil {
			log.Warn("album rating count failed, skipping album_master", "userID", userID, "albumID", albumID, "error", err)
		} else if albumCount >= int64(totalTracksInAlbum) {
			c.unlock(ctx, userID, AchievementAlbumMaster)
		}
	}

	total, err := c.ratingRepo.CountRatingsForUser(ctx, userID)
	if err != nil {
		log.Warn("total rating count failed, skipping count rules", "userID", userID, "error", err)
		return
	}

	if total >= 1 {
		c.unlock(ctx, userID, AchievementFirstListen)
	}

	if total >= CriticThreshold {
		c.unlock(ctx, userID, AchievementCritic)
	}

	// marathon is seeded in the catalog but has no unlock rule yet; it needs
	// session tracking (ratings within a single listening window) that the
	// rating rows alone cannot express
}

func (c *AchievementController) unlock(ctx context.Context, userID uuid.UUID, achievementID string) {
	log := logger.NewWithContext(ctx, "achievementController").Function("unlock")

	created, err := c.achievementRepo.Unlock(ctx, userID, achievementID)
	if err != nil {
		log.Warn("failed to unlock achievement", "userID", userID, "achievementID", achievementID, "error", err)
		return
	}

	if !created || c.eventBus == nil {
		return
	}

	err = c.eventBus.Publish(events.ACHIEVEMENT_UNLOCKED_CHANNEL, events.Event{
		UserID: &userID,
		Data: map[string]any{
			"achievementId": achievementID,
		},
	})
	if err != nil {
		log.Warn("failed to publish unlock event", "userID", userID, "achievementID", achievementID, "error", err)
	}
}

// handleRatingSaved bridges the post-commit rating event into rule evaluation.
// JSON round-tripping turns numbers into float64, hence the coercion.
func (c *AchievementController) handleRatingSaved(event events.Event) error {
	if event.UserID == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c.EvaluateAndUnlock(
		ctx,
		*event.UserID,
		intFromEventData(event.Data, "rating"),
		stringFromEventData(event.Data, "albumId"),
		intFromEventData(event.Data, "totalTracksInAlbum"),
	)

	return nil
}

func intFromEventData(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringFromEventData(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
