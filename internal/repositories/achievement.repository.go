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
)

type AchievementRepository interface {
	GetCatalog(ctx context.Context) ([]Achievement, error)
	GetUserUnlocks(ctx context.Context, userID uuid.UUID) ([]UserAchievement, error)
	Unlock(ctx context.Context, userID uuid.UUID, achievementID string) (bool, error)
}

type achievementRepository struct {
	db  database.DB
	log logger.Logger
}

func NewAchievementRepository(db database.DB) AchievementRepository {
	return &achievementRepository{
		db:  db,
		log: logger.New("achievementRepository"),
	}
}

func (r *achievementRepository) GetCatalog(ctx context.Context) ([]Achievement, error) {
	log := r.log.Function("GetCatalog")

	var catalog []Achievement
	if err := r.db.SQLWithContext(ctx).Order("created_at ASC").Find(&catalog).Error; err != nil {
		return nil, log.Err("failed to get achievement catalog", normalizeStoreError(err))
	}

	return catalog, nil
}

func (r *achievementRepository) GetUserUnlocks(
	ctx context.Context,
	userID uuid.UUID,
) ([]UserAchievement, error) {
	log := r.log.Function("GetUserUnlocks")

	var unlocks []UserAchievement
	err := r.db.SQLWithContext(ctx).
		Where("user_id = ?", userID).
		Find(&unlocks).Error
	if err != nil {
		return nil, log.Err("failed to get user unlocks", normalizeStoreError(err), "userID", userID)
	}

	return unlocks, nil
}

// Unlock records a one-way transition. Check-then-insert, with the
// (user_id, achievement_id) unique index as the backstop: an already-present
// row, whether found by the check or hit as a unique violation under a
// concurrent race, is a no-op. Returns true only when this call created the
// unlock.
func (r *achievementRepository) Unlock(
	ctx context.Context,
	userID uuid.UUID,
	achievementID string,
) (bool, error) {
	log := r.log.Function("Unlock")

	var existing UserAchievement
	err := r.db.SQLWithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, log.Err(
			"failed to check existing unlock",
			normalizeStoreError(err),
			"userID", userID,
			"achievementID", achievementID,
		)
	}

	unlock := &UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    time.Now().UTC(),
	}

	if err := r.db.SQLWithContext(ctx).Create(unlock).Error; err != nil {
		if isUniqueViolation(err, "") {
			// Raced another evaluation; already unlocked
			return false, nil
		}
		return false, log.Err(
			"failed to unlock achievement",
			normalizeStoreError(err),
			"userID", userID,
			"achievementID", achievementID,
		)
	}

	log.Info("achievement unlocked", "userID", userID, "achievementID", achievementID)
	return true, nil
}
