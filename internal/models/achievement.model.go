package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Achievement is a catalog row. The set is fixed, seeded by the migration
// tool, and never modified at runtime.
type Achievement struct {
	ID          string         `gorm:"type:text;primaryKey" json:"id"`
	Name        string         `gorm:"type:text;not null"   json:"name"`
	Description string         `gorm:"type:text"            json:"description"`
	Icon        string         `gorm:"type:text"            json:"icon"`
	Criteria    datatypes.JSON `gorm:"type:jsonb"           json:"criteria,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"       json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"       json:"updatedAt"`
}

// UserAchievement records an unlock. (user_id, achievement_id) is unique and
// an unlock is one-way: once the row exists it is never removed or
// re-evaluated.
type UserAchievement struct {
	BaseUUIDModel
	UserID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievements_user_achievement" json:"userId"`
	User          User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"                         json:"-"`
	AchievementID string      `gorm:"type:text;not null;uniqueIndex:idx_user_achievements_user_achievement" json:"achievementId"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID;constraint:OnDelete:CASCADE"                  json:"achievement,omitempty"`
	UnlockedAt    time.Time   `gorm:"not null"                                                              json:"unlockedAt"`
}

// AchievementStatus merges a catalog entry with the user's unlock state for
// the achievements page
type AchievementStatus struct {
	Achievement
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	Unlocked   bool       `json:"unlocked"`
}
