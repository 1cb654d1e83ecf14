package initialize

import (
	"tunescore/config"
	achievementController "tunescore/internal/controllers/achievements"
	. "tunescore/internal/models"

	logger "tunescore/internal/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeAchievements(db, log); err != nil {
		return log.Err("failed to initialize achievements", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// initializeAchievements seeds the fixed achievement catalog. Criteria is
// descriptive metadata for the UI; the unlock rules live in the achievement
// controller. marathon is seeded but has no rule yet.
func initializeAchievements(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing achievement catalog")

	achievements := []Achievement{
		{
			ID:          achievementController.AchievementFirstListen,
			Name:        "First Note",
			Description: "Rate your first song",
			Icon:        "🎵",
			Criteria:    datatypes.JSON(`{"type":"total_ratings","threshold":1}`),
		},
		{
			ID:          achievementController.AchievementAlbumMaster,
			Name:        "First Disco",
			Description: "Rate every song on an album",
			Icon:        "💿",
			Criteria:    datatypes.JSON(`{"type":"album_complete"}`),
		},
		{
			ID:          achievementController.AchievementCritic,
			Name:        "Pro Critic",
			Description: "Rate 50 songs",
			Icon:        "⭐",
			Criteria:    datatypes.JSON(`{"type":"total_ratings","threshold":50}`),
		},
		{
			ID:          achievementController.AchievementTopRater,
			Name:        "Top Rater",
			Description: "Give a song a perfect 10",
			Icon:        "🔥",
			Criteria:    datatypes.JSON(`{"type":"rating_value","value":10}`),
		},
		{
			ID:          achievementController.AchievementNightOwl,
			Name:        "Musical Night",
			Description: "Rate a song between midnight and 5 AM",
			Icon:        "🦉",
			Criteria:    datatypes.JSON(`{"type":"time_window","startHour":0,"endHour":5}`),
		},
		{
			ID:          achievementController.AchievementMarathon,
			Name:        "Discography Finished",
			Description: "Rate an artist's entire discography",
			Icon:        "🏃",
			Criteria:    datatypes.JSON(`{"type":"discography_complete"}`),
		},
	}

	for _, achievement := range achievements {
		var existing Achievement
		if err := db.First(&existing, "id = ?", achievement.ID).Error; err == nil {
			log.Debug("Achievement already exists", "id", achievement.ID)
			continue
		}
		log.Info("Initializing achievement", "id", achievement.ID, "name", achievement.Name)
		if err := db.Create(&achievement).Error; err != nil {
			return log.Err("failed to create achievement", err, "id", achievement.ID)
		}
	}

	log.Info("Achievement catalog initialized", "count", len(achievements))
	return nil
}
