package database

import (
	"tunescore/internal/logger"
	"tunescore/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.UserPreferences{},
		&models.SongRating{},
		&models.AlbumRating{},
		&models.Achievement{},
		&models.UserAchievement{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			log.Er("Failed to migrate model", err, "model", model)
			return err
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create
// automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		// getRatingsForUser orders by updated_at DESC; keep that read cheap
		"CREATE INDEX IF NOT EXISTS idx_song_ratings_user_updated_at ON song_ratings(user_id, updated_at DESC)",
		// album_master counts ratings per (user, album)
		"CREATE INDEX IF NOT EXISTS idx_song_ratings_user_album ON song_ratings(user_id, album_id)",
		"CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
			// Continue with other indexes even if one fails
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
