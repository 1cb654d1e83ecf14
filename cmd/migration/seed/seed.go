package seed

import (
	"tunescore/config"
	"tunescore/internal/logger"
	. "tunescore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

// Seed loads development data: a couple of users with enough ratings to light
// up the collection, stats, and achievement views
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []User{
		{
			ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Email: stringPtr("dev@example.com"),
		},
		{
			ID:    uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Email: stringPtr("test@example.com"),
		},
	}

	for _, user := range users {
		var existingUser User
		if err := db.First(&existingUser, "id = ?", user.ID).Error; err == nil {
			log.Info("User already exists", "userID", user.ID)
			continue
		}
		log.Info("Seeding user", "userID", user.ID)
		if err := db.Create(&user).Error; err != nil {
			log.Er("failed to create user", err, "userID", user.ID)
		}
	}

	ratings := []SongRating{
		{
			UserID:      users[0].ID,
			SongID:      "4u7EnebtmKWzUH433cf5Qv",
			AlbumID:     "1GbtB4zTqAsyfZEsm1RZfx",
			Rating:      10,
			SongName:    "Bohemian Rhapsody",
			AlbumName:   "A Night at the Opera",
			ArtistName:  "Queen",
			ArtistID:    "1dfeR4HaWDbWqFHLkxsg1d",
			Genre:       "rock",
			AlbumArtURL: "https://i.scdn.co/image/ab67616d0000b273ce4f1737bc8a646c8c4bd25a",
		},
		{
			UserID:     users[0].ID,
			SongID:     "7tFiyTwD0nx5a1eklYtX2J",
			AlbumID:    "1GbtB4zTqAsyfZEsm1RZfx",
			Rating:     8,
			SongName:   "Love of My Life",
			AlbumName:  "A Night at the Opera",
			ArtistName: "Queen",
			ArtistID:   "1dfeR4HaWDbWqFHLkxsg1d",
			Genre:      "rock",
		},
		{
			UserID:     users[0].ID,
			SongID:     "0VjIjW4GlUZAMYd2vXMi3b",
			AlbumID:    "4yP0hdKOZPNshxUOjY0cZj",
			Rating:     7,
			SongName:   "Blinding Lights",
			AlbumName:  "After Hours",
			ArtistName: "The Weeknd",
			ArtistID:   "1Xyo4u8uXC1ZmMpatF05PJ",
			Genre:      "pop",
		},
	}

	for _, rating := range ratings {
		var existing SongRating
		err := db.First(&existing, "user_id = ? AND song_id = ?", rating.UserID, rating.SongID).Error
		if err == nil {
			continue
		}
		if err := db.Create(&rating).Error; err != nil {
			log.Er("failed to create rating", err, "songID", rating.SongID)
		}
	}

	log.Info("Development data seeded")
	return nil
}
