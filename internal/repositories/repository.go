package repositories

import (
	"tunescore/internal/database"
)

type Repository struct {
	User        UserRepository
	Rating      RatingRepository
	Achievement AchievementRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:        NewUserRepository(db),
		Rating:      NewRatingRepository(db),
		Achievement: NewAchievementRepository(db),
	}
}
