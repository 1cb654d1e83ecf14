package controllers

import (
	achievementController "tunescore/internal/controllers/achievements"
	collectionController "tunescore/internal/controllers/collection"
	ratingController "tunescore/internal/controllers/ratings"
	userController "tunescore/internal/controllers/users"
	"tunescore/internal/events"
	"tunescore/internal/repositories"
	"tunescore/internal/services"
)

type Controllers struct {
	User        userController.UserControllerInterface
	Rating      ratingController.RatingControllerInterface
	Collection  collectionController.CollectionControllerInterface
	Achievement achievementController.AchievementControllerInterface
}

func New(
	repos repositories.Repository,
	transactionService *services.TransactionService,
	catalogService *services.CatalogService,
	eventBus *events.EventBus,
) Controllers {
	return Controllers{
		User:        userController.New(repos),
		Rating:      ratingController.New(repos, transactionService, catalogService, eventBus),
		Collection:  collectionController.New(repos),
		Achievement: achievementController.New(repos, eventBus),
	}
}
