package userController

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tunescore/internal/logger"
	. "tunescore/internal/models"
	"tunescore/internal/repositories"

	"gorm.io/datatypes"
)

var ErrValidation = errors.New("validation failed")

type UpdatePreferencesRequest struct {
	Theme    string         `json:"theme"`
	Settings map[string]any `json:"settings"`
}

type UserControllerInterface interface {
	GetProfile(ctx context.Context, user *User) (UserProfile, error)
	GetPreferences(ctx context.Context, user *User) (*UserPreferences, error)
	UpdatePreferences(ctx context.Context, user *User, request UpdatePreferencesRequest) (*UserPreferences, error)
}

type UserController struct {
	userRepo   repositories.UserRepository
	ratingRepo repositories.RatingRepository
}

func New(repos repositories.Repository) UserControllerInterface {
	return &UserController{
		userRepo:   repos.User,
		ratingRepo: repos.Rating,
	}
}

// GetProfile decorates the base profile with membership age and the time of
// the newest rating. The rating lookup is best effort; the profile still
// renders without it.
func (c *UserController) GetProfile(ctx context.Context, user *User) (UserProfile, error) {
	log := logger.NewWithContext(ctx, "userController").Function("GetProfile")

	profile := user.ToProfile()
	profile.MemberFor = memberFor(user.CreatedAt, time.Now())

	ratings, err := c.ratingRepo.GetRatingsForUser(ctx, user.ID)
	if err != nil {
		log.Warn("failed to get ratings for profile", "userID", user.ID, "error", err)
		return profile, nil
	}

	if len(ratings) > 0 {
		// Newest first; the list is ordered by updated_at descending
		lastRated := ratings[0].UpdatedAt
		profile.LastRated = &lastRated
	}

	return profile, nil
}

// memberFor renders the account age in the largest sensible unit
func memberFor(since, now time.Time) string {
	days := int(now.Sub(since).Hours() / 24)

	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	switch {
	case days < 1:
		return "less than a day"
	case days < 30:
		return plural(days, "day")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func (c *UserController) GetPreferences(ctx context.Context, user *User) (*UserPreferences, error) {
	log := logger.NewWithContext(ctx, "userController").Function("GetPreferences")

	prefs, err := c.userRepo.GetPreferences(ctx, user.ID)
	if err != nil {
		return nil, log.Err("failed to get preferences", err, "userID", user.ID)
	}

	return prefs, nil
}

func (c *UserController) UpdatePreferences(
	ctx context.Context,
	user *User,
	request UpdatePreferencesRequest,
) (*UserPreferences, error) {
	log := logger.NewWithContext(ctx, "userController").Function("UpdatePreferences")

	switch request.Theme {
	case "light", "dark":
	default:
		return nil, errors.Join(ErrValidation, errors.New("theme must be light or dark"))
	}

	prefs, err := c.userRepo.GetPreferences(ctx, user.ID)
	if err != nil {
		return nil, log.Err("failed to load preferences", err, "userID", user.ID)
	}

	prefs.Theme = request.Theme
	if request.Settings != nil {
		settings, err := datatypes.NewJSONType(request.Settings).MarshalJSON()
		if err != nil {
			return nil, errors.Join(ErrValidation, err)
		}
		prefs.Settings = datatypes.JSON(settings)
	}

	if err := c.userRepo.SavePreferences(ctx, prefs); err != nil {
		return nil, log.Err("failed to save preferences", err, "userID", user.ID)
	}

	return prefs, nil
}
