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

const (
	USER_CACHE_EXPIRY = 7 * 24 * time.Hour // 7 days
	USER_CACHE_PREFIX = "user:"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindOrCreateBySubject(ctx context.Context, subject uuid.UUID, email *string) (*User, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*UserPreferences, error)
	SavePreferences(ctx context.Context, prefs *UserPreferences) error
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	if found := r.getCacheByID(ctx, id, &user); found {
		return &user, nil
	}

	if err := r.db.SQLWithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get user by id", normalizeStoreError(err), "id", id)
	}

	r.addUserToCache(ctx, &user)

	return &user, nil
}

// FindOrCreateBySubject resolves the identity-provider subject to the
// application-owned user row, provisioning it lazily on first sight. The
// insert is idempotent: a concurrent duplicate from another tab lands on the
// primary-key constraint and is treated as success, then re-fetched.
func (r *userRepository) FindOrCreateBySubject(
	ctx context.Context,
	subject uuid.UUID,
	email *string,
) (*User, error) {
	log := r.log.Function("FindOrCreateBySubject")

	user, err := r.GetByID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &User{ID: subject, Email: email}
	if err := r.db.SQLWithContext(ctx).Create(created).Error; err != nil {
		if !isUniqueViolation(err, "") {
			return nil, log.Err(
				"failed to provision user record",
				normalizeStoreError(err),
				"userID", subject,
			)
		}
		// Lost the race to another request; the row exists now
		log.Debug("user record already provisioned concurrently", "userID", subject)

		if err := r.db.SQLWithContext(ctx).First(created, "id = ?", subject).Error; err != nil {
			return nil, log.Err(
				"failed to fetch user after conflict",
				normalizeStoreError(err),
				"userID", subject,
			)
		}
	} else {
		log.Info("provisioned user record", "userID", subject)
	}

	r.addUserToCache(ctx, created)

	return created, nil
}

func (r *userRepository) GetPreferences(
	ctx context.Context,
	userID uuid.UUID,
) (*UserPreferences, error) {
	log := r.log.Function("GetPreferences")

	var prefs UserPreferences
	err := r.db.SQLWithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Absent row means defaults
			return &UserPreferences{UserID: userID, Theme: "dark"}, nil
		}
		return nil, log.Err("failed to get user preferences", normalizeStoreError(err), "userID", userID)
	}

	return &prefs, nil
}

func (r *userRepository) SavePreferences(ctx context.Context, prefs *UserPreferences) error {
	log := r.log.Function("SavePreferences")

	if err := r.db.SQLWithContext(ctx).Save(prefs).Error; err != nil {
		return log.Err(
			"failed to save user preferences",
			normalizeStoreError(err),
			"userID", prefs.UserID,
		)
	}

	return nil
}

func (r *userRepository) getCacheByID(ctx context.Context, userID uuid.UUID, user *User) bool {
	cacheKey := USER_CACHE_PREFIX + userID.String()
	found, err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).WithContext(ctx).Get(user)
	if err != nil {
		r.log.Warn("failed to get user from cache", "userID", userID, "error", err)
		return false
	}

	return found
}

func (r *userRepository) addUserToCache(ctx context.Context, user *User) {
	cacheKey := USER_CACHE_PREFIX + user.ID.String()
	if err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).
		WithStruct(user).
		WithTTL(USER_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		r.log.Warn("failed to add user to cache", "userID", user.ID, "error", err)
	}
}
