package jobs

import (
	"context"
	"time"
	collectionController "tunescore/internal/controllers/collection"
	"tunescore/internal/logger"
	"tunescore/internal/repositories"
	"tunescore/internal/services"
)

// statsWarmupWindow bounds the nightly pass to recently active users
const statsWarmupWindow = 7 * 24 * time.Hour

// StatsWarmupJob refreshes the rating cache for recently active users so
// morning collection and stats views hit warm caches
type StatsWarmupJob struct {
	ratingRepo repositories.RatingRepository
	schedule   services.Schedule
	log        logger.Logger
}

func NewStatsWarmupJob(
	ratingRepo repositories.RatingRepository,
	schedule services.Schedule,
) *StatsWarmupJob {
	return &StatsWarmupJob{
		ratingRepo: ratingRepo,
		schedule:   schedule,
		log:        logger.New("statsWarmupJob"),
	}
}

func (j *StatsWarmupJob) Name() string {
	return "stats-warmup"
}

func (j *StatsWarmupJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *StatsWarmupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	since := time.Now().Add(-statsWarmupWindow)
	userIDs, err := j.ratingRepo.GetActiveUserIDs(ctx, since)
	if err != nil {
		return log.Err("failed to list active users", err)
	}

	log.Info("warming rating caches", "userCount", len(userIDs))

	warmed := 0
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			log.Warn("warmup cancelled", "warmed", warmed, "total", len(userIDs))
			return ctx.Err()
		default:
		}

		// Drop any stale entry, refetch to repopulate, and fold the stats once
		// so the derivation path is exercised against fresh data
		j.ratingRepo.ClearUserRatingsCache(ctx, userID)

		ratings, err := j.ratingRepo.GetRatingsForUser(ctx, userID)
		if err != nil {
			log.Warn("failed to warm user ratings", "userID", userID, "error", err)
			continue
		}

		collectionController.DeriveStats(ratings)
		warmed++
	}

	log.Info("rating cache warmup complete", "warmed", warmed, "total", len(userIDs))

	return nil
}
