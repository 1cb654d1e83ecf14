package collectionController

import (
	"context"
	"tunescore/internal/logger"
	. "tunescore/internal/models"
	"tunescore/internal/repositories"

	"github.com/shopspring/decimal"
)

// ArtistSummary is one deduplicated artist in the user's collection. The
// album art of the first-seen rating stands in for an artist image.
type ArtistSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type AlbumSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist,omitempty"`
	Image  string `json:"image,omitempty"`
}

type Collection struct {
	Artists []ArtistSummary `json:"artists"`
	Albums  []AlbumSummary  `json:"albums"`
}

type RatingStats struct {
	Total     int         `json:"total"`
	Average   float64     `json:"average"`
	TopGenre  string      `json:"topGenre,omitempty"`
	Histogram map[int]int `json:"histogram"`
}

type CollectionControllerInterface interface {
	GetCollection(ctx context.Context, user *User) (Collection, error)
	GetStats(ctx context.Context, user *User) (RatingStats, error)
}

type CollectionController struct {
	ratingRepo repositories.RatingRepository
}

func New(repos repositories.Repository) CollectionControllerInterface {
	return &CollectionController{
		ratingRepo: repos.Rating,
	}
}

func (c *CollectionController) GetCollection(ctx context.Context, user *User) (Collection, error) {
	log := logger.NewWithContext(ctx, "collectionController").Function("GetCollection")

	ratings, err := c.ratingRepo.GetRatingsForUser(ctx, user.ID)
	if err != nil {
		return Collection{}, log.Err("failed to fetch ratings", err, "userID", user.ID)
	}

	return DeriveCollection(ratings), nil
}

func (c *CollectionController) GetStats(ctx context.Context, user *User) (RatingStats, error) {
	log := logger.NewWithContext(ctx, "collectionController").Function("GetStats")

	ratings, err := c.ratingRepo.GetRatingsForUser(ctx, user.ID)
	if err != nil {
		return RatingStats{}, log.Err("failed to fetch ratings", err, "userID", user.ID)
	}

	return DeriveStats(ratings), nil
}

// DeriveCollection folds the flat rating history into deduplicated artist
// and album lists. First-seen metadata wins; later rows for the same key are
// dropped, not merged. Output order is first-seen order of the input. Rows
// missing the id or name for a side are skipped for that side only.
func DeriveCollection(ratings []SongRating) Collection {
	collection := Collection{
		Artists: []ArtistSummary{},
		Albums:  []AlbumSummary{},
	}

	seenArtists := make(map[string]bool)
	seenAlbums := make(map[string]bool)

	for _, r := range ratings {
		if r.ArtistID != "" && r.ArtistName != "" && !seenArtists[r.ArtistID] {
			seenArtists[r.ArtistID] = true
			collection.Artists = append(collection.Artists, ArtistSummary{
				ID:    r.ArtistID,
				Name:  r.ArtistName,
				Image: r.AlbumArtURL,
			})
		}

		if r.AlbumID != "" && r.AlbumName != "" && !seenAlbums[r.AlbumID] {
			seenAlbums[r.AlbumID] = true
			collection.Albums = append(collection.Albums, AlbumSummary{
				ID:     r.AlbumID,
				Name:   r.AlbumName,
				Artist: r.ArtistName,
				Image:  r.AlbumArtURL,
			})
		}
	}

	return collection
}

// DeriveStats aggregates the rating history: total count, mean score rounded
// to one decimal, modal genre (first genre to reach the maximum count wins
// ties), and a 1..10 score histogram. Scores outside 1..10 are counted in the
// total but never crash the fold; they are simply left out of the histogram.
func DeriveStats(ratings []SongRating) RatingStats {
	stats := RatingStats{
		Histogram: make(map[int]int, 10),
	}
	for score := 1; score <= 10; score++ {
		stats.Histogram[score] = 0
	}

	stats.Total = len(ratings)
	if stats.Total == 0 {
		return stats
	}

	var sum int64
	genreCounts := make(map[string]int)
	topGenreCount := 0

	for _, r := range ratings {
		sum += int64(r.Rating)

		if r.Rating >= 1 && r.Rating <= 10 {
			stats.Histogram[r.Rating]++
		}

		if r.Genre != "" {
			genreCounts[r.Genre]++
			if genreCounts[r.Genre] > topGenreCount {
				topGenreCount = genreCounts[r.Genre]
				stats.TopGenre = r.Genre
			}
		}
	}

	stats.Average = decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(stats.Total))).
		Round(1).
		InexactFloat64()

	return stats
}
