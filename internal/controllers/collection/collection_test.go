package collectionController

import (
	"testing"

	. "tunescore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCollectionDeduplicatesByFirstSeen(t *testing.T) {
	ratings := []SongRating{
		{
			SongID:      "s1",
			ArtistID:    "A1",
			ArtistName:  "The Originals",
			AlbumID:     "al1",
			AlbumName:   "Debut",
			AlbumArtURL: "http://art/1.jpg",
		},
		{
			SongID:     "s2",
			ArtistID:   "A1",
			ArtistName: "The Originals (Remastered)",
			AlbumID:    "al1",
			AlbumName:  "Debut Deluxe",
		},
		{
			SongID:     "s3",
			ArtistID:   "A2",
			ArtistName: "Second Act",
			AlbumID:    "al2",
			AlbumName:  "Encore",
		},
	}

	collection := DeriveCollection(ratings)

	require.Len(t, collection.Artists, 2)
	assert.Equal(t, "A1", collection.Artists[0].ID)
	assert.Equal(t, "The Originals", collection.Artists[0].Name, "first-seen name wins")
	assert.Equal(t, "http://art/1.jpg", collection.Artists[0].Image)
	assert.Equal(t, "A2", collection.Artists[1].ID)

	require.Len(t, collection.Albums, 2)
	assert.Equal(t, "al1", collection.Albums[0].ID)
	assert.Equal(t, "Debut", collection.Albums[0].Name)
	assert.Equal(t, "al2", collection.Albums[1].ID)
}

func TestDeriveCollectionSkipsRowsMissingMetadata(t *testing.T) {
	ratings := []SongRating{
		{SongID: "s1", ArtistID: "A1", AlbumID: "al1", AlbumName: "Named Album"},
		{SongID: "s2", ArtistID: "", ArtistName: "Nameless", AlbumID: "", AlbumName: ""},
	}

	collection := DeriveCollection(ratings)

	assert.Empty(t, collection.Artists, "artist rows without a name are skipped")
	require.Len(t, collection.Albums, 1)
	assert.Equal(t, "al1", collection.Albums[0].ID)
}

func TestDeriveCollectionEmptyInput(t *testing.T) {
	collection := DeriveCollection(nil)

	assert.NotNil(t, collection.Artists)
	assert.NotNil(t, collection.Albums)
	assert.Empty(t, collection.Artists)
	assert.Empty(t, collection.Albums)
}

func TestDeriveStats(t *testing.T) {
	ratings := []SongRating{
		{Rating: 10, Genre: "rock"},
		{Rating: 6, Genre: "rock"},
		{Rating: 8, Genre: "jazz"},
	}

	stats := DeriveStats(ratings)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 8.0, stats.Average)
	assert.Equal(t, "rock", stats.TopGenre)

	assert.Equal(t, 1, stats.Histogram[10])
	assert.Equal(t, 1, stats.Histogram[6])
	assert.Equal(t, 1, stats.Histogram[8])
	for _, score := range []int{1, 2, 3, 4, 5, 7, 9} {
		assert.Equal(t, 0, stats.Histogram[score], "score %d should be empty", score)
	}
}

func TestDeriveStatsAverageRounding(t *testing.T) {
	ratings := []SongRating{
		{Rating: 7},
		{Rating: 8},
		{Rating: 8},
	}

	stats := DeriveStats(ratings)

	// 23/3 = 7.666... rounds to 7.7
	assert.Equal(t, 7.7, stats.Average)
}

func TestDeriveStatsGenreTieBreak(t *testing.T) {
	ratings := []SongRating{
		{Rating: 5, Genre: "jazz"},
		{Rating: 5, Genre: "rock"},
		{Rating: 5, Genre: "rock"},
		{Rating: 5, Genre: "jazz"},
	}

	stats := DeriveStats(ratings)

	// jazz reaches 2 after rock already reached 2; rock got there first
	assert.Equal(t, "rock", stats.TopGenre)
}

func TestDeriveStatsIgnoresOutOfRangeScoresInHistogram(t *testing.T) {
	ratings := []SongRating{
		{Rating: 5},
		{Rating: 0},
		{Rating: 11},
	}

	stats := DeriveStats(ratings)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Histogram[5])

	histogramTotal := 0
	for _, count := range stats.Histogram {
		histogramTotal += count
	}
	assert.Equal(t, 1, histogramTotal)
}

func TestDeriveStatsEmptyInput(t *testing.T) {
	stats := DeriveStats(nil)

	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.Average)
	assert.Empty(t, stats.TopGenre)
	assert.Len(t, stats.Histogram, 10)
}

func TestDeriveStatsIgnoresEmptyGenres(t *testing.T) {
	ratings := []SongRating{
		{Rating: 5, Genre: ""},
		{Rating: 5, Genre: ""},
		{Rating: 5, Genre: "folk"},
	}

	stats := DeriveStats(ratings)

	assert.Equal(t, "folk", stats.TopGenre)
}
