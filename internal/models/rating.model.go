package models

import (
	"github.com/google/uuid"
)

// SongRating is one user's score for one song. (user_id, song_id) is unique;
// re-rating overwrites the row in place, no history is retained. Display
// metadata is denormalized onto the row so collection and stats reads never
// join back to the catalog.
type SongRating struct {
	BaseUUIDModel
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_song_ratings_user_song;index" json:"userId"`
	User    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"                   json:"-"`
	SongID  string    `gorm:"type:text;not null;uniqueIndex:idx_song_ratings_user_song"       json:"songId"`
	AlbumID string    `gorm:"type:text;not null;index"                                        json:"albumId"`
	Rating  int       `gorm:"type:integer;not null;check:chk_song_ratings_rating,rating >= 1 AND rating <= 10" json:"rating"`

	// Denormalized display metadata, refreshed on every overwrite
	SongName    string `gorm:"type:text" json:"songName"`
	AlbumName   string `gorm:"type:text" json:"albumName"`
	ArtistName  string `gorm:"type:text" json:"artistName"`
	ArtistID    string `gorm:"type:text" json:"artistId"`
	Genre       string `gorm:"type:text" json:"genre"`
	AlbumArtURL string `gorm:"column:album_art_url;type:text" json:"albumArtUrl"`
}

// AlbumRating is one user's score for a whole album, unique on
// (user_id, album_id)
type AlbumRating struct {
	BaseUUIDModel
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_album_ratings_user_album" json:"userId"`
	User    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"               json:"-"`
	AlbumID string    `gorm:"type:text;not null;uniqueIndex:idx_album_ratings_user_album" json:"albumId"`
	Rating  int       `gorm:"type:integer;not null;check:chk_album_ratings_rating,rating >= 1 AND rating <= 10" json:"rating"`
}
