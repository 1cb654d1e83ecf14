package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserPreferences struct {
	UserID    uuid.UUID      `gorm:"type:uuid;primaryKey"                          json:"userId"`
	User      User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Theme     string         `gorm:"type:text;default:'dark'"                      json:"theme"`
	Settings  datatypes.JSON `gorm:"type:jsonb"                                    json:"settings,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime"                                json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"                                json:"updatedAt"`
}
