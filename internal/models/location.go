package models

import (
	"time"

	"gorm.io/gorm"
)

// UserLocation is the single current position of a user; it is upserted, never appended.
// Separate lat/lng columns keep the bounding box pre-filter portable.
type UserLocation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Latitude  float64        `gorm:"type:decimal(10,8);not null;index:idx_location_lat_lng" json:"latitude"`
	Longitude float64        `gorm:"type:decimal(11,8);not null;index:idx_location_lat_lng" json:"longitude"`
	Accuracy  *float64       `gorm:"type:decimal(10,2)" json:"accuracy,omitempty"`
	IsActive  bool           `gorm:"not null;index" json:"is_active"`
	LastSeen  time.Time      `gorm:"not null;index" json:"last_seen"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName allows custom table name.
func (UserLocation) TableName() string {
	return "user_locations"
}
