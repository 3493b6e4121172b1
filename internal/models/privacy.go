package models

import (
	"time"

	"radar/internal/domain"

	"gorm.io/gorm"
)

// PrivacySettings controls whether and how a user shows up in other people's radar.
// The bool columns carry no DB default: gorm skips zero values on insert when a default
// is declared, which would turn an explicit false into true.
type PrivacySettings struct {
	ID                uint           `gorm:"primaryKey" json:"-"`
	UserID            string         `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Visibility        string         `gorm:"size:16;not null;index" json:"visibility"` // PUBLIC | FRIENDS | PRIVATE
	ShowDistance      bool           `gorm:"not null" json:"show_distance"`
	ShowLastSeen      bool           `gorm:"not null" json:"show_last_seen"`
	AllowNearbySearch bool           `gorm:"not null;index" json:"allow_nearby_search"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (PrivacySettings) TableName() string { return "privacy_settings" }

// DefaultPrivacySettings returns the settings every new user starts with.
func DefaultPrivacySettings(userID string) *PrivacySettings {
	return &PrivacySettings{
		UserID:            userID,
		Visibility:        domain.DefaultVisibility,
		ShowDistance:      domain.DefaultShowDistance,
		ShowLastSeen:      domain.DefaultShowLastSeen,
		AllowNearbySearch: domain.DefaultAllowNearbySearch,
	}
}

func (p *PrivacySettings) Flags() domain.PrivacyFlags {
	return domain.PrivacyFlags{
		Visibility:   p.Visibility,
		ShowDistance: p.ShowDistance,
		ShowLastSeen: p.ShowLastSeen,
	}
}
