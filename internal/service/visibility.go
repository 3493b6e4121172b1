package service

import (
	"time"

	"radar/internal/domain"
	"radar/internal/models"
)

// Policy decides who may appear in someone else's nearby results.
type Policy struct {
	Freshness time.Duration
}

func NewPolicy() Policy {
	return Policy{Freshness: domain.FreshnessWindow}
}

// Disclosure says which optional result fields a candidate shares.
type Disclosure struct {
	Distance bool
	LastSeen bool
}

// Fresh reports whether a location seen at lastSeen still counts as online at now.
func (p Policy) Fresh(lastSeen, now time.Time) bool {
	return now.Sub(lastSeen) <= p.Freshness
}

// IsVisible applies the visibility rules in order: never the viewer themself, an active
// and fresh location, nearby search allowed, and visibility other than PRIVATE.
// FRIENDS is treated like PUBLIC because there is no friendship graph.
// A candidate without settings is judged by the defaults.
func (p Policy) IsVisible(viewerID string, c *models.User, now time.Time) bool {
	if c == nil || c.ID == viewerID {
		return false
	}
	loc := c.Location
	if loc == nil || !loc.IsActive || !p.Fresh(loc.LastSeen, now) {
		return false
	}
	ps := settingsOf(c)
	if !ps.AllowNearbySearch {
		return false
	}
	return ps.Visibility != domain.VisibilityPrivate
}

// Project returns which fields of a visible candidate may be disclosed.
func (p Policy) Project(ps *models.PrivacySettings) Disclosure {
	if ps == nil {
		ps = models.DefaultPrivacySettings("")
	}
	return Disclosure{Distance: ps.ShowDistance, LastSeen: ps.ShowLastSeen}
}

func settingsOf(u *models.User) *models.PrivacySettings {
	if u.Privacy != nil {
		return u.Privacy
	}
	return models.DefaultPrivacySettings(u.ID)
}
