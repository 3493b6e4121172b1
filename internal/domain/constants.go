package domain

import (
	"strings"
	"time"
)

const (
	VisibilityPublic  = "PUBLIC"
	VisibilityFriends = "FRIENDS"
	VisibilityPrivate = "PRIVATE"
)

// NormalizeVisibility upper-cases v and reports whether it names a known level.
func NormalizeVisibility(v string) (string, bool) {
	v = strings.ToUpper(strings.TrimSpace(v))
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return v, true
	}
	return v, false
}

const (
	// FreshnessWindow is how long after its last report a location still counts as online.
	FreshnessWindow = time.Hour

	DefaultRadiusMeters = 1000
	DefaultNearbyLimit  = 50
	MaxNearbyLimit      = 200

	// DefaultCandidateCap bounds how many rows the store hands back per nearby query.
	DefaultCandidateCap = 1000
)

// Defaults for freshly created privacy settings.
const (
	DefaultVisibility        = VisibilityFriends
	DefaultShowDistance      = true
	DefaultShowLastSeen      = true
	DefaultAllowNearbySearch = true
)
