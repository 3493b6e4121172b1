package domain

import "time"

// Fix is a single position reading, either from a device or echoed back from the store.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NearbyQuery asks for users around a point. RadiusMeters and Limit fall back to
// defaults when zero.
type NearbyQuery struct {
	ViewerID     string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Limit        int
}

type PrivacyFlags struct {
	Visibility   string `json:"visibility"`
	ShowDistance bool   `json:"show_distance"`
	ShowLastSeen bool   `json:"show_last_seen"`
}

// NearbyUser is one entry of a nearby query response. Distance and LastSeen are nil
// when the candidate does not disclose them.
type NearbyUser struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Avatar         string       `json:"avatar,omitempty"`
	Distance       *int         `json:"distance,omitempty"`
	ProximityLabel string       `json:"proximity_label,omitempty"`
	Location       Fix          `json:"location"`
	IsOnline       bool         `json:"is_online"`
	LastSeen       *time.Time   `json:"last_seen,omitempty"`
	Privacy        PrivacyFlags `json:"privacy"`
}
