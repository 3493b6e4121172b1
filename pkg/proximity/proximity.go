// Package proximity places a distance on the radar rings drawn around a viewer.
package proximity

// Ring is one of the concentric bands of the search radius, innermost last.
type Ring int

const (
	Edge Ring = iota
	Far
	WithinArea
	Nearby
	VeryClose
)

var ringNames = [...]string{
	Edge:       "Edge of range",
	Far:        "Far (within range)",
	WithinArea: "Within Area",
	Nearby:     "Nearby",
	VeryClose:  "Very Close",
}

func (r Ring) String() string {
	if r < Edge || r > VeryClose {
		return "unknown"
	}
	return ringNames[r]
}

// RingFor splits the radius into quarters: the inner quarter is VeryClose and
// anything at or past the radius is Edge. A non-positive radius has no rings.
func RingFor(distanceMeters, radiusMeters float64) Ring {
	if radiusMeters <= 0 {
		return Edge
	}
	if distanceMeters < 0 {
		distanceMeters = 0
	}
	switch f := distanceMeters / radiusMeters; {
	case f <= 0.25:
		return VeryClose
	case f <= 0.5:
		return Nearby
	case f <= 0.75:
		return WithinArea
	case f < 1:
		return Far
	default:
		return Edge
	}
}

// LabelFor returns the display name of the ring distanceMeters falls in.
func LabelFor(distanceMeters, radiusMeters float64) string {
	return RingFor(distanceMeters, radiusMeters).String()
}
