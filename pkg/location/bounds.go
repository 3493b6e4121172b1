package location

import "math"

// Box is a lat/lng rectangle that contains every point within some radius of a center.
// When AllLongitudes is set the longitude bounds must be ignored (the circle reaches a
// pole or wraps the antimeridian).
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	AllLongitudes  bool
}

// boxMargin widens the box slightly so points sitting on the circle are never cut by
// floating point error; exact filtering happens afterwards.
const boxMargin = 1.001

// BoundingBox returns the smallest lat/lng box enclosing the circle of radiusMeters
// around (lat, lng).
func BoundingBox(lat, lng, radiusMeters float64) Box {
	angular := radiusMeters * boxMargin / EarthRadiusMeters
	Δφ := angular * 180 / math.Pi
	b := Box{
		MinLat: math.Max(-90, lat-Δφ),
		MaxLat: math.Min(90, lat+Δφ),
	}
	if b.MinLat <= -90 || b.MaxLat >= 90 || angular >= math.Pi/2 {
		b.AllLongitudes = true
		return b
	}
	s := math.Sin(angular) / math.Cos(rad(lat))
	if s >= 1 {
		b.AllLongitudes = true
		return b
	}
	Δλ := math.Asin(s) * 180 / math.Pi
	b.MinLng, b.MaxLng = lng-Δλ, lng+Δλ
	if b.MinLng < -180 || b.MaxLng > 180 {
		b.AllLongitudes = true
	}
	return b
}

// Contains reports whether (lat, lng) lies inside the box.
func (b Box) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	return b.AllLongitudes || (lng >= b.MinLng && lng <= b.MaxLng)
}
