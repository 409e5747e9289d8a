package chat

import (
	"math"

	"github.com/murmurchat/murmur/internal/models"
)

// EarthRadiusMiles is the mean earth radius used for geofence distances.
const EarthRadiusMiles = 3959.0

// Matcher decides whether a participant should see a given post. With
// Geofence disabled the rule is normalized channel equality; with it
// enabled the post must additionally lie within the participant's
// radius, and a participant without a location never matches.
type Matcher struct {
	Geofence bool
}

// Matches is a pure predicate; it never mutates either argument.
func (m Matcher) Matches(p Participant, post models.Post) bool {
	if NormalizeChannel(p.Channel) != NormalizeChannel(post.Channel) {
		return false
	}
	if !m.Geofence {
		return true
	}
	if !p.HasLocation() {
		return false
	}
	dist := Haversine(*p.Latitude, *p.Longitude, post.Latitude, post.Longitude)
	return dist <= p.RadiusMiles
}

// Haversine returns the great-circle distance in miles between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(a))
}
