package chat

import (
	"math"
	"testing"

	"github.com/murmurchat/murmur/internal/models"
)

func TestMatchesChannelEqualityIgnoresSpelling(t *testing.T) {
	m := Matcher{}
	post := models.Post{Channel: "general"}

	cases := []struct {
		channel string
		want    bool
	}{
		{"general", true},
		{" general ", true},
		{"General", true},
		{"beta", false},
		{"", false},
	}
	for _, tc := range cases {
		p := Participant{Channel: tc.channel}
		if got := m.Matches(p, post); got != tc.want {
			t.Errorf("Matches(channel=%q) = %v, want %v", tc.channel, got, tc.want)
		}
	}
}

func TestMatchesDefaultChannel(t *testing.T) {
	m := Matcher{}
	post := models.Post{Channel: ""}

	if !m.Matches(Participant{Channel: ""}, post) {
		t.Error("empty channel should match empty channel")
	}
	if !m.Matches(Participant{Channel: "  "}, post) {
		t.Error("whitespace channel should normalize to the default channel")
	}
	if m.Matches(Participant{Channel: "general"}, post) {
		t.Error("named channel must not match the default channel")
	}
}

func TestGeofencedMatchRespectsRadius(t *testing.T) {
	m := Matcher{Geofence: true}

	near := Participant{Channel: "", Latitude: floatPtr(0), Longitude: floatPtr(0), RadiusMiles: 10}
	far := models.Post{Channel: "", Latitude: 1, Longitude: 0} // ~69 miles away
	if m.Matches(near, far) {
		t.Error("post ~69 miles away should not match a 10 mile radius")
	}

	wide := Participant{Channel: "", Latitude: floatPtr(0), Longitude: floatPtr(0), RadiusMiles: 100}
	within := models.Post{Channel: "", Latitude: 0, Longitude: 0.5} // ~34.5 miles away
	if !m.Matches(wide, within) {
		t.Error("post ~34.5 miles away should match a 100 mile radius")
	}
}

func TestGeofencedMatchRequiresLocation(t *testing.T) {
	m := Matcher{Geofence: true}
	post := models.Post{Channel: ""}

	p := Participant{Channel: ""} // no location supplied yet
	if m.Matches(p, post) {
		t.Error("participant without a location must never match when geofencing is on")
	}
}

func TestHaversineReferenceDistances(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"one degree of latitude", 0, 0, 1, 0, 69.09},
		{"half degree of longitude at equator", 0, 0, 0, 0.5, 34.55},
		{"same point", 40, -74, 40, -74, 0},
	}
	for _, tc := range cases {
		got := Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
		if math.Abs(got-tc.want) > 0.1 {
			t.Errorf("%s: Haversine = %.3f, want %.3f ± 0.1", tc.name, got, tc.want)
		}
	}
}

func TestHaversineIsSymmetric(t *testing.T) {
	a := Haversine(40.7, -74.0, 34.0, -118.2)
	b := Haversine(34.0, -118.2, 40.7, -74.0)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("Haversine not symmetric: %v vs %v", a, b)
	}
}
