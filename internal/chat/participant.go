// Package chat implements the in-memory core of the service: the
// registry of connected participants, the matching rule deciding who
// sees which posts, the fan-out hub, per-connection WebSocket clients,
// and the orchestration around snapshots, votes, and auto-moderation.
package chat

import (
	"strings"
	"time"
)

// DefaultDisplayName is assigned to every new connection until the
// client supplies a name of its own.
const DefaultDisplayName = "Anonymous"

// NormalizeChannel collapses the channel spellings clients send ("",
// " ", "General ") into one canonical form: trimmed and lowercased.
// Applied at every write boundary so comparisons are plain string
// equality.
func NormalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimSpace(channel))
}

// Participant is the live identity and preferences of one open
// connection. It exists in the registry exactly as long as the
// connection is open and is never persisted.
type Participant struct {
	ConnID      string
	SessionID   string
	DisplayName string
	Channel     string
	Latitude    *float64
	Longitude   *float64
	RadiusMiles float64
	ConnectedAt time.Time
}

// HasLocation reports whether the client has supplied coordinates yet.
func (p Participant) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// clone returns a value copy with its own location pointers, safe to
// hand out of the registry lock.
func (p Participant) clone() Participant {
	c := p
	if p.Latitude != nil {
		lat := *p.Latitude
		c.Latitude = &lat
	}
	if p.Longitude != nil {
		lon := *p.Longitude
		c.Longitude = &lon
	}
	return c
}

// Settings is the partial update a client may send. Nil fields are left
// untouched; anything else the client includes is ignored.
type Settings struct {
	DisplayName *string  `json:"displayName"`
	Channel     *string  `json:"channel"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusMiles *float64 `json:"radius"`
}
