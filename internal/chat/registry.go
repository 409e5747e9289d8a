package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks every connected participant. It is the only shared
// mutable state in the core and is safe for concurrent use; reads hand
// out value copies so callers never see a mid-update record.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]*Participant
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{participants: make(map[string]*Participant)}
}

// Register creates a participant with default identity for a freshly
// opened connection and returns a copy of it. The session id is a new
// uuid, distinct from the connection id, and serves as the voter/author
// identity for the connection's lifetime.
func (r *Registry) Register(connID string) Participant {
	p := &Participant{
		ConnID:      connID,
		SessionID:   uuid.NewString(),
		DisplayName: DefaultDisplayName,
		Channel:     "",
		ConnectedAt: time.Now(),
	}

	r.mu.Lock()
	r.participants[connID] = p
	r.mu.Unlock()

	return p.clone()
}

// Update merges the non-nil fields of settings into the participant and
// reports whether any matching-affecting field (channel, location,
// radius — not the display name) changed. Updating an unregistered
// connection is a silent no-op: it returns a zero Participant and false,
// which is exactly what a settings update racing a disconnect should do.
func (r *Registry) Update(connID string, settings Settings) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return Participant{}, false
	}

	changed := false

	if settings.DisplayName != nil {
		name := strings.TrimSpace(*settings.DisplayName)
		if name == "" {
			name = DefaultDisplayName
		}
		p.DisplayName = name
	}
	if settings.Channel != nil {
		channel := NormalizeChannel(*settings.Channel)
		if channel != p.Channel {
			p.Channel = channel
			changed = true
		}
	}
	if settings.Latitude != nil {
		if p.Latitude == nil || *p.Latitude != *settings.Latitude {
			lat := *settings.Latitude
			p.Latitude = &lat
			changed = true
		}
	}
	if settings.Longitude != nil {
		if p.Longitude == nil || *p.Longitude != *settings.Longitude {
			lon := *settings.Longitude
			p.Longitude = &lon
			changed = true
		}
	}
	if settings.RadiusMiles != nil {
		if p.RadiusMiles != *settings.RadiusMiles {
			p.RadiusMiles = *settings.RadiusMiles
			changed = true
		}
	}

	return p.clone(), changed
}

// Get returns a copy of the participant for connID, if registered.
func (r *Registry) Get(connID string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[connID]
	if !ok {
		return Participant{}, false
	}
	return p.clone(), true
}

// Deregister removes the participant for connID. Idempotent.
func (r *Registry) Deregister(connID string) {
	r.mu.Lock()
	delete(r.participants, connID)
	r.mu.Unlock()
}

// All returns a point-in-time copy of every registered participant, so
// fan-out iteration is never corrupted by a concurrent deregister.
func (r *Registry) All() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		all = append(all, p.clone())
	}
	return all
}

// Len returns the number of currently connected participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}
