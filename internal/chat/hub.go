package chat

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/murmurchat/murmur/internal/models"
	"github.com/murmurchat/murmur/internal/store"
)

// Hub is the fan-out router. It tracks the live client connections and
// pushes events to them; delivery is best-effort and non-blocking, so a
// slow or dead connection never stalls the loop over the others. The hub
// never mutates the registry or the store.
type Hub struct {
	registry *Registry
	matcher  Matcher

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub returns a hub routing over the given registry with the given
// matching rule.
func NewHub(registry *Registry, matcher Matcher) *Hub {
	return &Hub{
		registry: registry,
		matcher:  matcher,
		clients:  make(map[string]*Client),
	}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c.connID] = c
	h.mu.Unlock()
}

// detach removes and returns the client for connID, or nil if it was
// already gone.
func (h *Hub) detach(connID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return nil
	}
	delete(h.clients, connID)
	return c
}

// clientSnapshot returns a point-in-time copy of the attached clients so
// broadcast iteration is safe against concurrent attach/detach.
func (h *Hub) clientSnapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// BroadcastNewPost pushes a newPost event to every participant the
// matching rule selects, exactly once each. Participants that
// disconnected since the snapshot simply fail the registry lookup or the
// send and are skipped.
func (h *Hub) BroadcastNewPost(post models.Post) {
	payload, ok := marshalEvent(Event{Type: EventNewPost, Data: post})
	if !ok {
		return
	}

	for _, c := range h.clientSnapshot() {
		p, ok := h.registry.Get(c.connID)
		if !ok {
			continue
		}
		if !h.matcher.Matches(p, post) {
			continue
		}
		c.trySend(payload)
	}
}

// BroadcastVoteUpdate pushes fresh tallies to ALL connections,
// regardless of channel or location. Any client may have the post on
// screen from an earlier channel, so tallies are deliberately not
// filtered the way posts are.
func (h *Hub) BroadcastVoteUpdate(postID string, counts store.VoteCounts) {
	h.broadcastAll(Event{Type: EventVoteUpdate, Data: VoteUpdatePayload{
		PostID: postID,
		Votes:  counts,
	}})
}

// BroadcastDeletion announces a deleted post to ALL connections.
// downvotes is only meaningful for auto-moderation and is omitted from
// the payload when zero.
func (h *Hub) BroadcastDeletion(postID, reason string, downvotes int64) {
	h.broadcastAll(Event{Type: EventMessageDeleted, Data: DeletionPayload{
		PostID:        postID,
		Reason:        reason,
		DownvoteCount: downvotes,
	}})
}

// SendTo delivers one event to a single connection. Reports false if the
// connection is gone or its buffer is full.
func (h *Hub) SendTo(connID string, event Event) bool {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	payload, mok := marshalEvent(event)
	if !mok {
		return false
	}
	return c.trySend(payload)
}

func (h *Hub) broadcastAll(event Event) {
	payload, ok := marshalEvent(event)
	if !ok {
		return
	}
	for _, c := range h.clientSnapshot() {
		c.trySend(payload)
	}
}

func marshalEvent(event Event) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling WS event %q: %v", event.Type, err)
		return nil, false
	}
	return payload, true
}
