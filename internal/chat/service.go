package chat

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/murmurchat/murmur/internal/models"
	"github.com/murmurchat/murmur/internal/store"
)

// Store is the persistence surface the core consumes. Implemented by
// *store.Store; faked in tests.
type Store interface {
	CreatePost(ctx context.Context, post *models.Post) error
	RecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	AddVote(ctx context.Context, postID, voterSessionID, voteType string) (store.VoteAction, error)
	PostVoteCounts(ctx context.Context, postID string) (store.VoteCounts, error)
	DownvoterCount(ctx context.Context, postID string) (int64, error)
	DeletePost(ctx context.Context, postID string) (bool, error)
}

// Config tunes the core. Zero values take the defaults below.
type Config struct {
	// Geofence gates location-based filtering on top of channel
	// matching. Off by default: plain channel rooms.
	Geofence bool
	// HistoryLimit caps the posts fetched for a snapshot.
	HistoryLimit int
	// SnapshotDelay is how long after connect the initial snapshot
	// waits, giving the client's first updateSettings a chance to land.
	SnapshotDelay time.Duration
	// DownvoteThreshold is the distinct-downvoter count at which a post
	// is auto-removed.
	DownvoteThreshold int64
}

const (
	defaultHistoryLimit      = 100
	defaultSnapshotDelay     = 500 * time.Millisecond
	defaultDownvoteThreshold = 3
)

// Service ties the registry, matcher, hub, and store together and owns
// every operation triggered by a connection or the HTTP API.
type Service struct {
	store    Store
	registry *Registry
	matcher  Matcher
	hub      *Hub
	cfg      Config
}

// NewService wires up a core around the given store.
func NewService(st Store, cfg Config) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.SnapshotDelay <= 0 {
		cfg.SnapshotDelay = defaultSnapshotDelay
	}
	if cfg.DownvoteThreshold <= 0 {
		cfg.DownvoteThreshold = defaultDownvoteThreshold
	}

	registry := NewRegistry()
	matcher := Matcher{Geofence: cfg.Geofence}

	return &Service{
		store:    st,
		registry: registry,
		matcher:  matcher,
		hub:      NewHub(registry, matcher),
		cfg:      cfg,
	}
}

// ConnectedCount returns how many participants are currently online.
func (s *Service) ConnectedCount() int {
	return s.registry.Len()
}

// Connect registers a fresh participant for the connection, attaches its
// client to the hub, starts the pumps, and schedules the initial
// snapshot.
func (s *Service) Connect(conn *websocket.Conn, remoteAddr string) *Client {
	connID := uuid.NewString()
	p := s.registry.Register(connID)

	c := newClient(connID, conn, s)
	s.hub.attach(c)

	go c.writePump()
	go c.readPump()

	time.AfterFunc(s.cfg.SnapshotDelay, func() { s.sendSnapshot(connID) })

	log.Printf("Client connected from %s (session %s). Online: %d", remoteAddr, p.SessionID, s.registry.Len())
	return c
}

// Disconnect tears down one connection: the participant leaves the
// registry synchronously, so fan-outs started after this point never
// target it. Idempotent.
func (s *Service) Disconnect(connID string) {
	s.registry.Deregister(connID)
	if c := s.hub.detach(connID); c != nil {
		c.close()
		log.Printf("Client %s disconnected. Online: %d", connID, s.registry.Len())
	}
}

// UpdateSettings merges a partial settings update into the participant.
// Matching-affecting changes refresh the participant's snapshot; a
// display-name change alone does not. Updates racing a disconnect are
// silently dropped.
func (s *Service) UpdateSettings(connID string, settings Settings) {
	_, changed := s.registry.Update(connID, settings)
	if changed {
		go s.sendSnapshot(connID)
	}
}

// SendMessage persists a post authored by the participant behind connID
// and fans it out to matching participants. The author's identity is
// snapshotted onto the post at send time. A store failure is reported to
// the sender as an error event and abandoned; no retry.
func (s *Service) SendMessage(connID string, msg SendMessagePayload) {
	p, ok := s.registry.Get(connID)
	if !ok {
		return
	}
	if s.cfg.Geofence && !p.HasLocation() {
		s.hub.SendTo(connID, Event{Type: EventError, Data: "location required before sending messages"})
		return
	}

	post := models.Post{
		ID:          uuid.NewString(),
		SessionID:   p.SessionID,
		DisplayName: p.DisplayName,
		Message:     msg.Message,
		Image:       msg.Image,
		Channel:     p.Channel,
		CreatedAt:   time.Now(),
	}
	if p.HasLocation() {
		post.Latitude = *p.Latitude
		post.Longitude = *p.Longitude
	}

	if err := s.store.CreatePost(context.Background(), &post); err != nil {
		log.Printf("Error creating post: %v", err)
		s.hub.SendTo(connID, Event{Type: EventError, Data: "failed to save message"})
		return
	}

	s.hub.BroadcastNewPost(post)
}

// CastVote records a ballot, fans out the fresh tallies to every
// connection, and runs the moderation check when the voter now holds a
// downvote on the post.
func (s *Service) CastVote(ctx context.Context, postID, voterSessionID, voteType string) (store.VoteAction, store.VoteCounts, error) {
	action, err := s.store.AddVote(ctx, postID, voterSessionID, voteType)
	if err != nil {
		return "", store.VoteCounts{}, err
	}

	counts, err := s.store.PostVoteCounts(ctx, postID)
	if err != nil {
		return action, store.VoteCounts{}, err
	}

	s.hub.BroadcastVoteUpdate(postID, counts)

	if voteType == models.VoteDown && action != store.VoteRemoved {
		s.checkModeration(ctx, postID)
	}
	return action, counts, nil
}

// DeletePost removes a post on behalf of an admin and announces it to
// every connection. Deleting an unknown or already-deleted post reports
// false without a broadcast.
func (s *Service) DeletePost(ctx context.Context, postID string) (bool, error) {
	deleted, err := s.store.DeletePost(ctx, postID)
	if err != nil || !deleted {
		return deleted, err
	}
	log.Printf("Post %s deleted by admin", postID)
	s.hub.BroadcastDeletion(postID, DeleteReasonAdmin, 0)
	return true, nil
}

// checkModeration recounts distinct downvoters from the store — never an
// in-memory tally, since ballots get added, removed, and flipped — and
// removes the post at the threshold. The store delete is idempotent, so
// two racing breaches produce a single deletion broadcast.
func (s *Service) checkModeration(ctx context.Context, postID string) {
	n, err := s.store.DownvoterCount(ctx, postID)
	if err != nil {
		log.Printf("Error counting downvotes for %s: %v", postID, err)
		return
	}
	if n < s.cfg.DownvoteThreshold {
		return
	}

	deleted, err := s.store.DeletePost(ctx, postID)
	if err != nil {
		log.Printf("Error auto-deleting post %s: %v", postID, err)
		return
	}
	if !deleted {
		// Someone else got there first; nothing to announce.
		return
	}

	log.Printf("Post %s auto-removed after %d downvotes", postID, n)
	s.hub.BroadcastDeletion(postID, DeleteReasonAutoModeration, n)
}

// sendSnapshot pushes the participant's filtered view of recent history
// as a single posts event: newest HistoryLimit posts, reversed to
// ascending chronological order, filtered by the matching rule. The
// client replaces its view wholesale.
func (s *Service) sendSnapshot(connID string) {
	p, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	recent, err := s.store.RecentPosts(context.Background(), s.cfg.HistoryLimit)
	if err != nil {
		log.Printf("Error loading snapshot for %s: %v", connID, err)
		s.hub.SendTo(connID, Event{Type: EventError, Data: "failed to load history"})
		return
	}

	filtered := make([]models.Post, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if s.matcher.Matches(p, recent[i]) {
			filtered = append(filtered, recent[i])
		}
	}

	s.hub.SendTo(connID, Event{Type: EventPosts, Data: filtered})
}
