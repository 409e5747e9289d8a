package chat

import (
	"github.com/murmurchat/murmur/internal/store"
)

// Outbound event types pushed to connected clients.
const (
	EventPosts          = "posts"
	EventNewPost        = "newPost"
	EventVoteUpdate     = "voteUpdate"
	EventMessageDeleted = "messageDeleted"
	EventError          = "error"
)

// Inbound event types accepted from clients.
const (
	EventUpdateSettings = "updateSettings"
	EventSendMessage    = "sendMessage"
)

// Deletion reasons carried on messageDeleted events.
const (
	DeleteReasonAdmin          = "admin"
	DeleteReasonAutoModeration = "auto-moderation"
)

// Event is the JSON envelope for every WebSocket frame in either
// direction.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// VoteUpdatePayload carries fresh tallies for one post. Pushed to all
// connections regardless of channel.
type VoteUpdatePayload struct {
	PostID string           `json:"postId"`
	Votes  store.VoteCounts `json:"votes"`
}

// DeletionPayload announces that a post is gone. DownvoteCount is only
// set for auto-moderation deletions.
type DeletionPayload struct {
	PostID        string `json:"postId"`
	Reason        string `json:"reason"`
	DownvoteCount int64  `json:"downvoteCount,omitempty"`
}

// SendMessagePayload is the body of an inbound sendMessage event.
type SendMessagePayload struct {
	Message string `json:"message"`
	Image   string `json:"image"`
}
