package models

import "time"

// Vote types as stored in the votes table.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Post is one chat message, persisted until an admin, the community, or
// the retention sweep removes it. The author's sessionId/displayName are
// a snapshot taken at send time; later renames do not rewrite history.
type Post struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	SessionID   string    `gorm:"not null;size:36;index" json:"sessionId"`
	DisplayName string    `gorm:"not null" json:"displayName"`
	Message     string    `gorm:"not null" json:"message"`
	Image       string    `json:"image,omitempty"`
	Channel     string    `gorm:"index" json:"channel"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `gorm:"index" json:"timestamp"`
	Votes       []Vote    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// Vote is one voter's current stance on a post. At most one row per
// (post, voter) pair; re-casting the same type deletes the row, casting
// the opposite type flips it in place.
type Vote struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	PostID         string    `gorm:"not null;size:36;uniqueIndex:idx_votes_post_voter" json:"postId"`
	VoterSessionID string    `gorm:"not null;size:36;uniqueIndex:idx_votes_post_voter" json:"voterSessionId"`
	Type           string    `gorm:"not null;size:8" json:"type"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Ad is a promotional entry managed through the admin API. Only active
// ads are served to clients.
type Ad struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	LinkURL   string    `json:"linkUrl,omitempty"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
