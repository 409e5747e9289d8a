// Package store implements the persistence layer on GORM: posts, votes,
// promotional ads, aggregate statistics, and the retention sweep.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/murmurchat/murmur/internal/models"
)

// ErrPostNotFound is returned when an operation targets a post id that
// does not exist (or was already deleted).
var ErrPostNotFound = errors.New("post not found")

// VoteAction describes what AddVote did with the voter's ballot.
type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteRemoved VoteAction = "removed"
	VoteUpdated VoteAction = "updated"
)

// VoteCounts holds the current tallies for one post.
type VoteCounts struct {
	Up   int64 `json:"up"`
	Down int64 `json:"down"`
}

// Stats is the aggregate snapshot served on the admin dashboard.
type Stats struct {
	Posts int64 `json:"posts"`
	Votes int64 `json:"votes"`
	Ads   int64 `json:"ads"`
}

// Store wraps a GORM connection. All methods are safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by the given connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all persisted models.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.Post{}, &models.Vote{}, &models.Ad{})
}

// CreatePost persists a new post. The id must already be set by the caller.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

// RecentPosts returns up to limit posts in descending recency order.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// AddVote records a ballot for (postID, voter). A voter holds at most one
// vote per post: casting the same type again removes it, casting the
// opposite type flips the existing row.
func (s *Store) AddVote(ctx context.Context, postID, voterSessionID, voteType string) (VoteAction, error) {
	var action VoteAction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		var vote models.Vote
		err := tx.Where("post_id = ? AND voter_session_id = ?", postID, voterSessionID).
			First(&vote).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.Vote{PostID: postID, VoterSessionID: voterSessionID, Type: voteType}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			action = VoteAdded
		case err != nil:
			return err
		case vote.Type == voteType:
			// Same ballot twice toggles it off.
			if err := tx.Delete(&vote).Error; err != nil {
				return err
			}
			action = VoteRemoved
		default:
			if err := tx.Model(&vote).Update("type", voteType).Error; err != nil {
				return err
			}
			action = VoteUpdated
		}
		return nil
	})

	return action, err
}

// PostVoteCounts returns the current up/down tallies for a post.
func (s *Store) PostVoteCounts(ctx context.Context, postID string) (VoteCounts, error) {
	var counts VoteCounts
	if err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("post_id = ? AND type = ?", postID, models.VoteUp).
		Count(&counts.Up).Error; err != nil {
		return counts, err
	}
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("post_id = ? AND type = ?", postID, models.VoteDown).
		Count(&counts.Down).Error
	return counts, err
}

// DownvoterCount returns the number of distinct voters currently holding
// a downvote on the post. Rows are unique per (post, voter), so a plain
// count is already distinct.
func (s *Store) DownvoterCount(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("post_id = ? AND type = ?", postID, models.VoteDown).
		Count(&n).Error
	return n, err
}

// DeletePost removes a post and its votes. It reports whether a post row
// was actually deleted, so a second delete of the same id is a safe no-op.
func (s *Store) DeletePost(ctx context.Context, postID string) (bool, error) {
	var deleted bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", postID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})

	return deleted, err
}

// DeletePostsBefore hard-deletes every post created before cutoff,
// together with its votes. Used by the retention sweeper.
func (s *Store) DeletePostsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Post{}).
			Where("created_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})

	return removed, err
}

// Stats returns aggregate row counts for the admin dashboard.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&stats.Posts).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Vote{}).Count(&stats.Votes).Error; err != nil {
		return stats, err
	}
	err := s.db.WithContext(ctx).Model(&models.Ad{}).Count(&stats.Ads).Error
	return stats, err
}
