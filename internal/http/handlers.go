package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/murmurchat/murmur/internal/chat"
	"github.com/murmurchat/murmur/internal/models"
	"github.com/murmurchat/murmur/internal/store"
)

// --- Configuration Constants ---
const (
	recentPostsLimit = 100
	rateLimitRPS     = 1.0 / 3.0 // 1 request every 3 seconds
	rateLimitBurst   = 1
)

// --- Structs for request binding ---
type VoteInput struct {
	SessionID string `json:"sessionId" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=up down"`
}

type AdInput struct {
	Title    string `json:"title" binding:"required,min=1,max=200"`
	Content  string `json:"content" binding:"max=2000"`
	ImageURL string `json:"imageUrl" binding:"max=500"`
	LinkURL  string `json:"linkUrl" binding:"max=500"`
	Active   *bool  `json:"active"`
}

// --- Handlers ---
type Env struct {
	Store *store.Store
	Chat  *chat.Service
}

func (e *Env) GetPosts(c *gin.Context) {
	posts, err := e.Store.RecentPosts(c.Request.Context(), recentPostsLimit)
	if err != nil {
		log.Printf("Error fetching posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (e *Env) VoteOnPost(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	action, counts, err := e.Chat.CastVote(c.Request.Context(), c.Param("id"), input.SessionID, input.Type)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		log.Printf("Error processing vote: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action, "votes": counts})
}

func (e *Env) DeletePost(c *gin.Context) {
	deleted, err := e.Chat.DeletePost(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error deleting post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (e *Env) GetStats(c *gin.Context) {
	stats, err := e.Store.Stats(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":     stats.Posts,
		"votes":     stats.Votes,
		"ads":       stats.Ads,
		"connected": e.Chat.ConnectedCount(),
	})
}

// --- Ads ---

func (e *Env) GetActiveAds(c *gin.Context) {
	ads, err := e.Store.ActiveAds(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching ads: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ads"})
		return
	}
	c.JSON(http.StatusOK, ads)
}

func (e *Env) GetAllAds(c *gin.Context) {
	ads, err := e.Store.AllAds(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching ads: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ads"})
		return
	}
	c.JSON(http.StatusOK, ads)
}

func (e *Env) CreateAd(c *gin.Context) {
	var input AdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ad := models.Ad{
		Title:    input.Title,
		Content:  input.Content,
		ImageURL: input.ImageURL,
		LinkURL:  input.LinkURL,
		Active:   true,
	}
	if input.Active != nil {
		ad.Active = *input.Active
	}

	if err := e.Store.CreateAd(c.Request.Context(), &ad); err != nil {
		log.Printf("Error creating ad: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ad"})
		return
	}
	c.JSON(http.StatusCreated, ad)
}

func (e *Env) UpdateAd(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ad ID"})
		return
	}
	var input AdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	update := models.Ad{
		Title:    input.Title,
		Content:  input.Content,
		ImageURL: input.ImageURL,
		LinkURL:  input.LinkURL,
		Active:   true,
	}
	if input.Active != nil {
		update.Active = *input.Active
	}

	ad, err := e.Store.UpdateAd(c.Request.Context(), uint(id), update)
	if err != nil {
		if errors.Is(err, store.ErrAdNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
			return
		}
		log.Printf("Error updating ad: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ad"})
		return
	}
	c.JSON(http.StatusOK, ad)
}

func (e *Env) DeleteAd(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ad ID"})
		return
	}

	deleted, err := e.Store.DeleteAd(c.Request.Context(), uint(id))
	if err != nil {
		log.Printf("Error deleting ad: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ad"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ad deleted successfully"})
}
