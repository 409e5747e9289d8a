package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/murmurchat/murmur/internal/chat"
	"github.com/murmurchat/murmur/internal/models"
	"github.com/murmurchat/murmur/internal/store"
)

func newTestEnv(t *testing.T) (*Env, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening in-memory sqlite: %v", err)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	env := &Env{
		Store: st,
		Chat:  chat.NewService(st, chat.Config{SnapshotDelay: time.Millisecond}),
	}

	router := gin.New()
	router.GET("/api/posts", env.GetPosts)
	router.POST("/api/posts/:id/vote", env.VoteOnPost)
	router.GET("/api/ads", env.GetActiveAds)
	return env, router
}

func seedPost(t *testing.T, env *Env, id string) {
	t.Helper()
	err := env.Store.CreatePost(context.Background(), &models.Post{
		ID:          id,
		SessionID:   "session-" + id,
		DisplayName: "Anonymous",
		Message:     "message " + id,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding post %s: %v", id, err)
	}
}

func TestVoteOnPostHappyPath(t *testing.T) {
	env, router := newTestEnv(t)
	seedPost(t, env, "p1")

	body := `{"sessionId": "voter-1", "type": "up"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts/p1/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Action string `json:"action"`
		Votes  struct {
			Up   int64 `json:"up"`
			Down int64 `json:"down"`
		} `json:"votes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Action != "added" || resp.Votes.Up != 1 {
		t.Errorf("response = %+v, want action=added up=1", resp)
	}
}

func TestVoteOnPostRejectsInvalidType(t *testing.T) {
	env, router := newTestEnv(t)
	seedPost(t, env, "p1")

	body := `{"sessionId": "voter-1", "type": "sideways"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts/p1/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestVoteOnMissingPostIs404(t *testing.T) {
	_, router := newTestEnv(t)

	body := `{"sessionId": "voter-1", "type": "down"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts/nope/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetPostsReturnsRecentHistory(t *testing.T) {
	env, router := newTestEnv(t)
	seedPost(t, env, "p1")
	seedPost(t, env, "p2")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var posts []models.Post
	if err := json.Unmarshal(w.Body.Bytes(), &posts); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("got %d posts, want 2", len(posts))
	}
}
