package http

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/murmurchat/murmur/internal/chat"
	"github.com/murmurchat/murmur/internal/store"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, st *store.Store, chatService *chat.Service) {

	// --- Dependencies ---
	env := &Env{Store: st, Chat: chatService}

	// --- Middleware ---
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*" // Default to allow all for local dev
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// --- Rate Limiter Setup ---
	limiter := NewIPRateLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			limiter.Sweep()
		}
	}()

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/posts", env.GetPosts)
		api.POST("/posts/:id/vote", RateLimitMiddleware(limiter), env.VoteOnPost)
		api.POST("/upload", RateLimitMiddleware(limiter), env.UploadImage)
		api.GET("/ads", env.GetActiveAds)

		admin := api.Group("", AdminAuthMiddleware())
		{
			admin.DELETE("/posts/:id", env.DeletePost)
			admin.GET("/admin/stats", env.GetStats)
			admin.GET("/admin/ads", env.GetAllAds)
			admin.POST("/admin/ads", env.CreateAd)
			admin.PUT("/admin/ads/:id", env.UpdateAd)
			admin.DELETE("/admin/ads/:id", env.DeleteAd)
		}
	}

	// --- WebSocket Route ---
	router.GET("/ws", func(c *gin.Context) {
		chat.ServeWs(chatService, c.Writer, c.Request)
	})

	// --- Static Files ---
	// This MUST come AFTER the API routes.
	router.Static("/uploads", UploadDir())
	router.StaticFile("/", "./public/index.html")
}
