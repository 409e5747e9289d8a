package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/murmurchat/murmur/internal/chat"
	"github.com/murmurchat/murmur/internal/db"
	routes "github.com/murmurchat/murmur/internal/http"
	"github.com/murmurchat/murmur/internal/store"
)

const retentionSweepInterval = 10 * time.Minute

func main() {
	// Load .env first. Missing file is fine: production sets env vars
	// directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	// 1. Initialize Database
	database, err := db.Init()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 2. Run Migrations
	st := store.New(database)
	log.Println("Running database migrations...")
	if err := st.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete.")

	// 3. Initialize the chat core
	geofence, _ := strconv.ParseBool(os.Getenv("GEOFENCE_ENABLED"))
	if geofence {
		log.Println("Geofenced matching enabled")
	}
	chatService := chat.NewService(st, chat.Config{Geofence: geofence})

	// 4. Retention sweeper: hard-delete posts past their lifetime.
	go runRetentionSweeper(st)

	// 5. Router and routes
	router := gin.New()
	routes.SetupRoutes(router, st, chatService)

	// 6. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// runRetentionSweeper periodically removes posts older than
// RETENTION_HOURS (default 24). Swept posts disappear silently; clients
// find out on their next snapshot.
func runRetentionSweeper(st *store.Store) {
	hours := 24
	if v := os.Getenv("RETENTION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		} else {
			log.Printf("Invalid RETENTION_HOURS %q, using %dh", v, hours)
		}
	}
	retention := time.Duration(hours) * time.Hour

	for {
		cutoff := time.Now().Add(-retention)
		removed, err := st.DeletePostsBefore(context.Background(), cutoff)
		if err != nil {
			log.Printf("Retention sweep failed: %v", err)
		} else if removed > 0 {
			log.Printf("Retention sweep removed %d posts older than %s", removed, retention)
		}
		time.Sleep(retentionSweepInterval)
	}
}
