// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marga-Ghale/protolab-backend/internal/api/handlers"
	"github.com/Marga-Ghale/protolab-backend/internal/api/middleware"
	"github.com/Marga-Ghale/protolab-backend/internal/config"
	"github.com/Marga-Ghale/protolab-backend/internal/cron"
	"github.com/Marga-Ghale/protolab-backend/internal/db"
	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/service"
	"github.com/Marga-Ghale/protolab-backend/internal/socket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ============================================
	// Initialize Workspace Store
	// ============================================
	store := repository.NewMemoryWorkspaceStore()

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	var snapshotter *repository.Snapshotter
	if cfg.RedisURL != "" {
		var err error
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (running single instance)", err)
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis enabled")

			snapshotter = repository.NewSnapshotter(redisDB, store)
			if n, err := snapshotter.Load(ctx); err != nil {
				log.Printf("⚠️ Failed to restore workspace snapshot: %v", err)
			} else if n > 0 {
				log.Printf("📦 Restored %d workspaces from snapshot", n)
			}
		}
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	if redisDB != nil {
		relay := socket.NewRedisRelay(redisDB.Client, hub)
		if err := relay.Subscribe(ctx); err != nil {
			log.Printf("⚠️ Redis relay unavailable: %v (events stay local)", err)
		} else {
			hub.SetRelay(relay)
			log.Println("📡 Cross-instance relay enabled")
		}
	}
	go hub.Run(ctx)
	broadcaster := socket.NewBroadcaster(hub)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:    cfg,
		Store:     store,
		Publisher: broadcaster,
	})
	log.Println("✨ All services initialized")

	wsHandler := socket.NewHandler(hub, services.Auth, services.Workspace)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	var saver cron.SnapshotSaver
	if snapshotter != nil {
		saver = snapshotter
	}
	cronScheduler := cron.NewScheduler(services.Workspace, hub, saver, cfg.SnapshotSchedule, cfg.PresenceTimeout)
	if err := cronScheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"cache":      getCacheStatus(c.Request.Context(), redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
		})
	})

	collab := r.Group("/api/collab")
	{
		collab.GET("/ws", wsHandler.HandleWebSocket)

		api := collab.Group("")
		api.Use(middleware.OptionalAuthMiddleware(services.Auth))
		handlers.NewHandlers(services).RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	cronScheduler.Stop()

	if snapshotter != nil {
		if n, err := snapshotter.Save(shutdownCtx); err != nil {
			log.Printf("⚠️ Final snapshot failed: %v", err)
		} else {
			log.Printf("📦 Saved %d workspaces", n)
		}
	}

	stop()
	log.Println("Server exited")
}

func getCacheStatus(ctx context.Context, redisDB *db.RedisDB) string {
	if redisDB == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisDB.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "connected"
}
