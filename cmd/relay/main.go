package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/peermesh/videomesh/config"
	"github.com/peermesh/videomesh/internal/handlers"
	"github.com/peermesh/videomesh/internal/presence"
	"github.com/peermesh/videomesh/internal/relay"
)

func main() {
	cfg := config.Load()

	// Presence mirroring is optional; the relay is fully functional
	// without Redis.
	var store *presence.Store
	if cfg.Redis.Addr != "" {
		var err error
		store, err = presence.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer store.Close()
		log.Println("Redis presence mirror enabled")
	}

	hub := relay.New(store)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	// Health endpoint for external orchestration.
	router.GET("/healthz", handlers.Health(cfg.Tag))

	apiGroup := router.Group("/api")
	{
		// Guest token issuance (public). Enforced on the signaling
		// endpoint only when REQUIRE_AUTH is set.
		apiGroup.POST("/token", handlers.IssueToken(cfg.JWTSecret))

		// Public room occupancy.
		apiGroup.GET("/rooms/:roomId", handlers.RoomInfo(hub))
	}

	// WebSocket signaling endpoint. Rooms are joined over the channel.
	router.GET("/ws/signal", handlers.Signaling(hub, cfg.RequireAuth, cfg.JWTSecret))

	log.Printf("Starting signaling relay on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
