package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jgirmay/PULSE_GO/pkg/config"
	"github.com/jgirmay/PULSE_GO/pkg/events"
	httphandlers "github.com/jgirmay/PULSE_GO/pkg/http/handlers"
	"github.com/jgirmay/PULSE_GO/pkg/logging"
	"github.com/jgirmay/PULSE_GO/pkg/repository"
	"github.com/jgirmay/PULSE_GO/pkg/security"
	"github.com/jgirmay/PULSE_GO/pkg/services"
	"github.com/jgirmay/PULSE_GO/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logging.Init(logging.LogLevel(cfg.Logging.Level), cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	log.Printf("[INIT] Initializing %s database...", cfg.Database.Dialect)
	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("[INIT] ✓ Database connection established")

	// Initialize repository registry
	registry := repository.NewRegistry(db)
	if err := registry.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repository registry: %v", err)
	}
	log.Println("[INIT] ✓ Repository registry initialized")

	// Start the WebSocket hub
	hub := websocket.NewHub()
	hub.Start()

	// Wire the coordination services
	dispatcher := events.NewHubEventDispatcher(hub)
	presenceService := services.NewPresenceService(registry.PresenceRepository, dispatcher)
	tracker := services.NewActivityTracker(presenceService, cfg.Presence.AwayTimeout, cfg.Presence.OfflineTimeout)
	relay := services.NewSignalingRelay(hub)
	callService := services.NewCallService(registry.CallRepository, relay)

	cipher, err := security.NewCipherFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize message cipher: %v", err)
	}
	archive := services.NewMessageArchive(registry.MessageRepository, cipher)

	wsHandler := websocket.NewClientHandler(hub, presenceService, tracker, relay, archive)
	log.Println("[INIT] ✓ Coordination services wired")

	// Create router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/ws", func(c *gin.Context) {
		wsHandler.ServeHTTP(c.Writer, c.Request)
	})

	httphandlers.RegisterCallRoutes(router, callService)
	httphandlers.RegisterPresenceRoutes(router, presenceService)
	httphandlers.RegisterMessageRoutes(router, archive)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "clients": hub.ClientCount()})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		log.Printf("[SHUTDOWN] Received signal: %v", sig)

		// Give requests 10 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[SHUTDOWN] Server shutdown error: %v", err)
		}

		log.Println("[SHUTDOWN] Stopping WebSocket hub...")
		hub.Stop()

		log.Println("[SHUTDOWN] Closing database connection...")
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}

		log.Println("[SHUTDOWN] ✓ Graceful shutdown complete")
		os.Exit(0)
	}()

	// Start server
	log.Printf("[INFO] Starting HTTP server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server startup error: %v", err)
	}
}

// openDatabase opens a gorm connection for the configured dialect
func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Dialect {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", cfg.Dialect)
	}
}
