package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"dormportal-backend/config"
	"dormportal-backend/internal/api"
	"dormportal-backend/internal/db"
	"dormportal-backend/internal/notification"
	"dormportal-backend/internal/registry"
	"dormportal-backend/internal/store"
	"dormportal-backend/internal/timer"
	"dormportal-backend/internal/ws"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "dormportal-backend ", log.LstdFlags)

	// Load environment overrides for local development; missing file is fine.
	if err := godotenv.Load(); err == nil {
		logger.Println("loaded environment from .env")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.Session.Secret = secret
	}
	if cfg.Session.Secret == "" {
		logger.Fatalf("session secret must be configured (config file or SESSION_SECRET)")
	}

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Residence registry and the store layer on top of it
	reg := registry.Default()
	appStore := store.NewGormStore(gormDB, reg)
	logger.Println("data store initialized")

	// Live feed hub plus the notification workers behind it
	hub := ws.NewHub()
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, hub, &webpushOptions)
	pool.Start(ctx)

	// Cycle timer engine sweeps expired timers and hands them to the pool
	timers := timer.NewEngine(gormDB, pool, cfg.Timer.PollInterval)
	go timers.Run(ctx)

	// Initialize router
	router := api.NewRouter(cfg, appStore, reg, hub, timers, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
