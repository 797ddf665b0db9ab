package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"embertv/api"
	"embertv/config"
	"embertv/handlers"
	"embertv/internal/jsonstore"
	"embertv/services/analytics"
	"embertv/services/channels"
	"embertv/services/ingest"
	"embertv/services/plans"
	"embertv/services/playlists"
	"embertv/services/scheduler"
	"embertv/services/sessions"
	"embertv/services/users"
	"embertv/services/viewers"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {

	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 EmberTV Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("EMBERTV_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		// Ensure log directory exists
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	dataDir := settings.Storage.DataDirectory
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory %s: %v", dataDir, err)
	}

	store := jsonstore.NewOS()

	// Initialize services
	usersSvc, err := users.NewService(store, dataDir)
	if err != nil {
		log.Fatalf("failed to initialize users service: %v", err)
	}
	viewersSvc := viewers.NewService(store, dataDir)
	sessionsSvc := sessions.NewService(store, dataDir, cfgManager)
	plansSvc := plans.NewService(store, dataDir)
	channelsSvc := channels.NewService(store, dataDir)
	analyticsSvc := analytics.NewService(store, dataDir)

	fetcher := ingest.NewFetcher()
	playlistsSvc := playlists.NewService(store, dataDir, fetcher)

	schedulerSvc := scheduler.NewService(cfgManager, playlistsSvc)
	if err := schedulerSvc.Start(context.Background()); err != nil {
		log.Fatalf("failed to start refresh scheduler: %v", err)
	}

	limiter := handlers.NewLimiter(
		settings.Security.RateLimit,
		time.Duration(settings.Security.RateWindowSecs)*time.Second,
		settings.Security.MaxLoginAttempts,
		time.Duration(settings.Security.LockoutMinutes)*time.Minute,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(usersSvc, viewersSvc, sessionsSvc, limiter)
	playlistsHandler := handlers.NewPlaylistsHandler(playlistsSvc)
	channelsHandler := handlers.NewChannelsHandler(channelsSvc, sessionsSvc, viewersSvc, usersSvc, cfgManager)
	plansHandler := handlers.NewPlansHandler(plansSvc, viewersSvc)
	viewersHandler := handlers.NewViewersHandler(viewersSvc, sessionsSvc)
	usersHandler := handlers.NewUsersHandler(usersSvc)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc, sessionsSvc)
	settingsHandler := handlers.NewSettingsHandler(cfgManager)

	// Setup router
	r := mux.NewRouter()
	api.Register(
		r,
		authHandler,
		playlistsHandler,
		channelsHandler,
		plansHandler,
		viewersHandler,
		usersHandler,
		analyticsHandler,
		settingsHandler,
		sessionsSvc,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := schedulerSvc.Stop(shutdownCtx); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
