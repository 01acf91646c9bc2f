// Package main is the entry point for glow-syncd, the development sync
// backend. It only handles dependency injection and server startup.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calmloop/glowcore/internal/domain/rules"
	"github.com/calmloop/glowcore/internal/events"
	"github.com/calmloop/glowcore/internal/infra/remote"
	"github.com/calmloop/glowcore/internal/infra/storage"
	"github.com/calmloop/glowcore/internal/network"
	"github.com/calmloop/glowcore/internal/platform/config"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
	"github.com/joho/godotenv"
)

// sqlitePersisterAdapter writes activity events through to sqlite.
type sqlitePersisterAdapter struct {
	repo *storage.SQLiteActivityRepository
}

func (a *sqlitePersisterAdapter) Append(event events.ActivityEvent) error {
	payload, _ := json.Marshal(event.Payload)
	return a.repo.Append(context.Background(), storage.ActivityRecord{
		ID:        event.ID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		PlayerID:  event.PlayerID,
		Payload:   payload,
	})
}

func main() {
	log.Println("[GLOW-SYNCD] Initializing sync backend...")

	// A missing .env is fine; the defaults cover local development.
	_ = godotenv.Load()

	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("[GLOW-SYNCD] Bad configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	stats := metrics.NewCollector()

	appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	docRepo := storage.NewSQLiteDocumentRepository(db)
	activityRepo := storage.NewSQLiteActivityRepository(db)

	appLogger.Info("Bootstrapping activity log...")
	eventLog := events.NewLog(&sqlitePersisterAdapter{repo: activityRepo})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket hub...")
	hub := network.NewHub(appLogger, stats)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	initialOdds := remote.OddsConfig{Odds: rules.DefaultOdds}
	api := network.NewAPI(
		docRepo,
		activityRepo,
		eventLog,
		hub,
		appLogger,
		stats,
		[]byte(cfg.JWTSecret),
		initialOdds,
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("[GLOW-SYNCD] HTTP API & WS server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if cfg.JWTSecret == "" {
		appLogger.Warn("Running without JWT auth; all documents are writable")
	}

	log.Println("[GLOW-SYNCD] Server running. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[GLOW-SYNCD] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
