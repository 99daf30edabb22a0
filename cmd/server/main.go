package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/api"
	"github.com/lukashondrich/open-workinghours-sub001/internal/clock"
	"github.com/lukashondrich/open-workinghours-sub001/internal/config"
	"github.com/lukashondrich/open-workinghours-sub001/internal/database"
	"github.com/lukashondrich/open-workinghours-sub001/internal/handler"
	"github.com/lukashondrich/open-workinghours-sub001/internal/location"
	"github.com/lukashondrich/open-workinghours-sub001/internal/notify"
	"github.com/lukashondrich/open-workinghours-sub001/internal/repository"
	"github.com/lukashondrich/open-workinghours-sub001/internal/service"
	"github.com/lukashondrich/open-workinghours-sub001/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	offsets, err := cfg.VerificationOffsets()
	if err != nil {
		log.Fatal("Failed to parse verification offsets: ", err)
	}

	// Repositories
	siteRepo := repository.NewSiteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	store := repository.NewTrackingStore(db)

	// Services
	siteService := service.NewSiteService(siteRepo, cfg.SiteRadiusMinMeters, cfg.SiteRadiusMaxMeters)
	historyService := service.NewHistoryService(sessionRepo, eventRepo)
	summaryService := service.NewSummaryService(sessionRepo)

	// Engine
	sysClock := clock.SystemClock{}
	gateway := location.NewGateway(positionRepo, sysClock, cfg.PositionMaxAge())

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.Multi{notify.LogNotifier{}, notify.NewWebhookNotifier(cfg.NotifyWebhookURL)}
	}

	engine := tracking.NewEngine(store, siteService, gateway, notifier, sysClock, tracking.EngineOptions{
		Cooldown:                     cfg.Cooldown(),
		HighConfidenceAccuracyMeters: cfg.HighConfidenceAccuracyMeters,
		ExitMarginMeters:             cfg.ExitDistanceMarginMeters,
		PoorAccuracyCutoffMeters:     cfg.PoorAccuracyCutoffMeters,
		MinimumSessionDuration:       cfg.MinimumSessionDuration(),
		VerificationOffsets:          offsets,
	})
	defer engine.Stop()

	// Resolve or re-arm whatever was pending when the process last died.
	if err := engine.RecoverOnStartup(cfg.RecoveryGrace()); err != nil {
		log.Fatal("Failed to reconcile pending sessions: ", err)
	}

	router := api.SetupRouter(cfg, api.Handlers{
		Sites:       handler.NewSiteHandler(siteService),
		Sessions:    handler.NewSessionHandler(engine, historyService),
		Transitions: handler.NewTransitionHandler(engine, historyService),
		Positions:   handler.NewPositionHandler(positionRepo, gateway),
		Summaries:   handler.NewSummaryHandler(summaryService),
	})

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
