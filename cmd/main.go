package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brainiak-app/brainiak-core/config"
	"github.com/brainiak-app/brainiak-core/db"
	"github.com/brainiak-app/brainiak-core/handlers"
	"github.com/brainiak-app/brainiak-core/realtime"
	"github.com/brainiak-app/brainiak-core/repositories"
	api "github.com/brainiak-app/brainiak-core/routes"
	"github.com/brainiak-app/brainiak-core/services"
	"github.com/brainiak-app/brainiak-core/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository()
	questionRepo := repositories.NewPostgresQuestionRepository()
	queueRepo := repositories.NewPostgresQueueRepository()
	battleRoomRepo := repositories.NewPostgresBattleRoomRepository()
	gameRoomRepo := repositories.NewPostgresGameRoomRepository()
	answerRepo := repositories.NewPostgresAnswerRepository()
	tournamentRepo := repositories.NewPostgresTournamentRepository()
	participantRepo := repositories.NewPostgresParticipantRepository()
	matchRepo := repositories.NewPostgresMatchRepository()
	standingRepo := repositories.NewPostgresStandingRepository()
	chatRepo := repositories.NewPostgresChatRepository()

	authService := services.NewAuthService(txManager, userRepo, cfg.JWTSecretKey, logger)
	profileService := services.NewProfileService(txManager, userRepo, uploader, logger)
	matchmakingService := services.NewMatchmakingService(txManager, queueRepo, userRepo, gameRoomRepo, questionRepo, hub, logger)
	battleRoomService := services.NewBattleRoomService(txManager, battleRoomRepo, userRepo, gameRoomRepo, questionRepo, hub, logger)
	gameService := services.NewGameService(txManager, gameRoomRepo, answerRepo, questionRepo, userRepo, hub, logger)
	tournamentService := services.NewTournamentService(
		txManager,
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		standingRepo,
		chatRepo,
		gameRoomRepo,
		questionRepo,
		userRepo,
		hub,
		logger,
	)
	gameService.SetMatchCompleter(tournamentService)
	logger.Info("services initialized")

	sweeper, err := services.NewQueueSweeper(matchmakingService, cfg.QueueSweepInterval, cfg.QueueEntryTTL, logger)
	if err != nil {
		logger.Error("failed to create queue sweeper", slog.Any("error", err))
		os.Exit(1)
	}
	if err := sweeper.Start(); err != nil {
		logger.Error("failed to start queue sweeper", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			logger.Error("failed to stop queue sweeper", slog.Any("error", err))
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	matchmakingHandler := handlers.NewMatchmakingHandler(matchmakingService)
	battleRoomHandler := handlers.NewBattleRoomHandler(battleRoomService)
	gameHandler := handlers.NewGameHandler(gameService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		profileHandler,
		matchmakingHandler,
		battleRoomHandler,
		gameHandler,
		tournamentHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
