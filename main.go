package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/config"
	"github.com/civicledger/civicledger-engine/pkg/database"
	"github.com/civicledger/civicledger-engine/pkg/handlers"
	"github.com/civicledger/civicledger-engine/pkg/logging"
	"github.com/civicledger/civicledger-engine/pkg/middleware"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Int("sweep_interval_minutes", cfg.Scoring.SweepIntervalMinutes))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations run on a database/sql connection; the pool comes after.
	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Repositories
	politicianRepo := repositories.NewPoliticianRepository(db.Pool)
	actionRepo := repositories.NewActionRepository(db.Pool)
	sourceRepo := repositories.NewEvidenceSourceRepository(db.Pool)
	scoreRepo := repositories.NewScoreRepository(db.Pool)

	// Services
	politicianService := services.NewPoliticianService(politicianRepo, logger)
	actionService := services.NewActionService(db, actionRepo, sourceRepo, politicianRepo, logger)
	scoreService := services.NewScoreService(db, scoreRepo, actionRepo, politicianRepo, logger)
	moderationService := services.NewModerationService(db, actionRepo, scoreService, logger)

	// Auth
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.EnableVerification)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Background sweep keeps days-of-silence current between verifications.
	worker := services.NewRecomputeWorker(scoreService,
		time.Duration(cfg.Scoring.SweepIntervalMinutes)*time.Minute, logger)
	worker.Start(ctx)
	defer worker.Stop()

	// Routes
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, worker.State, logger).RegisterRoutes(mux)
	handlers.NewPoliticiansHandler(politicianService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewActionsHandler(actionService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewModerationHandler(moderationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewScoresHandler(scoreService, logger).RegisterRoutes(mux, authMiddleware)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting civicledger-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}
