package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pneumonia-cds-server/internal/api"
	"github.com/pneumonia-cds-server/internal/config"
	"github.com/pneumonia-cds-server/internal/database"
	"github.com/pneumonia-cds-server/internal/domain"
	"github.com/pneumonia-cds-server/internal/feedback"
	"github.com/pneumonia-cds-server/internal/repository"
	"github.com/pneumonia-cds-server/internal/service"
	"github.com/pneumonia-cds-server/pkg/external"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := setupLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting pneumonia CDS server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Apply pending schema migrations
	migrator, err := database.NewMigrator(configManager.GetDatabaseURL(), &cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open schema migrations")
	}
	if err := migrator.Up(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to migrate schema")
	}
	migrator.Close()

	repo := repository.NewAnalysisRepository(db.Pool, logger)

	// Clinician feedback store
	store, err := newFeedbackStore(cfg, configManager.GetDatabaseURL())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open feedback store")
	}
	defer store.Close()

	// Prediction cache is optional; the classifier works without it
	var cache *external.PredictionCache
	if cfg.Cache.RedisURL != "" {
		cache, err = external.NewPredictionCache(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Prediction cache unavailable, classifier responses will not be cached")
			cache = nil
		}
	}

	classifier := external.NewClassifierClient(cfg.Classifier, cache, logger)
	defer classifier.Close()

	analysis, err := service.NewAnalysisService(classifier, repo, cfg.Cache.ReportLRUSize, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create analysis service")
	}

	// Daily retention sweep over the analysis archive
	if cfg.Database.RetentionDays > 0 {
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := analysis.PruneReports(ctx, cfg.Database.RetentionDays); err != nil {
						logger.WithError(err).Warn("Retention sweep failed")
					}
				}
			}
		}()
	}

	server := api.NewServer(cfg, analysis, store, logger)
	server.AddHealthProbe("database", db.Health)
	if cache != nil {
		server.AddHealthProbe("cache", cache.Ping)
	}
	server.AddHealthProbe("classifier", func(context.Context) error {
		if state := classifier.BreakerState(); state == gobreaker.StateOpen {
			return fmt.Errorf("circuit breaker %s", state)
		}
		return nil
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newFeedbackStore opens the configured feedback backend.
func newFeedbackStore(cfg *domain.Config, databaseURL string) (feedback.Store, error) {
	switch cfg.Feedback.Backend {
	case "sqlite":
		return feedback.NewSQLiteStore(cfg.Feedback.SQLitePath)
	default:
		return feedback.NewPostgresStoreFromURL(databaseURL)
	}
}

// setupLogger configures logrus from the logging section.
func setupLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}
