// Package main provides the lightweight entry point for the pneumonia CDS
// server. This version requires no external databases: analyses live in the
// in-process cache and clinician feedback goes to a local SQLite file.
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
	"github.com/pneumonia-cds-server/internal/domain"
	"github.com/pneumonia-cds-server/internal/feedback"
	"github.com/pneumonia-cds-server/internal/service"
	"github.com/pneumonia-cds-server/pkg/external"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	logger := liteLogger(cfg)
	logger.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"port":     cfg.HTTPPort,
	}).Info("Starting pneumonia CDS server (lite)")

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// SQLite feedback store in the data directory
	store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open feedback store")
	}
	defer store.Close()

	// No Redis in lite mode; classifier verdicts are not cached
	classifier := external.NewClassifierClient(domain.ClassifierConfig{
		BaseURL: cfg.ClassifierURL,
		Timeout: cfg.ClassifierTimeout,
	}, nil, logger)

	// No repository either; reports survive only in the in-process cache
	analysis, err := service.NewAnalysisService(classifier, nil, cfg.CacheMaxItems, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create analysis service")
	}

	server := api.NewServer(liteServerConfig(cfg), analysis, store, logger)
	server.AddHealthProbe("classifier", func(context.Context) error {
		if state := classifier.BreakerState(); state == gobreaker.StateOpen {
			return fmt.Errorf("circuit breaker %s", state)
		}
		return nil
	})

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Pneumonia CDS server (lite) stopped")
}

// liteServerConfig maps the lite configuration onto the server's config shape.
func liteServerConfig(cfg *config.LiteConfig) *domain.Config {
	return &domain.Config{
		Server: domain.ServerConfig{
			Host:         "0.0.0.0",
			Port:         cfg.HTTPPort,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			RateLimit:    20,
			RateBurst:    40,
		},
		Cache: domain.CacheConfig{
			ReportLRUSize: cfg.CacheMaxItems,
		},
		Logging: domain.LoggingConfig{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		},
	}
}

func liteLogger(cfg *config.LiteConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
