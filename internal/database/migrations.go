package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// Migrator applies the analyses and feedback schema migrations from the
// configured migrations directory.
type Migrator struct {
	migrate *migrate.Migrate
	log     *logrus.Entry
}

// NewMigrator builds a migrator for the given database URL. The migrations
// directory comes from the database configuration.
func NewMigrator(databaseURL string, cfg *domain.DatabaseConfig, logger *logrus.Logger) (*Migrator, error) {
	m, err := migrate.New("file://"+cfg.MigrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migration source %s: %w", cfg.MigrationsPath, err)
	}

	return &Migrator{
		migrate: m,
		log:     logger.WithField("migrations_path", cfg.MigrationsPath),
	}, nil
}

// Up applies all pending schema migrations.
func (m *Migrator) Up(ctx context.Context) error {
	m.log.Info("Applying analysis schema migrations")

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("Analysis schema is up to date")
			return nil
		}
		return fmt.Errorf("applying schema migrations: %w", err)
	}

	m.logVersion("Analysis schema migrated")
	return nil
}

// Rollback reverts the most recent schema migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	m.log.Info("Rolling back one schema migration")

	if err := m.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("No schema migrations to roll back")
			return nil
		}
		return fmt.Errorf("rolling back schema migration: %w", err)
	}

	m.logVersion("Schema migration rolled back")
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version() (uint, bool, error) {
	return m.migrate.Version()
}

func (m *Migrator) logVersion(msg string) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		m.log.WithError(err).Warn("Could not read schema version")
		return
	}
	m.log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info(msg)
}

// Close releases the migration source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database handle: %w", dbErr)
	}
	return nil
}
