package database

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// RunMigrations brings the schema up to date, applying any migration files
// newer than the version recorded in the database. It refuses to run against
// a dirty schema; a half-applied migration needs operator attention, not a
// retry on boot.
func RunMigrations(db *sql.DB, migrationsPath string, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("failed to close migration database", zap.Error(dbErr))
		}
	}()

	before, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, refusing to migrate", before)
	}

	switch err := m.Up(); err {
	case nil:
		after, _, _ := m.Version()
		logger.Info("schema migrated",
			zap.Uint("from", before), zap.Uint("to", after))
	case migrate.ErrNoChange:
		logger.Info("schema up to date", zap.Uint("version", before))
	default:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
