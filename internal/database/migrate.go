package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source

	"github.com/starwatch/sentiment/internal/config"
	"github.com/starwatch/sentiment/internal/logger"
)

func newMigrator(cfg config.DatabaseConfig, migrationsPath string) (*migrate.Migrate, func(), error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create postgres driver: %w", err)
	}

	if absPath, absErr := filepath.Abs(migrationsPath); absErr == nil {
		migrationsPath = absPath
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, func() { db.Close() }, nil
}

// RunMigrations applies all pending migrations.
func RunMigrations(cfg config.DatabaseConfig, migrationsPath string, log logger.Logger) error {
	m, cleanup, err := newMigrator(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No pending migrations", logger.String("migrations_path", migrationsPath))
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Info("Migrations applied", logger.String("migrations_path", migrationsPath))
	return nil
}

// MigrateDown rolls back N migrations (default 1).
func MigrateDown(cfg config.DatabaseConfig, migrationsPath string, steps int, log logger.Logger) error {
	m, cleanup, err := newMigrator(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if steps <= 0 {
		steps = 1
	}

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to roll back", logger.String("migrations_path", migrationsPath))
			return nil
		}
		return fmt.Errorf("rollback migrations: %w", err)
	}

	log.Info("Migrations rolled back", logger.Int("steps", steps))
	return nil
}

// MigrationVersion returns the current schema version and dirty flag.
func MigrationVersion(cfg config.DatabaseConfig, migrationsPath string) (uint, bool, error) {
	m, cleanup, err := newMigrator(cfg, migrationsPath)
	if err != nil {
		return 0, false, err
	}
	defer cleanup()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}

	return version, dirty, nil
}

// ForceMigrationVersion fixes a dirty schema state.
func ForceMigrationVersion(cfg config.DatabaseConfig, migrationsPath string, version int, log logger.Logger) error {
	m, cleanup, err := newMigrator(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}

	log.Info("Migration version forced", logger.Int("version", version))
	return nil
}
