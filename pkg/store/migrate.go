package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	applog "github.com/Sriram-PR/fcf-scraper/pkg/log"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations
type Migrator struct {
	m   *migrate.Migrate
	log *logrus.Entry
}

// NewMigrator opens a migrator against dsn using the embedded migration files
func NewMigrator(dsn string, logger *logrus.Entry) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: create migrator: %w", utils.ErrDatabase, err)
	}
	log := logger.WithField("component", "migrate")
	m.Log = applog.NewMigrateAdapter(log)
	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("No migration changes")
			return nil
		}
		return fmt.Errorf("%w: migrate up: %w", utils.ErrDatabase, err)
	}
	mg.log.Info("Migrations applied")
	return nil
}

// Down rolls back steps migrations
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("down steps must be > 0")
	}
	if err := mg.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("%w: migrate down: %w", utils.ErrDatabase, err)
	}
	mg.log.WithField("steps", steps).Info("Rolled back migrations")
	return nil
}

// Version reports the current schema version; ok is false when nothing has been applied
func (mg *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("%w: read version: %w", utils.ErrDatabase, err)
	}
	return version, dirty, true, nil
}

// Force sets the version without running migrations, clearing the dirty flag
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("%w: force version %d: %w", utils.ErrDatabase, version, err)
	}
	mg.log.WithField("version", version).Info("Forced schema version")
	return nil
}

// Close releases the source and database handles
func (mg *Migrator) Close() {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		mg.log.WithError(srcErr).Warn("Close migration source")
	}
	if dbErr != nil {
		mg.log.WithError(dbErr).Warn("Close migration db")
	}
}
