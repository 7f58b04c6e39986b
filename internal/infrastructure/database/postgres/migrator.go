package postgres

import (
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// RunMigrations applies all pending schema migrations from the configured
// migrations directory.  A database already at the latest version is not an
// error.
func RunMigrations(cfg config.DatabaseConfig, log logging.Logger) error {
	if cfg.MigrationPath == "" {
		return errors.NewValidation("migration path is not configured")
	}

	m, err := migrate.New("file://"+cfg.MigrationPath, migrateDSN(cfg))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		version, _, _ := m.Version()
		return errors.Wrapf(err, errors.ErrCodeDatabaseError,
			"failed to run migrations (current version: %d)", version)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Warn("failed to read migration version", logging.Err(err))
	}

	log.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// migrateDSN rewrites the connection URL onto the scheme registered by the
// migrate pgx/v5 driver.
func migrateDSN(cfg config.DatabaseConfig) string {
	return strings.Replace(BuildDSN(cfg), "postgres://", "pgx5://", 1)
}
