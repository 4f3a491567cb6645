// Package migrations applies the embedded schema migrations for the configured driver.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/mysql/*.sql files/sqlite/*.sql
var migrationFiles embed.FS

// migrationsTable keeps our version row apart from other applications sharing the database
const migrationsTable = "gym_schema_migrations"

// MigrateUp runs all pending migrations to bring database to latest version.
func MigrateUp(db *sql.DB, driver string) error {
	m, err := newMigrate(db, driver)
	if err != nil {
		return err
	}
	// Note: We don't close m here because it would close the db connection
	// The caller owns the db and is responsible for closing it

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// MigrateDown rolls back the given number of migrations
func MigrateDown(db *sql.DB, driver string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := newMigrate(db, driver)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Status describes the schema version of a database
type Status struct {
	Version uint
	Latest  uint
	Dirty   bool
}

// Pending reports whether migrations are waiting to be applied
func (s Status) Pending() bool {
	return s.Version < s.Latest
}

// GetStatus returns the current and latest schema versions.
// A database that was never migrated reports version 0.
func GetStatus(db *sql.DB, driver string) (Status, error) {
	m, err := newMigrate(db, driver)
	if err != nil {
		return Status{}, err
	}

	var st Status
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return Status{}, fmt.Errorf("failed to get database version: %w", err)
	default:
		st.Version, st.Dirty = version, dirty
	}

	src, err := iofs.New(migrationFiles, sourceDir(driver))
	if err != nil {
		return Status{}, fmt.Errorf("failed to read migration files: %w", err)
	}
	defer src.Close()

	st.Latest, err = latestVersion(src)
	if err != nil {
		return Status{}, fmt.Errorf("failed to determine latest version: %w", err)
	}
	return st, nil
}

func sourceDir(driver string) string {
	return path.Join("files", driver)
}

// newMigrate creates a new migrate instance for the given database.
func newMigrate(db *sql.DB, driver string) (*migrate.Migrate, error) {
	var (
		dbDriver database.Driver
		name     string
		err      error
	)
	switch driver {
	case "mysql":
		name = "mysql"
		dbDriver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	case "sqlite":
		name = "sqlite3"
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFiles, sourceDir(driver))
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, name, dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// latestVersion returns the highest version number available in the source.
func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}

	for {
		next, err := src.Next(version)
		if err != nil {
			// Any error from Next() means there are no more migrations
			break
		}
		version = next
	}
	return version, nil
}
