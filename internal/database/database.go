// Package database opens the record store connection for the configured driver.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the database and verifies the connection.
// driver is "mysql" or "sqlite", dsn is the value returned by config.Config.DSN.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "mysql":
		return openMySQL(dsn)
	case "sqlite":
		return openSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// openSQLite opens a sqlite file or ":memory:" database.
// SQLite allows a single writer, so the pool is limited to one connection; for ":memory:"
// this also keeps every query on the same in-memory database.
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}
