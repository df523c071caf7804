package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// InitDB opens the database and migrates it to the latest schema.
//
// With an empty primaryURL the database is a local SQLite file (or ":memory:").
// Otherwise it is the remote libSQL database at primaryURL. The returned
// teardown closes the handle and is safe to call more than once.
func InitDB(dbPath, primaryURL, authToken, migrationsDir string) (*sql.DB, func(), error) {
	var (
		db  *sql.DB
		err error
	)
	if primaryURL == "" {
		log.Info("Initializing local SQLite database", "path", dbPath)
		db, err = sql.Open("libsql", localDSN(dbPath))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local database: %w", err)
		}
		// SQLite allows a single writer. One pooled connection makes
		// transactions queue in database/sql instead of failing with SQLITE_BUSY,
		// and keeps an in-memory database alive between calls.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		log.Info("Initializing Turso database", "url", primaryURL)
		db, err = sql.Open("libsql", primaryURL+"?authToken="+authToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db %s: %w", primaryURL, err)
		}
	}

	teardown := func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", "error", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		teardown()
		return nil, nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := migrate(db, migrationsDir); err != nil {
		teardown()
		return nil, nil, err
	}

	log.Info("Database initialized successfully")
	return db, teardown, nil
}

func localDSN(dbPath string) string {
	path := dbPath
	if path == "" || path == ":memory:" {
		path = ":memory:"
	}
	path = strings.TrimPrefix(path, "file:")
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

func migrate(db *sql.DB, dir string) error {
	goose.SetLogger(log.Default())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations from %s: %w", dir, err)
	}
	return nil
}
