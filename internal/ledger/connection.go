// Package ledger keeps the history of pipeline runs in a SQLite database.
package ledger

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/logger"
)

// Open opens the SQLite database at path, creating its directory.
func Open(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	log = logger.Component(log, "ledger")
	log.Debugw("Opening database", logger.FieldPath, path)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create ledger directory")
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to apply %q", pragma)
		}
	}
	return db, nil
}

// OpenWithMigrations opens the database and applies pending migrations.
func OpenWithMigrations(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return db, nil
}
