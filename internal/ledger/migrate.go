package ledger

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

// Migrate runs all pending migrations in file name order.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	log = logger.Component(log, "ledger")
	entries, err := migrations.ReadDir("sqlite/migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, name := range files {
		version := strings.SplitN(name, "_", 2)[0]

		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version).Scan(&exists)
		if err != nil {
			// schema_migrations is created by 000
			if version != "000" {
				return errors.Newf("schema_migrations table missing, but migration is not 000: %s", name)
			}
		} else if exists {
			continue
		}

		body, err := migrations.ReadFile(path.Join("sqlite/migrations", name))
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin tx for %s", name)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "execute %s", name)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "record %s", name)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", name)
		}
		applied++
		log.Debugw("Applied migration", "migration", name)
	}
	if applied > 0 {
		log.Debugw("Migrations complete", logger.FieldCount, applied)
	}
	return nil
}
