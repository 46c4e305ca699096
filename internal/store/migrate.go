package store

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/routekeeper/migrations"
)

/*
 * Migration runner.
 *
 * Detects the driver, selects the matching embedded migration set, and
 * applies pending files in lexical order inside transactions. Applied
 * migrations are recorded by ID in the migrations table; files already
 * recorded are skipped, so MigrateUp is idempotent.
 */

// MigrateUp runs all pending migrations against the database.
func MigrateUp(db *sqlx.DB) error {
	var migrationsFS embed.FS
	var migrationsDir string

	switch driver := db.DriverName(); driver {
	case "sqlite3":
		migrationsFS = embeddedmigrations.SqliteMigrations
		migrationsDir = "sqlite"
	case "postgres":
		migrationsFS = embeddedmigrations.PostgresMigrations
		migrationsDir = "postgres"
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		migration_id TEXT PRIMARY KEY,
		applied_at   TIMESTAMP NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	ids, bodies, err := readMigrationFiles(migrationsFS, migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	applied := make(map[string]bool)
	var appliedIDs []string
	if err := db.Select(&appliedIDs, "SELECT migration_id FROM migrations"); err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	for _, id := range appliedIDs {
		applied[id] = true
	}

	for i, id := range ids {
		if applied[id] {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", id, err)
		}
		if _, err := tx.Exec(bodies[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", id, err)
		}
		if _, err := tx.Exec(db.Rebind("INSERT INTO migrations (migration_id, applied_at) VALUES (?, ?)"),
			id, time.Now().UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", id, err)
		}
	}

	return nil
}

// readMigrationFiles lists embedded .sql files in lexical order.
func readMigrationFiles(migrationsFS embed.FS, dir string) (ids []string, bodies []string, err error) {
	err = fs.WalkDir(migrationsFS, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		ids = append(ids, filepath.Base(path))
		bodies = append(bodies, string(content))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Sort(byID{ids, bodies})
	return ids, bodies, nil
}

// byID sorts migration files and their bodies together by filename.
type byID struct {
	ids    []string
	bodies []string
}

func (s byID) Len() int           { return len(s.ids) }
func (s byID) Less(i, j int) bool { return s.ids[i] < s.ids[j] }
func (s byID) Swap(i, j int) {
	s.ids[i], s.ids[j] = s.ids[j], s.ids[i]
	s.bodies[i], s.bodies[j] = s.bodies[j], s.bodies[i]
}
