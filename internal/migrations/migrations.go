package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var bundled embed.FS

type migration struct {
	Name    string
	Version string
	SQL     string
}

// Apply runs every pending migration. When dir is empty the bundled scripts are
// used, otherwise the .sql files found in dir.
func Apply(ctx context.Context, db *sqlx.DB, dir string) error {
	source, err := Source(dir)
	if err != nil {
		return err
	}
	migs, err := List(source)
	if err != nil {
		return err
	}
	if err := ensureTable(ctx, db); err != nil {
		return err
	}
	applied := map[string]bool{}
	rows := []string{}
	if err := db.SelectContext(ctx, &rows, `SELECT name FROM schema_migrations`); err != nil {
		return err
	}
	for _, name := range rows {
		applied[name] = true
	}
	for _, mig := range migs {
		if applied[mig.Name] {
			continue
		}
		if err := applyMigration(ctx, db, mig); err != nil {
			return err
		}
		log.Printf("[migrations] applied %s", mig.Name)
	}
	return nil
}

func Source(dir string) (fs.FS, error) {
	if strings.TrimSpace(dir) == "" {
		return fs.Sub(bundled, "sql")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations dir %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func ensureTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id SERIAL PRIMARY KEY,
  version TEXT NULL,
  name TEXT NOT NULL UNIQUE,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return err
}

// List returns the .sql files of source ordered by their V<n>__ prefix. Files
// without a version sort after versioned ones, by name.
func List(source fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, err
	}
	migs := make([]migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		content, err := fs.ReadFile(source, name)
		if err != nil {
			return nil, err
		}
		migs = append(migs, migration{Name: name, Version: parseVersion(name), SQL: string(content)})
	}
	sort.Slice(migs, func(i, j int) bool {
		iVersion, iOk := parseVersionNumber(migs[i].Name)
		jVersion, jOk := parseVersionNumber(migs[j].Name)
		switch {
		case iOk && jOk && iVersion != jVersion:
			return iVersion < jVersion
		case iOk != jOk:
			return iOk
		default:
			return migs[i].Name < migs[j].Name
		}
	})
	return migs, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, mig migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("apply %s: %w", mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		nullIfEmpty(mig.Version), mig.Name); err != nil {
		return err
	}
	return tx.Commit()
}

func parseVersion(name string) string {
	if !strings.HasPrefix(name, "V") {
		return ""
	}
	parts := strings.SplitN(name[1:], "__", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func parseVersionNumber(name string) (int, bool) {
	raw := parseVersion(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func nullIfEmpty(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
