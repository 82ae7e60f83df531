package schema

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/eleven-am/boxoffice/internal/logger"
	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var files embed.FS

const advisoryLockID int64 = 720195311

// Tables lists the ticketing tables in dependency order.
var Tables = []string{"customer", "stadium", "event", "ticket"}

// Files returns the embedded schema file names in apply order.
func Files() ([]string, error) {
	entries, err := fs.ReadDir(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("read schema files: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Apply runs every embedded schema file that has not been recorded in
// schema_migrations yet. Concurrent callers serialize on an advisory lock.
func Apply(ctx context.Context, db *sqlx.DB) ([]string, error) {
	log := logger.Schema()

	names, err := Files()
	if err != nil {
		return nil, err
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockID); err != nil {
		return nil, fmt.Errorf("acquire schema lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryLockID)
	}()

	if _, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var applied []string
	for _, name := range names {
		var done bool
		if err := conn.GetContext(ctx, &done, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name); err != nil {
			return applied, fmt.Errorf("check schema file %s: %w", name, err)
		}
		if done {
			log.Debug("Schema file already applied", "file", name)
			continue
		}

		content, err := files.ReadFile("sql/" + name)
		if err != nil {
			return applied, fmt.Errorf("read schema file %s: %w", name, err)
		}
		stmt := strings.TrimSpace(string(content))
		if stmt == "" {
			continue
		}

		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return applied, fmt.Errorf("exec schema file %s: %w", name, err)
		}
		if _, err := conn.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			return applied, fmt.Errorf("record schema file %s: %w", name, err)
		}

		log.Info("Applied schema file", "file", name)
		applied = append(applied, name)
	}

	return applied, nil
}
