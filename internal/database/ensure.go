package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/eleven-am/boxoffice/internal/logger"
	"github.com/jmoiron/sqlx"
)

const maintenanceDB = "postgres"

// EnsureExists creates the database named by cfg.URL when the server does not
// have it yet. It connects through the server's maintenance database.
func (cfg *DBConfig) EnsureExists(ctx context.Context) (bool, error) {
	name, adminDSN, err := maintenanceDSN(cfg.URL)
	if err != nil {
		return false, fmt.Errorf("failed to parse DSN: %w", err)
	}

	admin := &DBConfig{URL: adminDSN, MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: cfg.ConnMaxLifetime}
	db, err := admin.Connect(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to connect to maintenance database: %w", err)
	}
	defer db.Close()

	return createIfMissing(ctx, db, name)
}

func createIfMissing(ctx context.Context, db *sqlx.DB, name string) (bool, error) {
	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return false, nil
	}

	logger.DB().Info("Creating database", "database", name)
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(name)); err != nil {
		return false, fmt.Errorf("failed to create database %q: %w", name, err)
	}
	return true, nil
}

// maintenanceDSN returns the target database name and the same DSN pointed at
// the maintenance database instead.
func maintenanceDSN(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", err
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return "", "", fmt.Errorf("no database name found in URL")
		}
		u.Path = "/" + maintenanceDB
		return name, u.String(), nil
	}

	var name string
	fields := strings.Fields(dsn)
	for i, kv := range fields {
		key, value, ok := strings.Cut(kv, "=")
		if ok && key == "dbname" {
			name = value
			fields[i] = "dbname=" + maintenanceDB
		}
	}
	if name == "" {
		return "", "", fmt.Errorf("no database name found in DSN")
	}
	return name, strings.Join(fields, " "), nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
