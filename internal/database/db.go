package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eleven-am/boxoffice/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const driverName = "postgres"

type DBConfig struct {
	URL              string
	ConnMaxLifetime  time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
}

func NewDBConfig(url string) *DBConfig {
	return &DBConfig{
		URL:             url,
		ConnMaxLifetime: 10 * time.Minute,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
}

// DSN returns the connection string passed to lib/pq. A positive statement
// timeout is sent as a startup parameter so it applies to every pooled
// connection.
func (cfg *DBConfig) DSN() (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("database URL is required")
	}
	if cfg.StatementTimeout <= 0 {
		return cfg.URL, nil
	}

	ms := cfg.StatementTimeout.Milliseconds()
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("invalid database URL: %w", err)
		}
		q := u.Query()
		q.Set("statement_timeout", fmt.Sprintf("%d", ms))
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	return fmt.Sprintf("%s statement_timeout=%d", cfg.URL, ms), nil
}

func (cfg *DBConfig) Connect(ctx context.Context) (*sqlx.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.DB().Debug("Connected to database",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"conn_max_lifetime", cfg.ConnMaxLifetime)

	return db, nil
}
