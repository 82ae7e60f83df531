package orm

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBExecutor represents an interface that can execute database operations.
// It is satisfied by both *sqlx.DB and *sqlx.Tx, so repositories work the same
// inside and outside a transaction.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row

	// BindNamed expands :name parameters using the driver's bind type
	BindNamed(query string, arg interface{}) (string, []interface{}, error)

	Rebind(query string) string
	DriverName() string
}

var (
	_ DBExecutor = (*sqlx.DB)(nil)
	_ DBExecutor = (*sqlx.Tx)(nil)
)
